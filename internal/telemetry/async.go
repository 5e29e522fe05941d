// Package telemetry holds best-effort background work and decision metrics for the authorization server.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"handicraft-marketplace/backend/internal/platform/logging"
)

// taskTimeout is the max time allowed for a single background task. Used by Dispatcher.Go and by ShutdownDrainDuration.
const taskTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after gRPC GracefulStop for in-flight background
// tasks before shutting down OTel providers. Must be >= taskTimeout.
const ShutdownDrainDuration = taskTimeout

// Dispatcher runs fire-and-forget work (audit writes) off the request path.
// Each task gets a context detached from request cancellation, bounded by the task timeout.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewDispatcher returns a dispatcher. timeout <= 0 uses the default task timeout.
func NewDispatcher(timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if timeout <= 0 {
		timeout = taskTimeout
	}
	return &Dispatcher{timeout: timeout, log: logging.OrDiscard(log)}
}

// Go runs fn in a goroutine. ctx values (trace span, identity) are kept but its cancellation is not,
// so a finished request does not abort the task. Errors are logged.
//
// d and fn may be nil; Go then returns immediately without starting a goroutine.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(context.Context) error) {
	if d == nil || fn == nil {
		return
	}
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := fn(taskCtx); err != nil {
			d.log.WithError(err).WithField("task", name).Warn("telemetry: background task failed")
		}
	}()
}

// Drain waits for in-flight tasks or until ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
