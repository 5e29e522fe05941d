package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Decision outcomes reported on authz.decisions.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// DecisionRecorder records one authorization decision.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, kind, outcome string, elapsed time.Duration)
}

// DecisionMetrics records decisions as OpenTelemetry instruments.
type DecisionMetrics struct {
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewDecisionMetrics creates the authz.decisions counter and authz.decision.duration histogram on meter.
func NewDecisionMetrics(meter metric.Meter) (*DecisionMetrics, error) {
	decisions, err := meter.Int64Counter("authz.decisions",
		metric.WithDescription("Authorization decisions by resource kind and outcome."),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("authz.decision.duration",
		metric.WithDescription("Time to gather facts and evaluate the policy."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &DecisionMetrics{decisions: decisions, latency: latency}, nil
}

// RecordDecision implements DecisionRecorder.
func (m *DecisionMetrics) RecordDecision(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("authz.resource.kind", kind),
		attribute.String("authz.outcome", outcome),
	)
	m.decisions.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}
