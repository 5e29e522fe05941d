// Package audit records who changed roles, relations, and verification state.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	otellog "go.opentelemetry.io/otel/log"

	"handicraft-marketplace/backend/internal/audit/domain"
	auditrepo "handicraft-marketplace/backend/internal/audit/repository"
	"handicraft-marketplace/backend/internal/platform/logging"
	"handicraft-marketplace/backend/internal/telemetry"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actorID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	records     otellog.Logger
	async       *telemetry.Dispatcher
	log         logrus.FieldLogger
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, log logrus.FieldLogger) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, log: logging.OrDiscard(log)}
}

// WithRecords mirrors every event as an OpenTelemetry log record emitted through records.
func (l *Logger) WithRecords(records otellog.Logger) *Logger {
	l.records = records
	return l
}

// WithDispatcher moves the store write and record emission off the caller's goroutine.
// The entry (id, ip, timestamp) is still built synchronously.
func (l *Logger) WithDispatcher(d *telemetry.Dispatcher) *Logger {
	l.async = d
	return l
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actorID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if l.async != nil {
		l.async.Go(ctx, "audit", func(ctx context.Context) error {
			l.write(ctx, entry)
			return nil
		})
		return
	}
	l.write(ctx, entry)
}

func (l *Logger) write(ctx context.Context, entry *domain.AuditLog) {
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"action":   entry.Action,
			"resource": entry.Resource,
		}).Error("audit: failed to log event")
	}
	l.emit(ctx, entry)
}

func (l *Logger) emit(ctx context.Context, entry *domain.AuditLog) {
	if l.records == nil {
		return
	}
	rec := otellog.Record{}
	rec.SetTimestamp(entry.CreatedAt)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(entry.Action))
	rec.AddAttributes(
		otellog.String("audit.id", entry.ID),
		otellog.String("audit.actor_id", entry.ActorID),
		otellog.String("audit.resource", entry.Resource),
		otellog.String("audit.ip", entry.IP),
	)
	if entry.Metadata != "" {
		rec.AddAttributes(otellog.String("audit.metadata", entry.Metadata))
	}
	l.records.Emit(ctx, rec)
}

// Nop is an AuditLogger that records nothing.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, string, string, string) {}
