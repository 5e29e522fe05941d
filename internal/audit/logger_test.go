package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	"handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/telemetry"
)

// mockAuditRepo implements audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

type recordingLogger struct {
	noop.Logger
	records []otellog.Record
}

func (r *recordingLogger) Emit(ctx context.Context, rec otellog.Record) {
	r.records = append(r.records, rec)
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	ipExtractor := func(ctx context.Context) string {
		return "192.168.1.1"
	}
	logger := NewLogger(repo, ipExtractor, nil)

	logger.LogEvent(context.Background(), "admin-1", domain.ActionAgentAssign, "artist:ap1", `{"agent_id":"gp1"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.ActorID != "admin-1" {
		t.Errorf("actor_id = %q, want %q", entry.ActorID, "admin-1")
	}
	if entry.Action != domain.ActionAgentAssign {
		t.Errorf("action = %q, want %q", entry.Action, domain.ActionAgentAssign)
	}
	if entry.Resource != "artist:ap1" {
		t.Errorf("resource = %q, want %q", entry.Resource, "artist:ap1")
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry CreatedAt should be set")
	}
}

func TestLogger_LogEvent_UnknownIP(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil, nil).LogEvent(context.Background(), "u1", domain.ActionSupportCreate, "support:s1", "")
	NewLogger(repo, func(context.Context) string { return "" }, nil).LogEvent(context.Background(), "u1", domain.ActionSupportCreate, "support:s2", "")

	if len(repo.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(repo.entries))
	}
	for _, e := range repo.entries {
		if e.IP != "unknown" {
			t.Errorf("ip = %q, want %q", e.IP, "unknown")
		}
	}
}

func TestLogger_LogEvent_RepoErrorIsSwallowed(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	records := &recordingLogger{}
	logger := NewLogger(repo, nil, nil).WithRecords(records)

	logger.LogEvent(context.Background(), "admin-1", domain.ActionRoleRevoke, "user:u1", "")

	if len(repo.entries) != 0 {
		t.Errorf("expected no stored entries, got %d", len(repo.entries))
	}
	if len(records.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(records.records))
	}
	if got := records.records[0].Body().AsString(); got != domain.ActionRoleRevoke {
		t.Errorf("record body = %q, want %q", got, domain.ActionRoleRevoke)
	}
}

func TestLogger_NilRepoIsNoop(t *testing.T) {
	var l *Logger
	l.LogEvent(context.Background(), "a", "b", "c", "d")
	NewLogger(nil, nil, nil).LogEvent(context.Background(), "a", "b", "c", "d")
}

func TestLogger_WithDispatcher(t *testing.T) {
	repo := &mockAuditRepo{}
	d := telemetry.NewDispatcher(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	logger := NewLogger(repo, func(context.Context) string { return "10.0.0.7" }, nil).WithDispatcher(d)

	logger.LogEvent(ctx, "admin-1", domain.ActionAgentDeactivate, "artist:ap1", "")
	cancel()

	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "10.0.0.7" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "10.0.0.7")
	}
}
