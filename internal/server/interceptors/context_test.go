package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "session-1")

	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("user_id = %q, ok = %v, want %q", userID, ok, "user-1")
	}
	sessionID, ok := GetSessionID(ctx)
	if !ok || sessionID != "session-1" {
		t.Errorf("session_id = %q, ok = %v, want %q", sessionID, ok, "session-1")
	}
	if got := ActorID(ctx); got != "user-1" {
		t.Errorf("ActorID = %q, want %q", got, "user-1")
	}
}

func TestActorID_Anonymous(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID should return false without identity")
	}
	if got := ActorID(ctx); got != "" {
		t.Errorf("ActorID = %q, want empty", got)
	}
}
