package migrate

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"handicraft-marketplace/backend/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, "up")
		if err == nil {
			t.Fatalf("Run(%q) should return error", dsn)
		}
		if !strings.Contains(err.Error(), "DATABASE_URL is not set") {
			t.Errorf("error = %q, want DATABASE_URL hint", err.Error())
		}
	}
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		in   string
		want Direction
		err  bool
	}{
		{"up", Up, false},
		{"down", Down, false},
		{"", "", true},
		{"UP", "", true},
		{"sideways", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDirection(tc.in)
			if tc.err {
				if err == nil {
					t.Fatalf("ParseDirection(%q) should fail", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDirection(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseDirection(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/test", "left")
	if err == nil {
		t.Fatal("Run with invalid direction should return error")
	}
	if !strings.Contains(err.Error(), "direction") {
		t.Errorf("error = %q, should mention direction", err.Error())
	}
}

func TestErrNoChange(t *testing.T) {
	if ErrNoChange == nil {
		t.Fatal("ErrNoChange should not be nil")
	}
	if !errors.Is(ErrNoChange, ErrNoChange) {
		t.Error("ErrNoChange should be errors.Is compatible")
	}
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("migrations: %d up, %d down; want matching non-zero counts", ups, downs)
	}
}

func TestMigrationFS_SeedsRoleCatalog(t *testing.T) {
	b, err := fs.ReadFile(db.MigrationFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sql := string(b)
	for _, want := range []string{"agent_artists_one_active_per_artist", "'admin'", "'artist'", "'agent'", "'buyer'", "max_artists"} {
		if !strings.Contains(sql, want) {
			t.Errorf("init migration missing %q", want)
		}
	}
}

func TestMigrationFS_AgentRequestStates(t *testing.T) {
	b, err := fs.ReadFile(db.MigrationFS, "migrations/000002_agent_requests.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sql := string(b)
	for _, want := range []string{"CREATE TABLE agent_requests", "'pending'", "'accepted'", "'rejected'", "'completed'", "REFERENCES agent_profiles"} {
		if !strings.Contains(sql, want) {
			t.Errorf("agent_requests migration missing %q", want)
		}
	}
}
