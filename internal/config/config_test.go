package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.DefaultMaxArtists != 10 {
		t.Errorf("DefaultMaxArtists = %d, want 10", cfg.DefaultMaxArtists)
	}
	if cfg.DBMaxOpenConns != 25 {
		t.Errorf("DBMaxOpenConns = %d, want 25", cfg.DBMaxOpenConns)
	}
	if cfg.JWTIssuer != "marketplace-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "marketplace-auth")
	}
	if cfg.JWTAudience != "marketplace-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "marketplace-api")
	}
	if cfg.ServiceName != "marketplace-authz" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "marketplace-authz")
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled should be false without JWT_PUBLIC_KEY")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("DEFAULT_MAX_ARTISTS", "3")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("AUTHZ_POLICY_FILE", "/etc/marketplace/authz.rego")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.DefaultMaxArtists != 3 {
		t.Errorf("DefaultMaxArtists = %d, want 3", cfg.DefaultMaxArtists)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.AuthzPolicyFile != "/etc/marketplace/authz.rego" {
		t.Errorf("AuthzPolicyFile = %q", cfg.AuthzPolicyFile)
	}
}

func TestLoad_DefaultMaxArtistsRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"one", "1", 1, false},
		{"fifty", "50", 50, false},
		{"zero", "0", 0, true},
		{"negative", "-2", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("DEFAULT_MAX_ARTISTS", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.DefaultMaxArtists != tc.want {
				t.Errorf("DefaultMaxArtists = %d, want %d", cfg.DefaultMaxArtists, tc.want)
			}
		})
	}
}

func TestLoad_NegativePoolSize(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_MAX_OPEN_CONNS", "-1")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject negative DB_MAX_OPEN_CONNS")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestTimeout(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "750ms", 750 * time.Millisecond},
		{"invalid", "soon", 5 * time.Second},
		{"zero", "0", 5 * time.Second},
		{"negative", "-1s", 5 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("STORE_TIMEOUT", tc.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.Timeout(); got != tc.want {
				t.Errorf("Timeout = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAuthEnabled(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_PUBLIC_KEY", "/keys/jwt.pub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled should be true when JWT_PUBLIC_KEY is set")
	}
	var nilCfg *Config
	if nilCfg.AuthEnabled() {
		t.Error("nil config should report auth disabled")
	}
}
