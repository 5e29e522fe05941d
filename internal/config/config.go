// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBMaxOpenConns caps the pool size; 0 leaves database/sql unlimited.
	DBMaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// StoreTimeout bounds every store call whose context carries no deadline (e.g. "5s").
	StoreTimeout string `mapstructure:"STORE_TIMEOUT"`
	// DefaultMaxArtists is the capacity given to agent profiles created on role assignment.
	DefaultMaxArtists int `mapstructure:"DEFAULT_MAX_ARTISTS"`
	// AuthzPolicyFile optionally points at a Rego module that replaces the built-in authorization policy.
	AuthzPolicyFile string `mapstructure:"AUTHZ_POLICY_FILE"`

	// JWTPublicKey is the PEM-encoded public key (or path) used to verify access tokens issued by the identity service.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on telemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("DEFAULT_MAX_ARTISTS", 10)
	v.SetDefault("AUTHZ_POLICY_FILE", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "marketplace-auth")
	v.SetDefault("JWT_AUDIENCE", "marketplace-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "marketplace-authz")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.DefaultMaxArtists <= 0 {
		return nil, errors.New("config: DEFAULT_MAX_ARTISTS must be positive")
	}
	if cfg.DBMaxOpenConns < 0 {
		return nil, errors.New("config: DB_MAX_OPEN_CONNS must not be negative")
	}

	return &cfg, nil
}

// Timeout parses StoreTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.StoreTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// AuthEnabled reports whether access tokens can be verified (a public key is configured).
func (c *Config) AuthEnabled() bool {
	return c != nil && c.JWTPublicKey != ""
}
