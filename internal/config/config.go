// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret for access tokens; at least 32 bytes.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim; required.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// RefreshTTLRaw is the refresh session lifetime (e.g. "168h").
	RefreshTTLRaw string `mapstructure:"REFRESH_TTL"`
	// ArgonMemoryKiB is the Argon2id memory cost in KiB; default 19456 (19 MiB).
	ArgonMemoryKiB uint32 `mapstructure:"ARGON_MEMORY_KIB"`
	// ArgonTime is the Argon2id pass count; default 2.
	ArgonTime uint32 `mapstructure:"ARGON_TIME"`
	// ArgonParallelism is the Argon2id lane count; default 1.
	ArgonParallelism uint8 `mapstructure:"ARGON_PARALLELISM"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// PurgeIntervalRaw is how often the worker purges expired sessions (e.g. "1h").
	PurgeIntervalRaw string `mapstructure:"PURGE_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI); env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "testprep-auth")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("REFRESH_TTL", "168h") // 7d
	v.SetDefault("ARGON_MEMORY_KIB", 19456)
	v.SetDefault("ARGON_TIME", 2)
	v.SetDefault("ARGON_PARALLELISM", 1)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("PURGE_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if len(cfg.JWTSecret) > 0 && len(cfg.JWTSecret) < 32 {
		return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
	}
	if cfg.ArgonMemoryKiB < 8*1024 {
		return nil, errors.New("config: ARGON_MEMORY_KIB must be at least 8192")
	}
	if cfg.ArgonTime == 0 {
		return nil, errors.New("config: ARGON_TIME must be at least 1")
	}
	if cfg.ArgonParallelism == 0 {
		return nil, errors.New("config: ARGON_PARALLELISM must be at least 1")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTTLRaw as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTTLRaw)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// PurgeInterval parses PurgeIntervalRaw as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) PurgeInterval() time.Duration {
	d, err := time.ParseDuration(c.PurgeIntervalRaw)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
