package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "testprep-auth" {
		t.Errorf("JWTIssuer = %q, want testprep-auth", cfg.JWTIssuer)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.RefreshTTL())
	}
	if cfg.PurgeInterval() != time.Hour {
		t.Errorf("PurgeInterval = %v, want 1h", cfg.PurgeInterval())
	}
	if cfg.ArgonMemoryKiB != 19456 || cfg.ArgonTime != 2 || cfg.ArgonParallelism != 1 {
		t.Errorf("Argon params = %d/%d/%d, want 19456/2/1", cfg.ArgonMemoryKiB, cfg.ArgonTime, cfg.ArgonParallelism)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REFRESH_TTL", "24h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.AccessTTL() != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 24h", cfg.RefreshTTL())
	}
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("want JWT_SECRET error, got %v", err)
	}
}

func TestLoad_RejectsWeakArgonParams(t *testing.T) {
	t.Setenv("ARGON_MEMORY_KIB", "1024")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ARGON_MEMORY_KIB") {
		t.Errorf("want ARGON_MEMORY_KIB error, got %v", err)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "garbage", RefreshTTLRaw: "-1h", PurgeIntervalRaw: ""}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("invalid access TTL should fall back to 15m, got %v", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("non-positive refresh TTL should fall back to 168h, got %v", cfg.RefreshTTL())
	}
	if cfg.PurgeInterval() != time.Hour {
		t.Errorf("empty purge interval should fall back to 1h, got %v", cfg.PurgeInterval())
	}
}
