package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.DBPath != "app.db" || !cfg.PersistEnabled {
		t.Fatalf("sink defaults wrong: %q %v", cfg.DBPath, cfg.PersistEnabled)
	}
	if cfg.HistorySize != 5 {
		t.Fatalf("HistorySize = %d, want 5", cfg.HistorySize)
	}
	if cfg.PersistTimeout != 5*time.Second {
		t.Fatalf("PersistTimeout = %v", cfg.PersistTimeout)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate defaults wrong: %v %d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "go-sms-webhook" {
		t.Fatalf("OTEL defaults wrong: %+v", cfg.OTEL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_SIZE", "10")
	t.Setenv("PERSIST_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("READ_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.HistorySize != 10 || cfg.PersistEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("ReadTimeout = %v", cfg.ReadTimeout)
	}
}

func TestLoad_Normalization(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release fallback", cfg.GinMode)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		k, v string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad history size", "HISTORY_SIZE", "0"},
		{"bad burst", "RATE_BURST", "0"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"bad read timeout", "READ_TIMEOUT", "-1s"},
		{"bad idempotency ttl", "IDEMPOTENCY_TTL", "-1h"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv(c.k, c.v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", c.k, c.v)
			}
		})
	}
}

func TestLoad_DBPathRequiredOnlyWhenPersisting(t *testing.T) {
	t.Setenv("DB_PATH", "   ")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for blank DB_PATH")
	}

	t.Setenv("PERSIST_ENABLED", "false")
	if _, err := Load(); err != nil {
		t.Fatalf("blank DB_PATH must be allowed without persistence: %v", err)
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustLoad()
}

func Test_getbool(t *testing.T) {
	t.Setenv("FLAG", "yes")
	if !getbool("FLAG", false) {
		t.Fatalf("yes -> true")
	}
	t.Setenv("FLAG", "off")
	if getbool("FLAG", true) {
		t.Fatalf("off -> false")
	}
	t.Setenv("FLAG", "maybe")
	if !getbool("FLAG", true) {
		t.Fatalf("garbage -> default")
	}
}

func Test_splitCSV(t *testing.T) {
	got := splitCSV(" a , ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitCSV = %v", got)
	}
	if splitCSV("") != nil {
		t.Fatalf("empty input must return nil")
	}
}
