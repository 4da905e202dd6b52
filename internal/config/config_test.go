package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "aml")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "4000" {
		t.Fatalf("port=%q", cfg.Port)
	}
	if cfg.Env != "dev" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.DB.MaxOpenConns != 10 || cfg.DB.MaxIdleConns != 10 {
		t.Fatalf("pool defaults: %+v", cfg.DB)
	}
	if cfg.JWT.Expires != 24*time.Hour {
		t.Fatalf("jwt expires=%v", cfg.JWT.Expires)
	}
	if cfg.Push.URL != "https://exp.host/--/api/v2/push/send" {
		t.Fatalf("push url=%q", cfg.Push.URL)
	}
	if cfg.Geo.UserAgent != "AML-API/1.0" {
		t.Fatalf("geo user agent=%q", cfg.Geo.UserAgent)
	}
}

func TestLoad_DSN(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_PORT", "3307")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dsn := cfg.DB.DSN()
	for _, want := range []string{
		"app:pw@tcp(localhost:3307)/aml",
		"charset=utf8mb4",
		"parseTime=true",
		"loc=UTC",
	} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestLoad_NormalizesWarningLevel(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("level=%q", cfg.LogLevel)
	}
}

func TestLoad_CORSList(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGIN", "https://app.example.com, https://ops.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://ops.example.com" {
		t.Fatalf("origins=%v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"DB_HOST": "h", "DB_NAME": "d"}},
		{"missing db name", map[string]string{"DB_HOST": "h", "JWT_SECRET": "s"}},
		{"bad db port", map[string]string{"DB_HOST": "h", "DB_NAME": "d", "JWT_SECRET": "s", "DB_PORT": "99999"}},
		{"bad log level", map[string]string{"DB_HOST": "h", "DB_NAME": "d", "JWT_SECRET": "s", "LOG_LEVEL": "verbose"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
