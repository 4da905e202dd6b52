// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// database connection settings, token signing, CORS, rate limiting, and the
// endpoints of external collaborators (push provider, geocoder).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DBConfig holds MariaDB/MySQL connection settings. The business logic lives
// in stored procedures on this server; the application only needs a pool.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DSN renders the go-sql-driver/mysql connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC&timeout=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.ConnectTimeout,
	)
}

// JWTConfig holds bearer-token signing settings.
type JWTConfig struct {
	Secret  string
	Expires time.Duration
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls the hardening headers.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// PushConfig points at the Expo push delivery endpoint.
type PushConfig struct {
	URL     string
	Timeout time.Duration
}

// GeoConfig points at the Nominatim reverse-geocoding endpoint.
type GeoConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Env               string        // dev|staging|prod (reported by /health)
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Uploads
	UploadDir string // filesystem root served under /uploads

	// Auth rate limiting (login/forgot-password)
	AuthRateRPS   float64
	AuthRateBurst int

	DB       DBConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Security SecurityConfig
	Push     PushConfig
	Geo      GeoConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Env:               strings.ToLower(getenv("APP_ENV", "dev")),
		Port:              getenv("PORT", "4000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		UploadDir: getenv("UPLOAD_DIR", "uploads"),

		AuthRateRPS:   getfloat("AUTH_RATE_RPS", 0.1), // ~30 requests per 5 minutes
		AuthRateBurst: getint("AUTH_RATE_BURST", 30),

		DB: DBConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getint("DB_PORT", 3306),
			User:     getenv("DB_USER", ""),
			Password: getenv("DB_PASSWORD", ""),
			Name:     getenv("DB_NAME", ""),

			MaxOpenConns:    getint("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getint("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: getdur("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			ConnMaxLifetime: getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getdur("DB_CONNECT_TIMEOUT", 30*time.Second),
		},

		JWT: JWTConfig{
			Secret:  getenv("JWT_SECRET", ""),
			Expires: getdur("JWT_EXPIRES", 24*time.Hour),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ORIGIN", "")),
		},

		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Push: PushConfig{
			URL:     getenv("PUSH_URL", "https://exp.host/--/api/v2/push/send"),
			Timeout: getdur("PUSH_TIMEOUT", 10*time.Second),
		},

		Geo: GeoConfig{
			URL:       getenv("GEO_URL", "https://nominatim.openstreetmap.org/reverse"),
			UserAgent: getenv("GEO_USER_AGENT", "AML-API/1.0"),
			Timeout:   getdur("GEO_TIMEOUT", 10*time.Second),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DB.Host) == "" {
		return cfg, errors.New("DB_HOST must not be empty")
	}
	if cfg.DB.Port <= 0 || cfg.DB.Port > 65535 {
		return cfg, errors.New("DB_PORT must be a valid TCP port")
	}
	if strings.TrimSpace(cfg.DB.Name) == "" {
		return cfg, errors.New("DB_NAME must not be empty")
	}
	if cfg.DB.MaxOpenConns < 1 || cfg.DB.MaxIdleConns < 0 {
		return cfg, errors.New("DB pool sizes must be positive")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.JWT.Expires <= 0 {
		return cfg, errors.New("JWT_EXPIRES must be > 0")
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		return cfg, errors.New("UPLOAD_DIR must not be empty")
	}
	if cfg.AuthRateRPS < 0 {
		return cfg, errors.New("AUTH_RATE_RPS must be >= 0")
	}
	if cfg.AuthRateBurst < 1 {
		return cfg, errors.New("AUTH_RATE_BURST must be >= 1")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
