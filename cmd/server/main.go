// Command server runs the logistics API gateway.
//
// Startup order: environment → config → logger → database pool (fail fast on
// an unreachable server) → collaborators → router → HTTP server. Shutdown
// drains in-flight requests before the pool is closed.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/config"
	"github.com/aml-logistics/aml-api/internal/geo"
	httpapi "github.com/aml-logistics/aml-api/internal/http"
	"github.com/aml-logistics/aml-api/internal/http/handlers"
	"github.com/aml-logistics/aml-api/internal/push"
	"github.com/aml-logistics/aml-api/internal/repo"
	"github.com/aml-logistics/aml-api/internal/sp"
	"github.com/aml-logistics/aml-api/internal/upload"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := newLogger(cfg)
	// Request-scoped loggers in the middleware derive from the global logger.
	zlog.Logger = log

	gin.SetMode(cfg.GinMode)

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer func() {
		if err := repo.Close(db); err != nil {
			log.Error().Err(err).Msg("closing database pool")
		}
	}()
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("unwrapping database pool")
	}

	gateway := sp.New(sqlDB, log)
	tokens := auth.NewTokenProvider(cfg.JWT.Secret, cfg.JWT.Expires)
	devices := &repo.DeviceStore{DB: db}
	notifier := push.NewNotifier(devices, cfg.Push.URL, cfg.Push.Timeout, log)
	geocoder := geo.NewGeocoder(cfg.Geo.URL, cfg.Geo.UserAgent, cfg.Geo.Timeout, log)
	photos := &upload.PhotoStore{Dir: cfg.UploadDir}

	h := handlers.New(gateway, tokens, notifier, devices, geocoder, photos,
		func(ctx context.Context) (time.Duration, error) { return repo.Ping(ctx, db) },
		cfg.Env)

	router := gin.New()
	httpapi.RegisterRoutes(router, h, tokens, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// newLogger builds the process logger from config: leveled, UTC timestamps,
// optionally pretty for local development.
func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var log zerolog.Logger
	if cfg.LogPretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("service", "aml-api").Logger()
}
