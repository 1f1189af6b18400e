// Command server runs the SMS webhook receiver: a single-binary HTTP
// service that accepts forwarded SMS deliveries, extracts UPI credit
// transaction details, keeps a bounded in-memory history, and appends
// eligible notifications to a SQLite sink.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/config"
	"github.com/tbourn/go-sms-webhook/internal/history"
	httpapi "github.com/tbourn/go-sms-webhook/internal/http"
	"github.com/tbourn/go-sms-webhook/internal/observability"
	"github.com/tbourn/go-sms-webhook/internal/repo"
	"github.com/tbourn/go-sms-webhook/internal/sysutil"
)

// version is set via -ldflags at build time.
var version = "dev"

// @title       SMS Webhook Receiver API
// @version     1.0
// @description Webhook receiver that ingests forwarded SMS messages and extracts UPI credit transaction details.
// @BasePath    /
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Console logs before config validation so a bad env still prints nicely.
	if sysutil.IsTruthy(os.Getenv("LOG_PRETTY")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)

	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting sms-webhook receiver")

	ctx := context.Background()

	// Tracing (no-op unless OTEL_ENABLED)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// Persistence sink. The receiver degrades to in-memory only when the
	// sink cannot be opened; the webhook must keep answering either way.
	db, err := openSink(cfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("persistence unavailable, running in-memory only")
		db = nil
	}

	hist := history.New(cfg.HistorySize)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, hist, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openSink opens and migrates the SQLite sink, honoring PERSIST_ENABLED.
func openSink(cfg config.Config) (db *gorm.DB, err error) {
	if !cfg.PersistEnabled {
		log.Info().Msg("persistence disabled by configuration")
		return nil, nil
	}
	db, err = repo.OpenSQLite(cfg.DBPath, repo.Options{Trace: cfg.OTEL.Enabled})
	if err != nil {
		return nil, err
	}
	if err = repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
