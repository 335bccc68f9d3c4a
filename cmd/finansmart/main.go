package main

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finansmart/internal/advisor"
	"finansmart/internal/amqp"
	"finansmart/internal/auth"
	"finansmart/internal/config"
	"finansmart/internal/core"
	apphttp "finansmart/internal/http"
	"finansmart/internal/ledger"
	"finansmart/internal/log"
	"finansmart/internal/services"
	"finansmart/internal/session"
	"finansmart/internal/sharing"
	"finansmart/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The change feed is optional. Without a broker the API still works,
	// only the snapshot worker stays idle.
	var publisher services.ChangePublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	ledgerSvc := services.NewLedgerService(ledger.NewStore(), repo, publisher, logger)

	resolver := sharing.NewResolver(repo, logger)
	resolver.Load(context.Background())

	sessions := session.NewManager(cfg.SessionIdleTimeout, logger)

	advisorClient := advisor.NewClient(
		cfg.AdvisorEndpoint, cfg.AdvisorModel, cfg.AdvisorAPIKey, cfg.AdvisorTimeout, logger)

	seriesOpts := core.TimeSeriesOptions{MaxPoints: cfg.TimeSeriesPoints}
	if cfg.TimeSeriesMode == config.TimeSeriesModeLabeled {
		seriesOpts = core.TimeSeriesOptions{DayMonthLabels: true}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:       ":" + cfg.Port,
		Auth:       auth.NewService(repo, logger),
		Ledger:     ledgerSvc,
		Sharing:    resolver,
		Sessions:   sessions,
		Advisor:    advisorClient,
		Logger:     logger,
		SeriesOpts: seriesOpts,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting finansmart server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()

	// Let in-flight partition writes land before closing the database.
	ledgerSvc.Flush()
	resolver.Flush()
	logger.Info("Server stopped gracefully")
}
