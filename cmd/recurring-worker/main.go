package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soletax/internal/amqp"
	"soletax/internal/config"
	applog "soletax/internal/log"
	"soletax/internal/services"
	"soletax/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without a broker the worker still generates
	// entries, it just publishes no events.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP client initialized")
		}
	} else {
		logger.Info("AMQP disabled, generated expenses will not publish events")
	}

	recurring := services.NewRecurringService(repo, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring expense worker configured",
		"interval", cfg.GenerateInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.GenerateInterval)
	defer ticker.Stop()

	runOnce := func(now time.Time) {
		result, err := recurring.GenerateDue(ctx, now)
		if err != nil {
			logger.Error("Generation run failed", applog.FieldError, err)
			return
		}
		logger.Info("Generation run complete",
			applog.FieldGenerated, result.Generated,
			applog.FieldSkipped, result.Skipped,
			"next_check", now.Add(cfg.GenerateInterval).Format("15:04:05"))
	}

	// Run an initial pass on startup, then on every tick.
	logger.Info("Running initial generation pass...")
	runOnce(time.Now())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Processing due recurring expenses...")
				runOnce(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Recurring-worker shutdown complete")
}
