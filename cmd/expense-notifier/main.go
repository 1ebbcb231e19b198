// expense-notifier consumes expense generated events and writes a
// notification line per generated entry. It is the sink side of the
// recurring-worker's event stream.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"soletax/internal/amqp"
	"soletax/internal/config"
	"soletax/internal/core"
	applog "soletax/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentAMQP
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting expense-notifier")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := client.ConsumeExpenseGenerated(ctx, func(ev *amqp.ExpenseGeneratedEvent) error {
			logger.Info("Recurring expense generated",
				applog.FieldTemplateID, ev.TemplateID,
				applog.FieldExpenseID, ev.ExpenseID,
				applog.FieldDueDate, ev.Date,
				applog.FieldAmountCents, ev.AmountCents,
				"amount", core.FormatDollars(ev.AmountCents))
			return nil
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
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
	logger.Info("Notifier shutdown complete")
}
