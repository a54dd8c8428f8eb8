package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/config"
	"github.com/gymbook/reservation-api/internal/events"
	"github.com/gymbook/reservation-api/internal/logger"
)

// The worker consumes reservation events from RabbitMQ and writes them to the log.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.IsProduction)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	if cfg.RabbitMQURL == "" {
		logg.Fatal("RABBITMQ_URL is required for the worker")
	}

	consumer := events.NewConsumer(cfg.RabbitMQURL, events.LogHandler(logg), logg)

	logg.Info("worker started", zap.String("queue", events.QueueName))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Fatal("worker stopped", zap.Error(err))
	}
	logg.Info("worker exited gracefully")
}
