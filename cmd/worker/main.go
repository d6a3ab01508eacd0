package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/infrastructure/config"
	"github.com/retailops/backoffice/internal/infrastructure/logger"
	"github.com/retailops/backoffice/internal/infrastructure/notification"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting notification worker",
		zap.String("queue", cfg.Notification.QueueName),
		zap.Int("concurrency", cfg.Notification.Concurrency),
		zap.String("webhook_url", cfg.Notification.WebhookURL),
	)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv, mux := notification.NewServer(redisOpt, cfg.Notification, log)

	// Run blocks until the server receives SIGINT/SIGTERM; asynq handles
	// graceful worker drain itself, this explicit handler only logs it.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down notification worker...")
	}()

	if err := srv.Run(mux); err != nil {
		log.Fatal("Notification worker failed", zap.Error(err))
	}

	log.Info("Notification worker exited gracefully")
}
