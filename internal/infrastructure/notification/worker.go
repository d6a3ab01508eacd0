package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apprecv "github.com/retailops/backoffice/internal/application/receiving"
	"github.com/retailops/backoffice/internal/infrastructure/config"
)

// WebhookDeliverer delivers queued notifications to the configured
// downstream endpoint. Transient HTTP failures are retried in-process with
// exponential backoff; when those retries are exhausted the error is
// returned so asynq reschedules the task.
type WebhookDeliverer struct {
	cfg    config.NotificationConfig
	client *http.Client
	logger *zap.Logger
}

// NewWebhookDeliverer creates a deliverer for the configured webhook
func NewWebhookDeliverer(cfg config.NotificationConfig, logger *zap.Logger) *WebhookDeliverer {
	return &WebhookDeliverer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// ProcessTask handles one notification task from the queue
func (d *WebhookDeliverer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var notification apprecv.Notification
	if err := json.Unmarshal(task.Payload(), &notification); err != nil {
		// A payload that cannot be decoded will never succeed; skip retries
		d.logger.Error("undecodable notification payload", zap.Error(err))
		return fmt.Errorf("unmarshal notification: %v: %w", err, asynq.SkipRetry)
	}

	if d.cfg.WebhookURL == "" {
		d.logger.Warn("webhook url not configured, dropping notification",
			zap.String("kind", notification.Kind),
			zap.String("order_number", notification.OrderNumber),
		)
		return nil
	}

	operation := func() error {
		return d.deliver(ctx, task.Payload())
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(d.cfg.RetryInterval),
	), 3), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		d.logger.Error("notification delivery failed",
			zap.String("kind", notification.Kind),
			zap.String("order_number", notification.OrderNumber),
			zap.Error(err),
		)
		return err
	}

	d.logger.Info("notification delivered",
		zap.String("kind", notification.Kind),
		zap.String("order_number", notification.OrderNumber),
	)
	return nil
}

// deliver performs a single webhook POST
func (d *WebhookDeliverer) deliver(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// The endpoint rejected the payload; retrying the same bytes will
		// not change its mind
		return backoff.Permanent(fmt.Errorf("webhook rejected notification: status %d", resp.StatusCode))
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}

// NewServer builds the asynq server and routing for notification delivery
func NewServer(redisOpt asynq.RedisClientOpt, cfg config.NotificationConfig, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      QueueWeights(cfg.QueueName),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeNotification, NewWebhookDeliverer(cfg, logger))
	return srv, mux
}
