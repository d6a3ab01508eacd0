package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apprecv "github.com/retailops/backoffice/internal/application/receiving"
	"github.com/retailops/backoffice/internal/infrastructure/config"
)

// TaskTypeNotification is the asynq task type for outbound receiving notifications
const TaskTypeNotification = "receiving:notification"

// AsynqEnqueuer implements NotificationEnqueuer on top of an asynq client.
// Tasks survive process restarts in Redis and are retried by the worker
// until delivered or the retry budget runs out.
type AsynqEnqueuer struct {
	client *asynq.Client
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewAsynqEnqueuer creates an enqueuer backed by the given Redis connection
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, cfg config.NotificationConfig, logger *zap.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client: asynq.NewClient(redisOpt),
		cfg:    cfg,
		logger: logger,
	}
}

// QueueForPriority maps a notification priority onto the asynq queue it is
// published to. Unknown or empty priorities land in the normal queue.
func QueueForPriority(base, priority string) string {
	switch priority {
	case apprecv.PriorityUrgent:
		return base + ":urgent"
	case apprecv.PriorityHigh:
		return base + ":high"
	case apprecv.PriorityLow:
		return base + ":low"
	default:
		return base + ":normal"
	}
}

// QueueWeights returns the per-queue processing weights for the worker.
// asynq drains queues proportionally to their weight, so urgent entries are
// picked up ahead of everything else without starving the low queue.
func QueueWeights(base string) map[string]int {
	return map[string]int{
		base + ":urgent": 8,
		base + ":high":   4,
		base + ":normal": 2,
		base + ":low":    1,
	}
}

// Enqueue queues one notification for delivery and returns the queue entry ID
func (e *AsynqEnqueuer) Enqueue(ctx context.Context, notification apprecv.Notification) (string, error) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return "", fmt.Errorf("failed to marshal notification: %w", err)
	}

	task := asynq.NewTask(TaskTypeNotification, payload)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueForPriority(e.cfg.QueueName, notification.Priority)),
		asynq.MaxRetry(e.cfg.MaxRetry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue notification: %w", err)
	}

	e.logger.Debug("notification enqueued",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
		zap.String("kind", notification.Kind),
		zap.String("priority", notification.Priority),
		zap.String("order_number", notification.OrderNumber),
	)
	return info.ID, nil
}

// Close releases the underlying client connection
func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}

// Ensure AsynqEnqueuer implements NotificationEnqueuer
var _ apprecv.NotificationEnqueuer = (*AsynqEnqueuer)(nil)
