package receiving

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// OrderShippedHandler notifies the destination location that goods are on
// the way so receiving staff can be scheduled before the truck arrives.
type OrderShippedHandler struct {
	enqueuer NotificationEnqueuer
	logger   *zap.Logger
}

// NewOrderShippedHandler creates a new handler for order shipped events
func NewOrderShippedHandler(enqueuer NotificationEnqueuer, logger *zap.Logger) *OrderShippedHandler {
	return &OrderShippedHandler{
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderShippedHandler) EventTypes() []string {
	return []string{receiving.EventTypeOrderShipped}
}

// Handle processes an OrderShippedEvent
func (h *OrderShippedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	shippedEvent, ok := event.(*receiving.OrderShippedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", receiving.EventTypeOrderShipped),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			receiving.EventTypeOrderShipped, event.EventType())
	}

	notification := Notification{
		Kind:                  NotificationOrderShipped,
		OrderID:               shippedEvent.AggregateID().String(),
		OrderNumber:           shippedEvent.OrderNumber,
		DestinationLocationID: shippedEvent.DestinationLocationID,
		Priority:              PriorityNormal,
		Recipients:            []string{"receiving-dock"},
	}

	entryID, err := h.enqueuer.Enqueue(ctx, notification)
	if err != nil {
		h.logger.Error("failed to enqueue order shipped notification",
			zap.String("order_id", notification.OrderID),
			zap.String("order_number", notification.OrderNumber),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("order shipped notification enqueued",
		zap.String("queue_entry_id", entryID),
		zap.String("order_number", notification.OrderNumber),
	)
	return nil
}

// Ensure OrderShippedHandler implements EventHandler
var _ shared.EventHandler = (*OrderShippedHandler)(nil)
