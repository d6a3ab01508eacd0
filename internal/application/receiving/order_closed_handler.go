package receiving

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// Notification is one outbound message about a receiving result
type Notification struct {
	Kind                  string   `json:"kind"`
	OrderID               string   `json:"order_id"`
	OrderNumber           string   `json:"order_number"`
	Outcome               string   `json:"outcome,omitempty"`
	DestinationLocationID string   `json:"destination_location_id,omitempty"`
	Priority              string   `json:"priority"`
	Recipients            []string `json:"recipients"`
}

// Notification kinds
const (
	NotificationOrderClosed  = "order_closed"
	NotificationOrderShipped = "order_shipped"
)

// Notification priorities, highest first. The queue drains higher
// priorities ahead of lower ones.
const (
	PriorityUrgent = "URGENT"
	PriorityHigh   = "HIGH"
	PriorityNormal = "NORMAL"
	PriorityLow    = "LOW"
)

// NotificationEnqueuer hands notifications off to the delivery queue and
// returns the queue entry ID. Enqueueing happens after the receiving
// transaction has committed; a failed enqueue never rolls receiving state
// back.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, notification Notification) (string, error)
}

// OrderClosedHandler listens for closed orders and queues notifications to
// downstream consumers (replenishment, finance, the ordering location).
type OrderClosedHandler struct {
	enqueuer NotificationEnqueuer
	logger   *zap.Logger
}

// NewOrderClosedHandler creates a new handler for order closed events
func NewOrderClosedHandler(enqueuer NotificationEnqueuer, logger *zap.Logger) *OrderClosedHandler {
	return &OrderClosedHandler{
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderClosedHandler) EventTypes() []string {
	return []string{receiving.EventTypeOrderClosed}
}

// Handle processes an OrderClosedEvent
func (h *OrderClosedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	closedEvent, ok := event.(*receiving.OrderClosedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", receiving.EventTypeOrderClosed),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			receiving.EventTypeOrderClosed, event.EventType())
	}

	// A short close means a reconciliation mismatch someone has to look at;
	// a clean close is routine
	priority := PriorityNormal
	recipients := []string{"inventory-control"}
	if closedEvent.Outcome == receiving.OutcomePartial {
		priority = PriorityHigh
		recipients = append(recipients, "finance")
	}

	notification := Notification{
		Kind:                  NotificationOrderClosed,
		OrderID:               closedEvent.AggregateID().String(),
		OrderNumber:           closedEvent.OrderNumber,
		Outcome:               closedEvent.Outcome.String(),
		DestinationLocationID: closedEvent.DestinationLocationID,
		Priority:              priority,
		Recipients:            recipients,
	}

	entryID, err := h.enqueuer.Enqueue(ctx, notification)
	if err != nil {
		// The order is already committed; log and let the queue's retry
		// machinery deal with redelivery
		h.logger.Error("failed to enqueue order closed notification",
			zap.String("order_id", notification.OrderID),
			zap.String("order_number", notification.OrderNumber),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("order closed notification enqueued",
		zap.String("queue_entry_id", entryID),
		zap.String("order_id", notification.OrderID),
		zap.String("order_number", notification.OrderNumber),
		zap.String("outcome", notification.Outcome),
		zap.String("priority", notification.Priority),
	)

	return nil
}

// Ensure OrderClosedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderClosedHandler)(nil)
