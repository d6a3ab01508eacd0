package receiving

import (
	"github.com/retailops/backoffice/internal/domain/shared"
)

// Event type constants for the receiving domain
const (
	EventTypeOrderCreated        = "receiving.order.created"
	EventTypeOrderShipped        = "receiving.order.shipped"
	EventTypeOrderCancelled      = "receiving.order.cancelled"
	EventTypeOrderReverted       = "receiving.order.reverted"
	EventTypeOrderReceiptApplied = "receiving.order.receipt_applied"
	EventTypeOrderClosed         = "receiving.order.closed"
)

// OrderCreatedEvent is published when an order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber           string `json:"order_number"`
	SourceLocationID      string `json:"source_location_id"`
	DestinationLocationID string `json:"destination_location_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeOrderCreated, "Order", order.ID),
		OrderNumber:           order.OrderNumber,
		SourceLocationID:      order.SourceLocationID.String(),
		DestinationLocationID: order.DestinationLocationID.String(),
	}
}

// OrderShippedEvent is published when an order leaves the source location
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderNumber           string `json:"order_number"`
	DestinationLocationID string `json:"destination_location_id"`
	LineCount             int    `json:"line_count"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(order *Order) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeOrderShipped, "Order", order.ID),
		OrderNumber:           order.OrderNumber,
		DestinationLocationID: order.DestinationLocationID.String(),
		LineCount:             len(order.Lines),
	}
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, "Order", order.ID),
		OrderNumber:     order.OrderNumber,
		Reason:          order.CancelReason,
	}
}

// OrderRevertedEvent is published on the administrative SENT -> DRAFT revert
type OrderRevertedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
}

// NewOrderRevertedEvent creates a new OrderRevertedEvent
func NewOrderRevertedEvent(order *Order) *OrderRevertedEvent {
	return &OrderRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReverted, "Order", order.ID),
		OrderNumber:     order.OrderNumber,
	}
}

// OrderReceiptAppliedEvent is published after a receipt batch has been
// applied, whether or not the order closed
type OrderReceiptAppliedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string         `json:"order_number"`
	Outcome      ReceiptOutcome `json:"outcome"`
	PendingCount int            `json:"pending_count"`
	ActorID      string         `json:"actor_id"`
}

// NewOrderReceiptAppliedEvent creates a new OrderReceiptAppliedEvent
func NewOrderReceiptAppliedEvent(order *Order, outcome ReceiptOutcome, pendingCount int, actorID string) *OrderReceiptAppliedEvent {
	return &OrderReceiptAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReceiptApplied, "Order", order.ID),
		OrderNumber:     order.OrderNumber,
		Outcome:         outcome,
		PendingCount:    pendingCount,
		ActorID:         actorID,
	}
}

// OrderClosedEvent is published when an order reaches PARTIAL or RECEIVED
type OrderClosedEvent struct {
	shared.BaseDomainEvent
	OrderNumber           string         `json:"order_number"`
	Outcome               ReceiptOutcome `json:"outcome"`
	DestinationLocationID string         `json:"destination_location_id"`
}

// NewOrderClosedEvent creates a new OrderClosedEvent
func NewOrderClosedEvent(order *Order, outcome ReceiptOutcome) *OrderClosedEvent {
	return &OrderClosedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeOrderClosed, "Order", order.ID),
		OrderNumber:           order.OrderNumber,
		Outcome:               outcome,
		DestinationLocationID: order.DestinationLocationID.String(),
	}
}
