package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// Action identifies what happened to an order
type Action string

const (
	ActionReceiptApplied    Action = "receipt_applied"
	ActionPartialProgress   Action = "partial_progress"
	ActionOverDelivery      Action = "over_delivery"
	ActionUnexpectedProduct Action = "unexpected_product"
	ActionOrderShipped      Action = "order_shipped"
	ActionOrderClosed       Action = "order_closed"
	ActionOrderCancelled    Action = "order_cancelled"
	ActionOrderReverted     Action = "order_reverted"
)

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is a known audit action
func (a Action) IsValid() bool {
	switch a {
	case ActionReceiptApplied, ActionPartialProgress, ActionOverDelivery,
		ActionUnexpectedProduct, ActionOrderShipped, ActionOrderClosed,
		ActionOrderCancelled, ActionOrderReverted:
		return true
	}
	return false
}

// Event is one append-only audit trail record. Events are never updated
// or deleted; the trail is the authoritative history of every receiving
// decision, including the ones that look wrong in hindsight.
type Event struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_order_time,priority:1"`
	Action    Action     `gorm:"type:varchar(40);not null;index"`
	ActorID   string     `gorm:"type:varchar(100);not null"`
	ProductID *uuid.UUID `gorm:"type:uuid;index"`
	Payload   []byte     `gorm:"type:jsonb"` // Before/after snapshots and action-specific detail
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;index:idx_audit_order_time,priority:2"`
}

// TableName returns the table name for GORM
func (Event) TableName() string {
	return "audit_events"
}

// NewEvent creates a new audit event
func NewEvent(orderID uuid.UUID, action Action, actorID string, payload map[string]any) (*Event, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Unknown audit action")
	}
	if actorID == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, shared.ErrValidation.WithDetail("payload", err.Error())
		}
		body = encoded
	}

	return &Event{
		ID:        uuid.New(),
		OrderID:   orderID,
		Action:    action,
		ActorID:   actorID,
		Payload:   body,
		CreatedAt: time.Now(),
	}, nil
}

// WithProduct attaches the product the event is about
func (e *Event) WithProduct(productID uuid.UUID) *Event {
	e.ProductID = &productID
	return e
}

// DecodePayload unmarshals the payload into a map
func (e *Event) DecodePayload() (map[string]any, error) {
	if len(e.Payload) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
