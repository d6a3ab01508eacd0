package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// EventRepository defines the persistence interface for the audit trail.
// The trail is append-only; there is deliberately no update or delete.
type EventRepository interface {
	// Append persists a new audit event
	Append(ctx context.Context, event *Event) error

	// AppendAll persists a batch of audit events in order
	AppendAll(ctx context.Context, events []*Event) error

	// FindByOrder lists events for an order in chronological order
	FindByOrder(ctx context.Context, orderID uuid.UUID, filter shared.Filter) ([]Event, error)

	// CountByOrder counts events recorded for an order
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}
