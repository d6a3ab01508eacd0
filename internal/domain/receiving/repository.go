package receiving

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// OrderRepository defines the persistence interface for orders
type OrderRepository interface {
	shared.Repository[Order]

	// FindByIDForUpdate loads an order and its lines under a row lock.
	// The engine holds this lock for the duration of a receipt application
	// so concurrent batches against the same order serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber loads an order by its business key
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByState lists orders in a given state
	FindByState(ctx context.Context, state OrderState, filter shared.Filter) ([]Order, error)
}
