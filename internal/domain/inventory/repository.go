package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// StockLevelRepository defines the persistence interface for stock levels
type StockLevelRepository interface {
	shared.Repository[StockLevel]

	// FindByProductAndLocation loads the stock level for one product at one location
	FindByProductAndLocation(ctx context.Context, productID, locationID uuid.UUID) (*StockLevel, error)

	// GetOrCreate loads the stock level, creating an empty row when none
	// exists. Creation must be race-safe against concurrent callers.
	GetOrCreate(ctx context.Context, productID, locationID uuid.UUID) (*StockLevel, error)

	// FindByLocation lists stock levels at a location
	FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]StockLevel, error)
}

// StockMovementRepository defines the persistence interface for the movement journal
type StockMovementRepository interface {
	// Save appends a movement record. Movements are never updated.
	Save(ctx context.Context, movement *StockMovement) error

	// FindBySource lists movements originating from one source document
	FindBySource(ctx context.Context, sourceType SourceType, sourceID string) ([]StockMovement, error)

	// FindByProduct lists movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
}
