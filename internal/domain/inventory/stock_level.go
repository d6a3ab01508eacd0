package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockLevel is the projected on-hand quantity of one product at one
// location. It is a projection fed exclusively by closed receiving orders
// and manual adjustments; it never goes through an order's open lifecycle.
type StockLevel struct {
	shared.BaseAggregateRoot
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:1"`
	LocationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:2"`
	OnHandQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DamagedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Held separately, never sellable
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates an empty stock level record
func NewStockLevel(productID, locationID uuid.UUID) (*StockLevel, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	return &StockLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		LocationID:        locationID,
		OnHandQty:         decimal.Zero,
		DamagedQty:        decimal.Zero,
	}, nil
}

// Credit adds received quantity to on-hand stock and returns the movement
// record for the journal. Damaged units are booked into the damaged bucket.
func (s *StockLevel) Credit(sellable, damaged decimal.Decimal, sourceID string) (*StockMovement, error) {
	if sellable.IsNegative() || damaged.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Credit quantities cannot be negative")
	}
	if sellable.IsZero() && damaged.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Nothing to credit")
	}

	before := s.OnHandQty
	s.OnHandQty = s.OnHandQty.Add(sellable)
	s.DamagedQty = s.DamagedQty.Add(damaged)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return NewStockMovement(
		s.ID, s.ProductID, s.LocationID,
		MovementTypeReceipt,
		sellable, damaged,
		before, s.OnHandQty,
		SourceTypeOrder, sourceID,
	)
}

// Adjust applies a signed manual correction to on-hand stock
func (s *StockLevel) Adjust(delta decimal.Decimal, sourceID, reason string) (*StockMovement, error) {
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	after := s.OnHandQty.Add(delta)
	if after.IsNegative() {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Adjustment would drive on-hand stock negative")
	}

	before := s.OnHandQty
	s.OnHandQty = after
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	movementType := MovementTypeAdjustmentIncrease
	if delta.IsNegative() {
		movementType = MovementTypeAdjustmentDecrease
	}

	movement, err := NewStockMovement(
		s.ID, s.ProductID, s.LocationID,
		movementType,
		delta.Abs(), decimal.Zero,
		before, s.OnHandQty,
		SourceTypeManualAdjustment, sourceID,
	)
	if err != nil {
		return nil, err
	}
	movement.WithReason(reason)

	return movement, nil
}
