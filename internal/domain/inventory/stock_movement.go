package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	// MovementTypeReceipt is stock credited from a closed receiving order
	MovementTypeReceipt MovementType = "RECEIPT"
	// MovementTypeAdjustmentIncrease is a positive manual correction
	MovementTypeAdjustmentIncrease MovementType = "ADJUSTMENT_INCREASE"
	// MovementTypeAdjustmentDecrease is a negative manual correction
	MovementTypeAdjustmentDecrease MovementType = "ADJUSTMENT_DECREASE"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeAdjustmentIncrease, MovementTypeAdjustmentDecrease:
		return true
	}
	return false
}

// IsIncrease returns true if this movement type increases on-hand quantity
func (t MovementType) IsIncrease() bool {
	return t == MovementTypeReceipt || t == MovementTypeAdjustmentIncrease
}

// SourceType represents the source document type for a movement
type SourceType string

const (
	// SourceTypeOrder is a receiving order
	SourceTypeOrder SourceType = "ORDER"
	// SourceTypeManualAdjustment is a manual correction
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeOrder, SourceTypeManualAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable journal record of one stock change.
// Corrections are made with new movements, never by editing old ones.
type StockMovement struct {
	shared.BaseEntity
	StockLevelID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_level"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_product"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_location"`
	MovementType  MovementType    `gorm:"type:varchar(30);not null;index:idx_stock_movement_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Always positive, direction from type
	DamagedQty    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand before this movement
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand after this movement
	SourceType    SourceType      `gorm:"type:varchar(30);not null;index:idx_stock_movement_source"`
	SourceID      string          `gorm:"type:varchar(50);not null;index:idx_stock_movement_source"`
	Reference     string          `gorm:"type:varchar(100)"`
	Reason        string          `gorm:"type:varchar(255)"`
	OperatorID    *uuid.UUID      `gorm:"type:uuid"`
	MovementDate  time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new stock movement record
func NewStockMovement(
	stockLevelID uuid.UUID,
	productID uuid.UUID,
	locationID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	damagedQty decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	sourceType SourceType,
	sourceID string,
) (*StockMovement, error) {
	if stockLevelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_LEVEL", "Stock level ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.IsNegative() || damagedQty.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantities cannot be negative")
	}
	if quantity.IsZero() && damagedQty.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement must carry a quantity")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		StockLevelID:  stockLevelID,
		ProductID:     productID,
		LocationID:    locationID,
		MovementType:  movementType,
		Quantity:      quantity,
		DamagedQty:    damagedQty,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		SourceType:    sourceType,
		SourceID:      sourceID,
		MovementDate:  time.Now(),
	}, nil
}

// WithReference sets the reference code for the movement
func (m *StockMovement) WithReference(reference string) *StockMovement {
	m.Reference = reference
	return m
}

// WithReason sets the reason for the movement
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// WithOperatorID sets the operator who performed the movement
func (m *StockMovement) WithOperatorID(operatorID uuid.UUID) *StockMovement {
	m.OperatorID = &operatorID
	return m
}

// SignedQuantity returns the quantity with sign based on movement type
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if !m.MovementType.IsIncrease() {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
