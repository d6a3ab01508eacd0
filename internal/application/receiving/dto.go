package receiving

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/shopspring/decimal"
)

// ==================== Order DTOs ====================

// CreateOrderRequest represents a request to create a receiving order
type CreateOrderRequest struct {
	OrderNumber           string                 `json:"order_number" binding:"required,min=1,max=50"`
	SourceLocationID      uuid.UUID              `json:"source_location_id" binding:"required"`
	DestinationLocationID uuid.UUID              `json:"destination_location_id" binding:"required"`
	AllowUnexpected       bool                   `json:"allow_unexpected"`
	Lines                 []CreateOrderLineInput `json:"lines" binding:"required,min=1"`
	Remark                string                 `json:"remark"`
}

// CreateOrderLineInput represents one planned line in the create request
type CreateOrderLineInput struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	PlannedQty decimal.Decimal `json:"planned_qty" binding:"required"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search        string     `form:"search"`
	State         string     `form:"state"`
	DestinationID *uuid.UUID `form:"destination_id"`
	Page          int        `form:"page" binding:"min=1"`
	PageSize      int        `form:"page_size" binding:"min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents one line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	PlannedQty  decimal.Decimal `json:"planned_qty"`
	ReceivedQty decimal.Decimal `json:"received_qty"`
	DamagedQty  decimal.Decimal `json:"damaged_qty"`
	CreditedQty decimal.Decimal `json:"credited_qty"`
	Status      string          `json:"status"`
	Finalized   bool            `json:"finalized"`
	Unexpected  bool            `json:"unexpected"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                    uuid.UUID          `json:"id"`
	OrderNumber           string             `json:"order_number"`
	State                 string             `json:"state"`
	SourceLocationID      uuid.UUID          `json:"source_location_id"`
	DestinationLocationID uuid.UUID          `json:"destination_location_id"`
	AllowUnexpected       bool               `json:"allow_unexpected"`
	Lines                 []LineItemResponse `json:"lines"`
	PendingCount          int                `json:"pending_count"`
	Confidence            decimal.Decimal    `json:"confidence"`
	Remark                string             `json:"remark"`
	ShippedAt             *time.Time         `json:"shipped_at,omitempty"`
	ClosedAt              *time.Time         `json:"closed_at,omitempty"`
	CancelledAt           *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason          string             `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	Version               int                `json:"version"`
}

// ToOrderResponse converts an order aggregate to its response DTO
func ToOrderResponse(order *receiving.Order) OrderResponse {
	lines := make([]LineItemResponse, 0, len(order.Lines))
	for idx := range order.Lines {
		line := &order.Lines[idx]
		lines = append(lines, LineItemResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			PlannedQty:  line.PlannedQty,
			ReceivedQty: line.ReceivedQty,
			DamagedQty:  line.DamagedQty,
			CreditedQty: line.CreditedQty,
			Status:      line.Status.String(),
			Finalized:   line.Finalized,
			Unexpected:  line.Unexpected,
		})
	}

	return OrderResponse{
		ID:                    order.ID,
		OrderNumber:           order.OrderNumber,
		State:                 order.State.String(),
		SourceLocationID:      order.SourceLocationID,
		DestinationLocationID: order.DestinationLocationID,
		AllowUnexpected:       order.AllowUnexpected,
		Lines:                 lines,
		PendingCount:          order.PendingCount(),
		Confidence:            order.Confidence(),
		Remark:                order.Remark,
		ShippedAt:             order.ShippedAt,
		ClosedAt:              order.ClosedAt,
		CancelledAt:           order.CancelledAt,
		CancelReason:          order.CancelReason,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
		Version:               order.Version,
	}
}

// ==================== Receipt DTOs ====================

// ReceiptLineInput represents one raw submitted line of a receipt batch
type ReceiptLineInput struct {
	ProductID  uuid.UUID        `json:"product_id" binding:"required"`
	CountedQty *decimal.Decimal `json:"counted_qty"`
	DamagedQty decimal.Decimal  `json:"damaged_qty"`
	PlannedQty decimal.Decimal  `json:"planned_qty"`
	Finalized  bool             `json:"finalized"`
}

// ApplyReceiptRequest represents a receipt batch submission
type ApplyReceiptRequest struct {
	ActorID       string             `json:"actor_id" binding:"required,min=1,max=100"`
	Reference     string             `json:"reference"`
	ForceComplete bool               `json:"force_complete"`
	Lines         []ReceiptLineInput `json:"lines"`
}

// ToBatch converts the request to a domain receipt batch
func (r *ApplyReceiptRequest) ToBatch(orderID uuid.UUID) *receiving.ReceiptBatch {
	lines := make([]receiving.ReceiptLine, 0, len(r.Lines))
	for _, input := range r.Lines {
		lines = append(lines, receiving.ReceiptLine{
			ProductID:  input.ProductID,
			CountedQty: input.CountedQty,
			DamagedQty: input.DamagedQty,
			PlannedQty: input.PlannedQty,
			Finalized:  input.Finalized,
		})
	}
	return &receiving.ReceiptBatch{
		OrderID:       orderID,
		ActorID:       r.ActorID,
		Reference:     r.Reference,
		ForceComplete: r.ForceComplete,
		Lines:         lines,
	}
}

// ReceiptWarning flags a notable condition the receipt produced without failing it
type ReceiptWarning struct {
	Code      string    `json:"code"`
	ProductID uuid.UUID `json:"product_id"`
	Message   string    `json:"message"`
}

// Warning codes reported on receipt application
const (
	WarningOverDelivery      = "OVER_DELIVERY"
	WarningUnexpectedProduct = "UNEXPECTED_PRODUCT"
)

// ApplyReceiptResponse represents the result of applying a receipt batch
type ApplyReceiptResponse struct {
	Order        OrderResponse    `json:"order"`
	Outcome      string           `json:"outcome"`
	PendingCount int              `json:"pending_count"`
	Confidence   decimal.Decimal  `json:"confidence"`
	Warnings     []ReceiptWarning `json:"warnings,omitempty"`
}

// ==================== Audit DTOs ====================

// AuditEventResponse represents one audit trail record in API responses
type AuditEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	OrderID   uuid.UUID      `json:"order_id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id"`
	ProductID *uuid.UUID     `json:"product_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ==================== Stock DTOs ====================

// StockLevelResponse represents a stock level in API responses
type StockLevelResponse struct {
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID uuid.UUID       `json:"location_id"`
	OnHandQty  decimal.Decimal `json:"on_hand_qty"`
	DamagedQty decimal.Decimal `json:"damaged_qty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	Delta      decimal.Decimal `json:"delta" binding:"required"`
	Reference  string          `json:"reference" binding:"required,min=1,max=100"`
	Reason     string          `json:"reason" binding:"required,min=1,max=255"`
}
