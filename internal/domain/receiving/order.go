package receiving

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderState represents the lifecycle state of an order
type OrderState string

const (
	OrderStateDraft     OrderState = "DRAFT"
	OrderStateSent      OrderState = "SENT"
	OrderStateReceiving OrderState = "RECEIVING"
	OrderStatePartial   OrderState = "PARTIAL"
	OrderStateReceived  OrderState = "RECEIVED"
	OrderStateCancelled OrderState = "CANCELLED"
)

// IsValid checks if the state is a valid OrderState
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateSent, OrderStateReceiving,
		OrderStatePartial, OrderStateReceived, OrderStateCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state.
// Transitions are monotonic except the administrative SENT -> DRAFT revert.
func (s OrderState) CanTransitionTo(target OrderState) bool {
	switch s {
	case OrderStateDraft:
		return target == OrderStateSent || target == OrderStateCancelled
	case OrderStateSent:
		return target == OrderStateReceiving || target == OrderStateCancelled || target == OrderStateDraft
	case OrderStateReceiving:
		return target == OrderStateReceiving || target == OrderStatePartial || target == OrderStateReceived
	case OrderStatePartial, OrderStateReceived, OrderStateCancelled:
		return false // Terminal states
	}
	return false
}

// CanReceive returns true if receipts may be applied in this state
func (s OrderState) CanReceive() bool {
	return s == OrderStateSent || s == OrderStateReceiving
}

// IsTerminal returns true if the state is terminal
func (s OrderState) IsTerminal() bool {
	return s == OrderStatePartial || s == OrderStateReceived || s == OrderStateCancelled
}

// LineStatus represents the receipt status of a single line item
type LineStatus string

const (
	LineStatusPending  LineStatus = "PENDING"
	LineStatusPartial  LineStatus = "PARTIAL"
	LineStatusReceived LineStatus = "RECEIVED"
)

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// LineStatusFor computes the line status from planned and received quantity.
// It is a pure function of its inputs: RECEIVED when the count covers the
// plan (over-delivery included), PARTIAL when some but not all of the plan
// is covered, PENDING when nothing has been counted.
func LineStatusFor(planned, received decimal.Decimal) LineStatus {
	switch {
	case received.LessThanOrEqual(decimal.Zero):
		return LineStatusPending
	case received.LessThan(planned):
		return LineStatusPartial
	default:
		return LineStatusReceived
	}
}

// LineItem represents one product's planned vs. received quantity within an order.
// A product appears at most once per order; duplicate submissions are merged
// before they ever reach a line item.
type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_order_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_order_product,priority:2"`
	PlannedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReceivedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DamagedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Quantity already credited to on-hand stock
	Status      LineStatus      `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Finalized   bool            `gorm:"not null;default:false"`
	Unexpected  bool            `gorm:"not null;default:false"` // Added during receiving, not on the original order
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "order_line_items"
}

// NewLineItem creates a new planned line item
func NewLineItem(orderID, productID uuid.UUID, plannedQty decimal.Decimal) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if plannedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Planned quantity must be positive")
	}

	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		PlannedQty:  plannedQty,
		ReceivedQty: decimal.Zero,
		DamagedQty:  decimal.Zero,
		CreditedQty: decimal.Zero,
		Status:      LineStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// newUnexpectedLineItem creates a line item for a product counted during
// receiving that was not on the original order. plannedQty may be zero.
func newUnexpectedLineItem(orderID, productID uuid.UUID, plannedQty decimal.Decimal) *LineItem {
	now := time.Now()
	if plannedQty.IsNegative() {
		plannedQty = decimal.Zero
	}
	return &LineItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		PlannedQty:  plannedQty,
		ReceivedQty: decimal.Zero,
		DamagedQty:  decimal.Zero,
		CreditedQty: decimal.Zero,
		Status:      LineStatusPending,
		Unexpected:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// InScope returns true if the line participates in the pending-count scan
func (l *LineItem) InScope() bool {
	return l.PlannedQty.GreaterThan(decimal.Zero) || l.Unexpected
}

// Settled returns true once no further counts are expected for the line:
// either the plan is fully covered or a finalized count pinned it. A
// partially counted, non-finalized line is not settled; later batches may
// still accumulate onto it.
func (l *LineItem) Settled() bool {
	return l.Finalized || l.Status == LineStatusReceived
}

// IsOverDelivered returns true if more was received than planned
func (l *LineItem) IsOverDelivered() bool {
	return l.PlannedQty.GreaterThan(decimal.Zero) && l.ReceivedQty.GreaterThan(l.PlannedQty)
}

// RemainingQty returns the quantity still expected, floored at zero
func (l *LineItem) RemainingQty() decimal.Decimal {
	remaining := l.PlannedQty.Sub(l.ReceivedQty)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CreditableQty returns the quantity eligible for on-hand stock credit:
// everything received minus damaged units, floored at zero. Damaged units
// are tracked but never added to sellable stock.
func (l *LineItem) CreditableQty() decimal.Decimal {
	creditable := l.ReceivedQty.Sub(l.DamagedQty)
	if creditable.IsNegative() {
		return decimal.Zero
	}
	return creditable
}

// UncreditedQty returns the creditable quantity not yet credited to stock
func (l *LineItem) UncreditedQty() decimal.Decimal {
	delta := l.CreditableQty().Sub(l.CreditedQty)
	if delta.IsNegative() {
		return decimal.Zero
	}
	return delta
}

// MarkCredited records that the full creditable quantity has been applied
// to on-hand stock. Subsequent credits only apply the delta beyond this.
func (l *LineItem) MarkCredited() {
	l.CreditedQty = l.CreditableQty()
	l.UpdatedAt = time.Now()
}

// applyCount applies an effective merged count to the line.
// A finalized count replaces the accumulated quantity outright and pins the
// line; a non-finalized count accumulates. A finalized line rejects further
// accumulation, only replacement.
func (l *LineItem) applyCount(qty, damaged decimal.Decimal, finalized bool) error {
	if qty.IsNegative() || damaged.IsNegative() {
		return shared.ErrValidation.WithDetail("product_id", l.ProductID.String())
	}

	if finalized {
		l.ReceivedQty = qty
		l.DamagedQty = damaged
		l.Finalized = true
	} else {
		if l.Finalized {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Line for product %s is finalized and only accepts finalized replacements", l.ProductID)).
				WithDetail("product_id", l.ProductID.String())
		}
		l.ReceivedQty = l.ReceivedQty.Add(qty)
		l.DamagedQty = l.DamagedQty.Add(damaged)
	}

	l.Status = LineStatusFor(l.PlannedQty, l.ReceivedQty)
	l.UpdatedAt = time.Now()
	return nil
}

// LineApplication describes the result of applying one effective line to an order
type LineApplication struct {
	Line          *LineItem
	Created       bool            // A line was created for an unexpected product
	OverDelivered bool            // The applied count pushed the line past its plan
	PreviousQty   decimal.Decimal // ReceivedQty before this application
}

// Order represents a purchase order or stock transfer awaiting receipt at a
// destination location. It is the aggregate root for receiving; all state
// changes flow through the reconciliation engine.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber           string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	State                 OrderState `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SourceLocationID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	DestinationLocationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AllowUnexpected       bool       `gorm:"not null;default:false"` // Whether receiving may add products not on the order
	Lines                 []LineItem `gorm:"foreignKey:OrderID;references:ID"`
	Remark                string     `gorm:"type:varchar(500)"`
	ShippedAt             *time.Time
	ClosedAt              *time.Time
	CancelledAt           *time.Time
	CancelReason          string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in DRAFT state
func NewOrder(orderNumber string, sourceLocationID, destinationLocationID uuid.UUID, allowUnexpected bool) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if sourceLocationID == uuid.Nil || destinationLocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Source and destination locations are required")
	}
	if sourceLocationID == destinationLocationID {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Source and destination locations must differ")
	}

	order := &Order{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		OrderNumber:           orderNumber,
		State:                 OrderStateDraft,
		SourceLocationID:      sourceLocationID,
		DestinationLocationID: destinationLocationID,
		AllowUnexpected:       allowUnexpected,
		Lines:                 make([]LineItem, 0),
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// AddLine adds a planned line to the order. Only allowed in DRAFT state.
func (o *Order) AddLine(productID uuid.UUID, plannedQty decimal.Decimal) (*LineItem, error) {
	if o.State != OrderStateDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft order")
	}
	if o.FindLine(productID) != nil {
		return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists on order")
	}

	line, err := NewLineItem(o.ID, productID, plannedQty)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, *line)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return line, nil
}

// SetRemark sets the order remark
func (o *Order) SetRemark(remark string) {
	o.Remark = remark
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// Ship marks the order as shipped from the source location (DRAFT -> SENT)
func (o *Order) Ship() error {
	if !o.State.CanTransitionTo(OrderStateSent) {
		return shared.ErrInvalidState.WithDetail("state", o.State.String())
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot ship an order without lines")
	}

	now := time.Now()
	o.State = OrderStateSent
	o.ShippedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderShippedEvent(o))

	return nil
}

// BeginReceiving transitions a SENT order to RECEIVING. Called by the
// engine as the first step of applying a receipt; a no-op when already
// RECEIVING.
func (o *Order) BeginReceiving() error {
	if o.State == OrderStateReceiving {
		return nil
	}
	if !o.State.CanTransitionTo(OrderStateReceiving) {
		return shared.ErrInvalidState.WithDetail("state", o.State.String())
	}

	o.State = OrderStateReceiving
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// Cancel cancels the order. Allowed only before any receiving has started.
func (o *Order) Cancel(reason string) error {
	if !o.State.CanTransitionTo(OrderStateCancelled) {
		return shared.ErrInvalidState.WithDetail("state", o.State.String())
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	o.State = OrderStateCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o))

	return nil
}

// RevertToDraft performs the administrative SENT -> DRAFT revert
func (o *Order) RevertToDraft() error {
	if o.State != OrderStateSent {
		return shared.ErrInvalidState.WithDetail("state", o.State.String())
	}

	o.State = OrderStateDraft
	o.ShippedAt = nil
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderRevertedEvent(o))

	return nil
}

// FindLine returns the line item for a product, or nil
func (o *Order) FindLine(productID uuid.UUID) *LineItem {
	for idx := range o.Lines {
		if o.Lines[idx].ProductID == productID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// ApplyEffectiveLine applies one merged effective line to the order. A line
// is created when the product is not on the order and the order permits
// unexpected additions. Over-delivery is reported, not rejected.
func (o *Order) ApplyEffectiveLine(eff EffectiveLine) (*LineApplication, error) {
	if !o.State.CanReceive() {
		return nil, shared.ErrInvalidState.WithDetail("state", o.State.String())
	}

	line := o.FindLine(eff.ProductID)
	created := false
	if line == nil {
		if !o.AllowUnexpected {
			return nil, shared.ErrUnexpectedProduct.WithDetail("product_id", eff.ProductID.String())
		}
		o.Lines = append(o.Lines, *newUnexpectedLineItem(o.ID, eff.ProductID, eff.PlannedSeen))
		line = &o.Lines[len(o.Lines)-1]
		created = true
	}

	prev := line.ReceivedQty
	if err := line.applyCount(eff.Qty, eff.Damaged, eff.Finalized); err != nil {
		return nil, err
	}

	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return &LineApplication{
		Line:          line,
		Created:       created,
		OverDelivered: line.IsOverDelivered(),
		PreviousQty:   prev,
	}, nil
}

// PendingCount returns the number of in-scope lines not yet settled. A line
// with a partial, non-finalized count stays pending so follow-up batches can
// accumulate onto it.
func (o *Order) PendingCount() int {
	count := 0
	for idx := range o.Lines {
		if o.Lines[idx].InScope() && !o.Lines[idx].Settled() {
			count++
		}
	}
	return count
}

// CountedLineExists returns true if at least one line has a positive count
func (o *Order) CountedLineExists() bool {
	for idx := range o.Lines {
		if o.Lines[idx].ReceivedQty.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// AllInScopeReceived returns true if every in-scope line is fully received
func (o *Order) AllInScopeReceived() bool {
	any := false
	for idx := range o.Lines {
		if !o.Lines[idx].InScope() {
			continue
		}
		any = true
		if o.Lines[idx].Status != LineStatusReceived {
			return false
		}
	}
	return any
}

// Confidence returns the fraction of in-scope lines no longer PENDING,
// rounded to 4 places. Closed orders report 1.
func (o *Order) Confidence() decimal.Decimal {
	if o.State.IsTerminal() {
		return decimal.NewFromInt(1)
	}
	total := 0
	settled := 0
	for idx := range o.Lines {
		if !o.Lines[idx].InScope() {
			continue
		}
		total++
		if o.Lines[idx].Status != LineStatusPending {
			settled++
		}
	}
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(settled)).Div(decimal.NewFromInt(int64(total))).Round(4)
}

// ResolveOutcome decides and applies the order's post-receipt state.
// While any in-scope line is unsettled the order stays RECEIVING unless
// forceComplete is set; forceComplete is the only path that closes an order
// with unsettled lines and requires at least one counted line. Once every
// in-scope line is settled the order closes as RECEIVED when every line is
// fully received, else PARTIAL (some lines pinned short by finalized counts).
func (o *Order) ResolveOutcome(forceComplete bool) (ReceiptOutcome, error) {
	if o.State != OrderStateReceiving {
		return "", shared.ErrInvalidState.WithDetail("state", o.State.String())
	}

	pending := o.PendingCount()

	if pending > 0 && !forceComplete {
		return OutcomePending, nil
	}
	if !o.CountedLineExists() {
		if forceComplete {
			return "", shared.NewDomainError("NOTHING_COUNTED", "Cannot force-complete an order with no counted lines")
		}
		return OutcomePending, nil
	}

	now := time.Now()
	if pending == 0 && o.AllInScopeReceived() {
		o.State = OrderStateReceived
		o.ClosedAt = &now
		o.UpdatedAt = now
		o.IncrementVersion()
		o.AddDomainEvent(NewOrderClosedEvent(o, OutcomeReceived))
		return OutcomeReceived, nil
	}

	o.State = OrderStatePartial
	o.ClosedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderClosedEvent(o, OutcomePartial))
	return OutcomePartial, nil
}

// IsDraft returns true if the order is in DRAFT state
func (o *Order) IsDraft() bool {
	return o.State == OrderStateDraft
}

// IsClosed returns true if the order reached a receiving outcome
func (o *Order) IsClosed() bool {
	return o.State == OrderStatePartial || o.State == OrderStateReceived
}
