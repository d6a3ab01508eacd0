package receiving

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptOutcome is the result of applying a receipt batch to an order
type ReceiptOutcome string

const (
	// OutcomePending means the order stays open in RECEIVING
	OutcomePending ReceiptOutcome = "PENDING"
	// OutcomePartial means the order closed with unmet plan
	OutcomePartial ReceiptOutcome = "PARTIAL"
	// OutcomeReceived means the order closed with every planned line covered
	OutcomeReceived ReceiptOutcome = "RECEIVED"
)

// String returns the string representation of ReceiptOutcome
func (o ReceiptOutcome) String() string {
	return string(o)
}

// IsClosing returns true if the outcome closes the order
func (o ReceiptOutcome) IsClosing() bool {
	return o == OutcomePartial || o == OutcomeReceived
}

// ReceiptLine is one raw submitted line of a receipt batch. CountedQty is
// nil when the device reported the product without a count; PlannedQty is
// the plan as the submitting client saw it, used only to detect stale or
// understated client state.
type ReceiptLine struct {
	ProductID  uuid.UUID
	CountedQty *decimal.Decimal
	DamagedQty decimal.Decimal
	PlannedQty decimal.Decimal
	Finalized  bool
}

// ReceiptBatch is one submission of counted quantities against an order.
// A batch may contain duplicate products; duplicates are merged into a
// single effective line before anything is applied.
type ReceiptBatch struct {
	OrderID       uuid.UUID
	ActorID       string
	Reference     string
	ForceComplete bool
	Lines         []ReceiptLine
}

// EffectiveLine is the merged, validated count for one product
type EffectiveLine struct {
	ProductID   uuid.UUID
	Qty         decimal.Decimal
	Damaged     decimal.Decimal
	Finalized   bool
	PlannedSeen decimal.Decimal // Max planned quantity any duplicate carried
}

// EffectiveSet is the merge result for a whole batch, in first-seen product order
type EffectiveSet struct {
	Lines []EffectiveLine
}
