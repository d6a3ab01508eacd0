package receiving

import (
	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineMerger collapses a raw receipt batch into one effective line per
// product. Counting devices routinely submit the same product several times
// within a batch (separate pallets, re-scans, corrections); the merger is the
// single place where those duplicates are reconciled.
type LineMerger struct{}

// NewLineMerger creates a line merger
func NewLineMerger() *LineMerger {
	return &LineMerger{}
}

// Merge validates and merges the batch lines into an effective set.
//
// Validation is all-or-nothing: any negative or fractional count anywhere
// in the batch rejects the whole batch, with the offending products listed
// in the error details.
//
// Per product, the last finalized occurrence wins outright; without a
// finalized occurrence the counted quantities accumulate. A product whose
// occurrences carry no count at all and no finalized flag is dropped from
// the set entirely, treating "scanned but never counted" as no submission.
func (m *LineMerger) Merge(batch *ReceiptBatch) (*EffectiveSet, error) {
	var invalid []string
	invalidSeen := make(map[uuid.UUID]bool)
	markInvalid := func(productID uuid.UUID) {
		if !invalidSeen[productID] {
			invalidSeen[productID] = true
			invalid = append(invalid, productID.String())
		}
	}

	type accumulator struct {
		qty         decimal.Decimal
		damaged     decimal.Decimal
		hasCount    bool
		finalized   bool
		plannedSeen decimal.Decimal
	}

	order := make([]uuid.UUID, 0, len(batch.Lines))
	merged := make(map[uuid.UUID]*accumulator)

	for idx := range batch.Lines {
		line := &batch.Lines[idx]
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Batch line without product ID")
		}

		if line.CountedQty != nil && (line.CountedQty.IsNegative() || !isWholeNumber(*line.CountedQty)) {
			markInvalid(line.ProductID)
		}
		if line.DamagedQty.IsNegative() || !isWholeNumber(line.DamagedQty) {
			markInvalid(line.ProductID)
		}

		acc, ok := merged[line.ProductID]
		if !ok {
			acc = &accumulator{}
			merged[line.ProductID] = acc
			order = append(order, line.ProductID)
		}

		if line.PlannedQty.GreaterThan(acc.plannedSeen) {
			acc.plannedSeen = line.PlannedQty
		}

		switch {
		case line.Finalized:
			// Last finalized occurrence replaces everything before it
			acc.finalized = true
			acc.hasCount = true
			if line.CountedQty != nil {
				acc.qty = *line.CountedQty
			} else {
				acc.qty = decimal.Zero
			}
			acc.damaged = line.DamagedQty
		case acc.finalized:
			// Non-finalized occurrences after a finalized one are ignored
		case line.CountedQty != nil:
			acc.qty = acc.qty.Add(*line.CountedQty)
			acc.damaged = acc.damaged.Add(line.DamagedQty)
			acc.hasCount = true
		}
	}

	if len(invalid) > 0 {
		return nil, shared.ErrValidation.WithDetail("product_ids", invalid)
	}

	set := &EffectiveSet{Lines: make([]EffectiveLine, 0, len(order))}
	for _, productID := range order {
		acc := merged[productID]
		if !acc.hasCount {
			continue
		}
		set.Lines = append(set.Lines, EffectiveLine{
			ProductID:   productID,
			Qty:         acc.qty,
			Damaged:     acc.damaged,
			Finalized:   acc.finalized,
			PlannedSeen: acc.plannedSeen,
		})
	}

	return set, nil
}

func isWholeNumber(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}
