package receiving

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/backoffice/internal/domain/shared"
)

func qty(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// effectiveByProduct keys the effective set by product, with decimals rendered
// as strings so equality ignores exponent representation.
func effectiveByProduct(set *EffectiveSet) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(set.Lines))
	for _, line := range set.Lines {
		out[line.ProductID] = fmt.Sprintf("qty=%s damaged=%s finalized=%t planned=%s",
			line.Qty, line.Damaged, line.Finalized, line.PlannedSeen)
	}
	return out
}

func qtyFromFloat(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestLineMerger_Merge(t *testing.T) {
	merger := NewLineMerger()

	t.Run("sums duplicate non-finalized counts", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(3)},
			{ProductID: productID, CountedQty: qty(4)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(7).Equal(set.Lines[0].Qty))
		assert.False(t, set.Lines[0].Finalized)
	})

	t.Run("last finalized occurrence wins", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(3)},
			{ProductID: productID, CountedQty: qty(9), Finalized: true},
			{ProductID: productID, CountedQty: qty(5), Finalized: true},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(5).Equal(set.Lines[0].Qty))
		assert.True(t, set.Lines[0].Finalized)
	})

	t.Run("non-finalized counts never dilute a finalized one", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(9), Finalized: true},
			{ProductID: productID, CountedQty: qty(5)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(9).Equal(set.Lines[0].Qty))
	})

	t.Run("nil counts are skipped in accumulation", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: nil},
			{ProductID: productID, CountedQty: qty(4)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(4).Equal(set.Lines[0].Qty))
	})

	t.Run("product with no counts at all is dropped", func(t *testing.T) {
		counted := uuid.New()
		uncounted := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: uncounted, CountedQty: nil},
			{ProductID: counted, CountedQty: qty(2)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.Equal(t, counted, set.Lines[0].ProductID)
	})

	t.Run("finalized nil count means finalized zero", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(6)},
			{ProductID: productID, CountedQty: nil, Finalized: true},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.Zero.Equal(set.Lines[0].Qty))
		assert.True(t, set.Lines[0].Finalized)
	})

	t.Run("preserves first-seen product order", func(t *testing.T) {
		p1 := uuid.New()
		p2 := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: p1, CountedQty: qty(1)},
			{ProductID: p2, CountedQty: qty(2)},
			{ProductID: p1, CountedQty: qty(3)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 2)
		assert.Equal(t, p1, set.Lines[0].ProductID)
		assert.Equal(t, p2, set.Lines[1].ProductID)
	})

	t.Run("tracks max planned quantity across duplicates", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(1), PlannedQty: decimal.NewFromInt(5)},
			{ProductID: productID, CountedQty: qty(1), PlannedQty: decimal.NewFromInt(8)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(8).Equal(set.Lines[0].PlannedSeen))
	})

	t.Run("accumulation is order independent for non-finalized duplicates", func(t *testing.T) {
		p1 := uuid.New()
		p2 := uuid.New()
		lines := []ReceiptLine{
			{ProductID: p1, CountedQty: qty(3), DamagedQty: decimal.NewFromInt(1), PlannedQty: decimal.NewFromInt(10)},
			{ProductID: p2, CountedQty: qty(2)},
			{ProductID: p1, CountedQty: qty(4), PlannedQty: decimal.NewFromInt(10)},
			{ProductID: p1, CountedQty: nil},
			{ProductID: p2, CountedQty: qty(6), DamagedQty: decimal.NewFromInt(2)},
		}

		baseline, err := merger.Merge(&ReceiptBatch{Lines: lines})
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 20; i++ {
			shuffled := make([]ReceiptLine, len(lines))
			copy(shuffled, lines)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})

			set, err := merger.Merge(&ReceiptBatch{Lines: shuffled})
			require.NoError(t, err)
			assert.Equal(t, effectiveByProduct(baseline), effectiveByProduct(set))
		}
	})

	t.Run("sums damaged alongside counted", func(t *testing.T) {
		productID := uuid.New()
		set, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: productID, CountedQty: qty(5), DamagedQty: decimal.NewFromInt(1)},
			{ProductID: productID, CountedQty: qty(5), DamagedQty: decimal.NewFromInt(2)},
		}})
		require.NoError(t, err)

		require.Len(t, set.Lines, 1)
		assert.True(t, decimal.NewFromInt(3).Equal(set.Lines[0].Damaged))
	})
}

func TestLineMerger_Validation(t *testing.T) {
	merger := NewLineMerger()

	t.Run("negative count rejects whole batch", func(t *testing.T) {
		bad := uuid.New()
		good := uuid.New()
		_, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: good, CountedQty: qty(5)},
			{ProductID: bad, CountedQty: qty(-1)},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, []string{bad.String()}, domainErr.Details["product_ids"])
	})

	t.Run("fractional count rejects whole batch", func(t *testing.T) {
		_, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: uuid.New(), CountedQty: qtyFromFloat(2.5)},
		}})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("negative damaged rejects whole batch", func(t *testing.T) {
		_, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: uuid.New(), CountedQty: qty(5), DamagedQty: decimal.NewFromInt(-1)},
		}})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("lists every offending product once", func(t *testing.T) {
		bad1 := uuid.New()
		bad2 := uuid.New()
		_, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: bad1, CountedQty: qty(-1)},
			{ProductID: bad1, CountedQty: qtyFromFloat(0.5)},
			{ProductID: bad2, CountedQty: qty(-3)},
		}})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.ElementsMatch(t, []string{bad1.String(), bad2.String()}, domainErr.Details["product_ids"])
	})

	t.Run("rejects line without product id", func(t *testing.T) {
		_, err := merger.Merge(&ReceiptBatch{Lines: []ReceiptLine{
			{ProductID: uuid.Nil, CountedQty: qty(1)},
		}})
		assert.Error(t, err)
	})

	t.Run("empty batch yields empty set", func(t *testing.T) {
		set, err := merger.Merge(&ReceiptBatch{})
		require.NoError(t, err)
		assert.Empty(t, set.Lines)
	})
}
