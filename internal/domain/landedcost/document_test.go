package landedcost

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
)

func newDraftDocument(t *testing.T) *LandedCostDocument {
	t.Helper()
	document, err := NewLandedCostDocument(uuid.New(), "LC-1001", valueobject.USD, time.Now())
	require.NoError(t, err)
	return document
}

func TestLandedCostDocument_Calculate(t *testing.T) {
	t.Run("freight allocated by value splits 30/70", func(t *testing.T) {
		document := newDraftDocument(t)

		// Line values 300 and 700, freight 1000 by value -> 300 and 700
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(30), decimal.NewFromInt(10), decimal.Zero, decimal.Zero))
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(70), decimal.NewFromInt(10), decimal.Zero, decimal.Zero))
		require.NoError(t, document.AddIndirectCost(CostTypeFreight, BasisValue, decimal.NewFromInt(1000), nil))

		require.NoError(t, document.Calculate())
		assert.Equal(t, DocumentStatusCalculated, document.Status)

		assert.Equal(t, "300", document.Lines[0].AllocatedCost.String())
		assert.Equal(t, "700", document.Lines[1].AllocatedCost.String())

		// line 0: 30*10 + 300 = 600 total, 20 per unit
		assert.Equal(t, "600", document.Lines[0].TotalLandedCost.String())
		assert.Equal(t, "20", document.Lines[0].LandedCostPerUnit.String())
	})

	t.Run("allocation sums exactly to the component amount", func(t *testing.T) {
		document := newDraftDocument(t)

		for i := 0; i < 3; i++ {
			require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.Zero, decimal.Zero))
		}
		require.NoError(t, document.AddIndirectCost(CostTypeFreight, BasisValue, decimal.NewFromInt(100), nil))

		require.NoError(t, document.Calculate())
		assert.True(t, document.TotalAllocatedCost().Equal(decimal.NewFromInt(100)),
			"allocations must sum exactly, got %s", document.TotalAllocatedCost())
	})

	t.Run("allocates by weight", func(t *testing.T) {
		document := newDraftDocument(t)

		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(20), decimal.Zero))
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(80), decimal.Zero))
		require.NoError(t, document.AddIndirectCost(CostTypeDuty, BasisWeight, decimal.NewFromInt(500), nil))

		require.NoError(t, document.Calculate())
		assert.Equal(t, "100", document.Lines[0].AllocatedCost.String())
		assert.Equal(t, "400", document.Lines[1].AllocatedCost.String())
	})

	t.Run("manual per-line amounts", func(t *testing.T) {
		document := newDraftDocument(t)

		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, decimal.Zero))
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, decimal.Zero))

		manual := map[string]decimal.Decimal{
			document.Lines[0].ID.String(): decimal.NewFromInt(75),
			document.Lines[1].ID.String(): decimal.NewFromInt(25),
		}
		require.NoError(t, document.AddIndirectCost(CostTypeHandling, BasisManual, decimal.NewFromInt(100), manual))

		require.NoError(t, document.Calculate())
		assert.Equal(t, "75", document.Lines[0].AllocatedCost.String())
		assert.Equal(t, "25", document.Lines[1].AllocatedCost.String())
	})

	t.Run("manual amounts must sum to the component amount", func(t *testing.T) {
		document := newDraftDocument(t)
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, decimal.Zero))

		manual := map[string]decimal.Decimal{
			document.Lines[0].ID.String(): decimal.NewFromInt(60),
		}
		require.NoError(t, document.AddIndirectCost(CostTypeHandling, BasisManual, decimal.NewFromInt(100), manual))

		assert.Error(t, document.Calculate())
	})

	t.Run("empty document fails", func(t *testing.T) {
		document := newDraftDocument(t)
		assert.ErrorIs(t, document.Calculate(), shared.ErrEmptyDocument)
	})

	t.Run("zero basis fails", func(t *testing.T) {
		document := newDraftDocument(t)

		// Weight basis with no weights recorded
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, decimal.Zero))
		require.NoError(t, document.AddIndirectCost(CostTypeFreight, BasisWeight, decimal.NewFromInt(100), nil))

		assert.ErrorIs(t, document.Calculate(), shared.ErrZeroBasis)
	})
}

func TestLandedCostDocument_Lifecycle(t *testing.T) {
	calculated := func(t *testing.T) *LandedCostDocument {
		t.Helper()
		document := newDraftDocument(t)
		require.NoError(t, document.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, decimal.Zero))
		require.NoError(t, document.AddIndirectCost(CostTypeFreight, BasisValue, decimal.NewFromInt(100), nil))
		require.NoError(t, document.Calculate())
		return document
	}

	t.Run("post requires calculated and is terminal", func(t *testing.T) {
		document := calculated(t)

		require.NoError(t, document.Post())
		assert.Equal(t, DocumentStatusPosted, document.Status)
		require.NotNil(t, document.PostedAt)

		assert.ErrorIs(t, document.Post(), shared.ErrInvalidState)
		assert.ErrorIs(t, document.Calculate(), shared.ErrInvalidState)
		assert.ErrorIs(t, document.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, decimal.Zero), shared.ErrInvalidState)
	})

	t.Run("post before calculate fails", func(t *testing.T) {
		document := newDraftDocument(t)
		assert.ErrorIs(t, document.Post(), shared.ErrInvalidState)
	})

	t.Run("post emits price-update instructions", func(t *testing.T) {
		document := calculated(t)
		require.NoError(t, document.Post())

		events := document.GetDomainEvents()
		require.Len(t, events, 1)
		posted, ok := events[0].(*DocumentPostedEvent)
		require.True(t, ok)
		require.Len(t, posted.Instructions, 1)
		assert.Equal(t, "100", posted.Instructions[0].Amount.String())
		assert.Equal(t, "LC-1001", posted.Instructions[0].SourceRef)
	})
}
