package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/infrastructure/cache"
	"github.com/erp/costing/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEntryRepo struct {
	entries []*ledger.MaterialLedgerEntry
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *ledger.MaterialLedgerEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.MaterialLedgerEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEntryRepo) FindByMaterialAndPeriod(_ context.Context, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*ledger.MaterialLedgerEntry, error) {
	var out []*ledger.MaterialLedgerEntry
	for _, e := range r.entries {
		if e.MaterialID == materialID && e.PlantID == plantID && e.Period() == period {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) FindByPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, _ shared.Filter) ([]*ledger.MaterialLedgerEntry, int64, error) {
	var out []*ledger.MaterialLedgerEntry
	for _, e := range r.entries {
		if e.PlantID == plantID && e.Period() == period {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEntryRepo) NextSequenceNo(_ context.Context, materialID, plantID uuid.UUID) (int64, error) {
	var max int64
	for _, e := range r.entries {
		if e.MaterialID == materialID && e.PlantID == plantID && e.SequenceNo > max {
			max = e.SequenceNo
		}
	}
	return max + 1, nil
}

func (r *fakeEntryRepo) MaterialsMovedInPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, e := range r.entries {
		if e.PlantID == plantID && e.Period() == period && !seen[e.MaterialID] {
			seen[e.MaterialID] = true
			out = append(out, e.MaterialID)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) LastMovementPeriodBefore(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (valueobject.FiscalPeriod, error) {
	target := period.Year*100 + period.Period
	var latest valueobject.FiscalPeriod
	found := false
	for _, e := range r.entries {
		if e.PlantID != plantID {
			continue
		}
		p := e.Period()
		key := p.Year*100 + p.Period
		if key >= target {
			continue
		}
		if !found || key > latest.Year*100+latest.Period {
			latest = p
			found = true
		}
	}
	if !found {
		return valueobject.FiscalPeriod{}, shared.ErrNotFound
	}
	return latest, nil
}

type fakePriceRepo struct {
	prices map[uuid.UUID]*ledger.MaterialPrice
}

func newFakePriceRepo() *fakePriceRepo {
	return &fakePriceRepo{prices: make(map[uuid.UUID]*ledger.MaterialPrice)}
}

// copies on read and write so the version check behaves like a real store
func (r *fakePriceRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.MaterialPrice, error) {
	if p, ok := r.prices[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakePriceRepo) FindByMaterial(_ context.Context, materialID, plantID uuid.UUID) ([]*ledger.MaterialPrice, error) {
	var out []*ledger.MaterialPrice
	for _, view := range ledger.AllValuationViews() {
		for _, p := range r.prices {
			if p.MaterialID == materialID && p.PlantID == plantID && p.View == view {
				cp := *p
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (r *fakePriceRepo) FindByMaterialAndView(_ context.Context, materialID, plantID uuid.UUID, view ledger.ValuationView) (*ledger.MaterialPrice, error) {
	for _, p := range r.prices {
		if p.MaterialID == materialID && p.PlantID == plantID && p.View == view {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakePriceRepo) Save(_ context.Context, price *ledger.MaterialPrice) error {
	cp := *price
	r.prices[price.ID] = &cp
	return nil
}

func (r *fakePriceRepo) SaveWithLock(_ context.Context, price *ledger.MaterialPrice, expectedVersion int) error {
	stored, ok := r.prices[price.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	cp := *price
	r.prices[price.ID] = &cp
	return nil
}

type fakeLockRepo struct {
	locked map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locked: make(map[string]bool)}
}

func (r *fakeLockRepo) lockKey(plantID uuid.UUID, period valueobject.FiscalPeriod) string {
	return plantID.String() + ":" + period.String()
}

func (r *fakeLockRepo) Acquire(_ context.Context, lock *periodclose.PeriodLock) error {
	r.locked[r.lockKey(lock.PlantID, lock.Period())] = true
	return nil
}

func (r *fakeLockRepo) IsLocked(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error) {
	return r.locked[r.lockKey(plantID, period)], nil
}

func (r *fakeLockRepo) Release(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) error {
	delete(r.locked, r.lockKey(plantID, period))
	return nil
}

type fakeStandardPrices struct {
	prices map[uuid.UUID]decimal.Decimal
}

func (f *fakeStandardPrices) StandardUnitCost(_ context.Context, materialID, _ uuid.UUID) (decimal.Decimal, bool, error) {
	if price, ok := f.prices[materialID]; ok {
		return price, true, nil
	}
	return decimal.Zero, false, nil
}

func newTestPostingService(allowNegative bool) (*PostingService, *fakeEntryRepo, *fakePriceRepo, *fakeLockRepo, *fakeStandardPrices) {
	entryRepo := &fakeEntryRepo{}
	priceRepo := newFakePriceRepo()
	lockRepo := newFakeLockRepo()
	standards := &fakeStandardPrices{prices: make(map[uuid.UUID]decimal.Decimal)}
	service := NewPostingService(entryRepo, priceRepo, lockRepo, standards, allowNegative)
	return service, entryRepo, priceRepo, lockRepo, standards
}

func receiptRequest(materialID, plantID uuid.UUID, qty, price float64) PostMovementRequest {
	return PostMovementRequest{
		MaterialID:   materialID,
		PlantID:      plantID,
		MovementType: ledger.MovementReceipt,
		Quantity:     decimal.NewFromFloat(qty),
		UnitPrice:    decimal.NewFromFloat(price),
		SourceRef:    "GR-0001",
	}
}

func TestPostingService_PostMovement(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	t.Run("receipt valuates under every view and auto-initializes", func(t *testing.T) {
		service, entryRepo, priceRepo, _, _ := newTestPostingService(false)

		response, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 5))
		require.NoError(t, err)

		assert.Equal(t, int64(1), response.SequenceNo)
		assert.Len(t, response.Valuations, 3)
		require.Len(t, entryRepo.entries, 1)
		assert.True(t, entryRepo.entries[0].Amount.Equal(decimal.NewFromInt(50)))

		prices, err := priceRepo.FindByMaterial(ctx, materialID, plantID)
		require.NoError(t, err)
		require.Len(t, prices, 3)
		for _, p := range prices {
			assert.Equal(t, ledger.PriceMethodMovingAverage, p.Method)
			assert.True(t, p.OnHandQuantity.Equal(decimal.NewFromInt(10)))
			assert.True(t, p.Price.Equal(decimal.NewFromInt(5)))
		}
	})

	t.Run("moving average recalculates across receipts", func(t *testing.T) {
		service, _, priceRepo, _, _ := newTestPostingService(false)

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 10))
		require.NoError(t, err)
		_, err = service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 20))
		require.NoError(t, err)

		price, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
		require.NoError(t, err)
		assert.True(t, price.Price.Equal(decimal.NewFromInt(15)), "got %s", price.Price)
		assert.True(t, price.TotalValue.Equal(decimal.NewFromInt(300)))
	})

	t.Run("issue below on-hand is rejected", func(t *testing.T) {
		service, _, _, _, _ := newTestPostingService(false)

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 5, 10))
		require.NoError(t, err)

		_, err = service.PostMovement(ctx, PostMovementRequest{
			MaterialID:   materialID,
			PlantID:      plantID,
			MovementType: ledger.MovementIssue,
			Quantity:     decimal.NewFromInt(8),
			SourceRef:    "GI-0001",
		})
		assert.ErrorIs(t, err, shared.ErrNegativeBalance)
	})

	t.Run("posting into a locked period is rejected", func(t *testing.T) {
		service, entryRepo, _, lockRepo, _ := newTestPostingService(false)
		lockRepo.locked[lockRepo.lockKey(plantID, valueobject.FiscalPeriodOf(time.Now()))] = true

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 5))
		assert.ErrorIs(t, err, shared.ErrPeriodLocked)
		assert.Empty(t, entryRepo.entries)
	})

	t.Run("receipt against an active standard captures the deviation", func(t *testing.T) {
		service, entryRepo, _, _, standards := newTestPostingService(false)
		standards.prices[materialID] = decimal.NewFromInt(10)

		_, err := service.InitializeMaterial(ctx, InitializeMaterialRequest{
			MaterialID: materialID,
			PlantID:    plantID,
			Methods: map[ledger.ValuationView]ledger.PriceMethod{
				ledger.ViewLegal: ledger.PriceMethodStandard,
			},
		})
		require.NoError(t, err)

		_, err = service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 12))
		require.NoError(t, err)

		require.Len(t, entryRepo.entries, 1)
		entry := entryRepo.entries[0]
		require.True(t, entry.HasStandard())
		assert.True(t, entry.StandardPrice.Equal(decimal.NewFromInt(10)))
		assert.True(t, entry.PriceVariance.Equal(decimal.NewFromInt(20)), "got %s", entry.PriceVariance)

		// Legal view is valued at standard, not at the posted price
		valuation, ok := entry.ValuationFor(ledger.ViewLegal)
		require.True(t, ok)
		assert.True(t, valuation.UnitPrice.Equal(decimal.NewFromInt(10)))
	})

	t.Run("invoice difference adjusts value without quantity", func(t *testing.T) {
		service, entryRepo, priceRepo, _, _ := newTestPostingService(false)

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 10))
		require.NoError(t, err)

		_, err = service.PostMovement(ctx, PostMovementRequest{
			MaterialID:   materialID,
			PlantID:      plantID,
			MovementType: ledger.MovementInvoice,
			Amount:       decimal.NewFromInt(20),
			SourceRef:    "INV-0001",
		})
		require.NoError(t, err)

		require.Len(t, entryRepo.entries, 2)
		invoice := entryRepo.entries[1]
		assert.Empty(t, invoice.Valuations)
		assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(20)))

		price, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
		require.NoError(t, err)
		assert.True(t, price.TotalValue.Equal(decimal.NewFromInt(120)))
		assert.True(t, price.Price.Equal(decimal.NewFromInt(12)), "got %s", price.Price)
		assert.True(t, price.OnHandQuantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("invoice at actual price records the deviation from the standard", func(t *testing.T) {
		service, entryRepo, priceRepo, _, standards := newTestPostingService(false)
		standards.prices[materialID] = decimal.NewFromInt(10)

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 10))
		require.NoError(t, err)

		_, err = service.PostMovement(ctx, PostMovementRequest{
			MaterialID:   materialID,
			PlantID:      plantID,
			MovementType: ledger.MovementInvoice,
			Quantity:     decimal.NewFromInt(10),
			UnitPrice:    decimal.NewFromInt(12),
			SourceRef:    "INV-0002",
		})
		require.NoError(t, err)

		require.Len(t, entryRepo.entries, 2)
		invoice := entryRepo.entries[1]
		require.True(t, invoice.HasStandard())
		assert.True(t, invoice.StandardPrice.Equal(decimal.NewFromInt(10)))
		assert.True(t, invoice.ActualPrice.Equal(decimal.NewFromInt(12)))
		// (12 - 10) * 10
		assert.True(t, invoice.PriceVariance.Equal(decimal.NewFromInt(20)), "got %s", invoice.PriceVariance)
		assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(20)))

		// The deviation revalues the stock, quantity on hand is unchanged
		price, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
		require.NoError(t, err)
		assert.True(t, price.TotalValue.Equal(decimal.NewFromInt(120)))
		assert.True(t, price.OnHandQuantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("invoice without an active standard leaves the value unchanged", func(t *testing.T) {
		service, entryRepo, priceRepo, _, _ := newTestPostingService(false)

		_, err := service.PostMovement(ctx, receiptRequest(materialID, plantID, 10, 10))
		require.NoError(t, err)

		_, err = service.PostMovement(ctx, PostMovementRequest{
			MaterialID:   materialID,
			PlantID:      plantID,
			MovementType: ledger.MovementInvoice,
			Quantity:     decimal.NewFromInt(10),
			UnitPrice:    decimal.NewFromInt(12),
			SourceRef:    "INV-0003",
		})
		require.NoError(t, err)

		require.Len(t, entryRepo.entries, 2)
		assert.False(t, entryRepo.entries[1].HasStandard())
		assert.True(t, entryRepo.entries[1].Amount.IsZero())

		price, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
		require.NoError(t, err)
		assert.True(t, price.TotalValue.Equal(decimal.NewFromInt(100)))
	})

	t.Run("invalid movement type is rejected", func(t *testing.T) {
		service, _, _, _, _ := newTestPostingService(false)

		_, err := service.PostMovement(ctx, PostMovementRequest{
			MaterialID:   materialID,
			PlantID:      plantID,
			MovementType: ledger.MovementType("TRANSFER"),
			Quantity:     decimal.NewFromInt(1),
			SourceRef:    "X",
		})
		require.Error(t, err)
	})
}

func TestPostingService_UpdateStandardPrices(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	service, _, priceRepo, _, _ := newTestPostingService(false)

	_, err := service.InitializeMaterial(ctx, InitializeMaterialRequest{
		MaterialID: materialID,
		PlantID:    plantID,
		Methods: map[ledger.ValuationView]ledger.PriceMethod{
			ledger.ViewLegal: ledger.PriceMethodStandard,
			ledger.ViewGroup: ledger.PriceMethodMovingAverage,
		},
	})
	require.NoError(t, err)

	require.NoError(t, service.UpdateStandardPrices(ctx, materialID, plantID, decimal.NewFromFloat(7.5)))

	legal, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
	require.NoError(t, err)
	assert.True(t, legal.Price.Equal(decimal.NewFromFloat(7.5)))
	assert.True(t, legal.Determined)

	// Non-standard views are untouched
	group, err := priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewGroup)
	require.NoError(t, err)
	assert.True(t, group.Price.IsZero())
}

func TestMovementHandler_Idempotency(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	service, entryRepo, _, _, _ := newTestPostingService(false)

	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handler := event.NewIdempotentHandler(NewMovementHandler(service), store, zap.NewNop())

	receipt := NewGoodsReceiptEvent(materialID, plantID,
		decimal.NewFromInt(10), decimal.NewFromInt(5), time.Now(), "GR-0042")

	require.NoError(t, handler.Handle(ctx, receipt))
	require.NoError(t, handler.Handle(ctx, receipt))

	assert.Len(t, entryRepo.entries, 1, "redelivered event must not post twice")
	assert.Equal(t, int64(1), handler.Metrics().EventsDuplicate.Load())
}

func TestMovementHandler_InvoiceReceived(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	service, entryRepo, _, _, standards := newTestPostingService(false)
	standards.prices[materialID] = decimal.NewFromInt(10)
	handler := NewMovementHandler(service)

	receipt := NewGoodsReceiptEvent(materialID, plantID,
		decimal.NewFromInt(10), decimal.NewFromInt(10), time.Now(), "GR-0050")
	require.NoError(t, handler.Handle(ctx, receipt))

	invoice := NewInvoiceReceivedEvent(materialID, plantID,
		decimal.NewFromInt(10), decimal.NewFromFloat(12.5), "USD", time.Now(), "INV-0050")
	require.NoError(t, handler.Handle(ctx, invoice))

	require.Len(t, entryRepo.entries, 2)
	entry := entryRepo.entries[1]
	assert.Equal(t, ledger.MovementInvoice, entry.MovementType)
	require.True(t, entry.HasStandard())
	assert.True(t, entry.ActualPrice.Equal(decimal.NewFromFloat(12.5)))
	// (12.5 - 10) * 10
	assert.True(t, entry.PriceVariance.Equal(decimal.NewFromInt(25)), "got %s", entry.PriceVariance)
}

func TestMovementHandler_EventTypes(t *testing.T) {
	handler := NewMovementHandler(nil)
	assert.ElementsMatch(t, []string{
		EventTypeGoodsReceipt, EventTypeGoodsIssue, EventTypeInvoiceReceived,
	}, handler.EventTypes())
}
