package periodclose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/domain/variance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunRepo struct {
	runs map[uuid.UUID]*periodclose.PeriodCloseRun
	// onFind runs after a FindLatestByPeriod read, letting tests interleave
	// a competing writer between read and save
	onFind func()
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[uuid.UUID]*periodclose.PeriodCloseRun)}
}

func (r *fakeRunRepo) Create(_ context.Context, run *periodclose.PeriodCloseRun) error {
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

func (r *fakeRunRepo) FindByID(_ context.Context, id uuid.UUID) (*periodclose.PeriodCloseRun, error) {
	if run, ok := r.runs[id]; ok {
		cp := *run
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRunRepo) FindLatestByPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (*periodclose.PeriodCloseRun, error) {
	var latest *periodclose.PeriodCloseRun
	for _, run := range r.runs {
		if run.PlantID == plantID && run.Period() == period {
			if latest == nil || run.StartedAt.After(latest.StartedAt) {
				latest = run
			}
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	cp := *latest
	if r.onFind != nil {
		r.onFind()
	}
	return &cp, nil
}

func (r *fakeRunRepo) SaveWithLock(_ context.Context, run *periodclose.PeriodCloseRun, expectedVersion int) error {
	stored, ok := r.runs[run.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

type fakeWIPRepo struct {
	positions map[uuid.UUID]*periodclose.WIPPosition
}

func newFakeWIPRepo() *fakeWIPRepo {
	return &fakeWIPRepo{positions: make(map[uuid.UUID]*periodclose.WIPPosition)}
}

func (r *fakeWIPRepo) FindByID(_ context.Context, id uuid.UUID) (*periodclose.WIPPosition, error) {
	if p, ok := r.positions[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeWIPRepo) FindByOrderAndPeriod(_ context.Context, productionOrderID uuid.UUID, period valueobject.FiscalPeriod) (*periodclose.WIPPosition, error) {
	for _, p := range r.positions {
		if p.ProductionOrderID == productionOrderID && p.Period() == period {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeWIPRepo) FindUnsettledByPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*periodclose.WIPPosition, error) {
	var out []*periodclose.WIPPosition
	for _, p := range r.positions {
		if p.PlantID == plantID && p.Period() == period && !p.Settled {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWIPRepo) Save(_ context.Context, position *periodclose.WIPPosition) error {
	cp := *position
	r.positions[position.ID] = &cp
	return nil
}

func (r *fakeWIPRepo) SaveWithLock(_ context.Context, position *periodclose.WIPPosition, expectedVersion int) error {
	stored, ok := r.positions[position.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	cp := *position
	r.positions[position.ID] = &cp
	return nil
}

type fakeLockRepo struct {
	locked map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locked: make(map[string]bool)}
}

func lockKey(plantID uuid.UUID, period valueobject.FiscalPeriod) string {
	return plantID.String() + ":" + period.String()
}

func (r *fakeLockRepo) Acquire(_ context.Context, lock *periodclose.PeriodLock) error {
	r.locked[lockKey(lock.PlantID, lock.Period())] = true
	return nil
}

func (r *fakeLockRepo) IsLocked(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error) {
	return r.locked[lockKey(plantID, period)], nil
}

func (r *fakeLockRepo) Release(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) error {
	delete(r.locked, lockKey(plantID, period))
	return nil
}

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

func (r *fakePriceRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.MaterialPrice, error) {
	if p, ok := r.prices[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakePriceRepo) FindByMaterial(_ context.Context, materialID, plantID uuid.UUID) ([]*ledger.MaterialPrice, error) {
	var out []*ledger.MaterialPrice
	for _, p := range r.prices {
		if p.MaterialID == materialID && p.PlantID == plantID {
			cp := *p
			out = append(out, &cp)
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

type fakeVarianceRepo struct {
	records map[uuid.UUID]*variance.CostVariance
}

func newFakeVarianceRepo() *fakeVarianceRepo {
	return &fakeVarianceRepo{records: make(map[uuid.UUID]*variance.CostVariance)}
}

func (r *fakeVarianceRepo) Create(_ context.Context, v *variance.CostVariance) error {
	cp := *v
	r.records[v.ID] = &cp
	return nil
}

func (r *fakeVarianceRepo) CreateBatch(ctx context.Context, variances []*variance.CostVariance) error {
	for _, v := range variances {
		if err := r.Create(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeVarianceRepo) FindByID(_ context.Context, id uuid.UUID) (*variance.CostVariance, error) {
	if v, ok := r.records[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeVarianceRepo) FindByPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, _ shared.Filter) ([]*variance.CostVariance, int64, error) {
	var out []*variance.CostVariance
	for _, v := range r.records {
		if v.PlantID == plantID && v.Period() == period {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeVarianceRepo) FindUnsettledByPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*variance.CostVariance, error) {
	var out []*variance.CostVariance
	for _, v := range r.records {
		if v.PlantID == plantID && v.Period() == period && !v.Settled {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVarianceRepo) ExistsForPeriod(_ context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error) {
	for _, v := range r.records {
		if v.PlantID == plantID && v.Period() == period {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVarianceRepo) SaveWithLock(_ context.Context, v *variance.CostVariance, expectedVersion int) error {
	stored, ok := r.records[v.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	cp := *v
	r.records[v.ID] = &cp
	return nil
}

type recordingPoster struct {
	instructions []SettlementInstruction
	failOn       string // account to fail on, "" for never
}

func (p *recordingPoster) PostSettlement(_ context.Context, instructions []SettlementInstruction) error {
	for _, instruction := range instructions {
		if p.failOn != "" && instruction.Account == p.failOn {
			return errors.New("financial system unavailable")
		}
	}
	p.instructions = append(p.instructions, instructions...)
	return nil
}

type closeFixture struct {
	service      *CloseService
	runRepo      *fakeRunRepo
	wipRepo      *fakeWIPRepo
	lockRepo     *fakeLockRepo
	entryRepo    *fakeEntryRepo
	priceRepo    *fakePriceRepo
	varianceRepo *fakeVarianceRepo
	poster       *recordingPoster
}

func newCloseFixture() *closeFixture {
	f := &closeFixture{
		runRepo:      newFakeRunRepo(),
		wipRepo:      newFakeWIPRepo(),
		lockRepo:     newFakeLockRepo(),
		entryRepo:    &fakeEntryRepo{},
		priceRepo:    newFakePriceRepo(),
		varianceRepo: newFakeVarianceRepo(),
		poster:       &recordingPoster{},
	}
	f.service = NewCloseService(
		f.runRepo, f.wipRepo, f.lockRepo,
		f.entryRepo, f.priceRepo, f.varianceRepo,
		f.poster, 10,
	)
	return f
}

// seedPeriod creates one material with a receipt posted at 12 against a
// standard of 10, an undetermined ACTUAL price record, and an open WIP
// position of 175.
func (f *closeFixture) seedPeriod(t *testing.T, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) {
	t.Helper()
	ctx := context.Background()

	postingDate := time.Date(period.Year, time.Month(period.Period), 15, 0, 0, 0, 0, time.UTC)
	entry, err := ledger.NewMaterialLedgerEntry(
		materialID, plantID, period, 1,
		ledger.MovementReceipt, decimal.NewFromInt(100), postingDate, "GR-0001",
	)
	require.NoError(t, err)
	entry.RecordStandardDeviation(decimal.NewFromInt(10), decimal.NewFromInt(12))
	require.NoError(t, f.entryRepo.Create(ctx, entry))

	price, err := ledger.NewMaterialPrice(materialID, plantID, ledger.ViewLegal, ledger.PriceMethodActual)
	require.NoError(t, err)
	require.NoError(t, f.priceRepo.Save(ctx, price))

	position, err := periodclose.NewWIPPosition(uuid.New(), materialID, plantID, period)
	require.NoError(t, err)
	require.NoError(t, position.Accumulate(
		decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromInt(25)))
	require.NoError(t, f.wipRepo.Save(ctx, position))
}

func TestCloseService_StartClose(t *testing.T) {
	ctx := context.Background()
	plantID := uuid.New()
	materialID := uuid.New()
	period := valueobject.FiscalPeriod{Year: 2026, Period: 7}

	t.Run("full close completes all steps", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		response, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)

		assert.Equal(t, periodclose.RunStatusCompleted, response.Status)
		assert.True(t, response.ActualCostCalculated)
		assert.True(t, response.VariancesCalculated)
		assert.True(t, response.WIPCalculated)
		assert.True(t, response.SettlementPosted)
		assert.Equal(t, 1, response.MaterialsProcessed)
		// (12 - 10) * 100
		assert.True(t, response.TotalVarianceAmount.Equal(decimal.NewFromInt(200)),
			"got %s", response.TotalVarianceAmount)

		// The actual price was determined from the period's receipts
		price, err := f.priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
		require.NoError(t, err)
		assert.True(t, price.Determined)
		assert.True(t, price.Price.Equal(decimal.NewFromInt(12)))

		// WIP settled exactly once, variance settled, period stays locked
		open, err := f.wipRepo.FindUnsettledByPeriod(ctx, plantID, period)
		require.NoError(t, err)
		assert.Empty(t, open)

		unsettled, err := f.varianceRepo.FindUnsettledByPeriod(ctx, plantID, period)
		require.NoError(t, err)
		assert.Empty(t, unsettled)

		locked, err := f.lockRepo.IsLocked(ctx, plantID, period)
		require.NoError(t, err)
		assert.True(t, locked)

		// One WIP instruction of 175 and one price-difference instruction of 200
		require.Len(t, f.poster.instructions, 2)
		assert.Equal(t, AccountWIPSettlement, f.poster.instructions[0].Account)
		assert.True(t, f.poster.instructions[0].Amount.Equal(decimal.NewFromInt(175)))
		assert.Equal(t, AccountPriceDifference, f.poster.instructions[1].Account)
		assert.True(t, f.poster.instructions[1].Amount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("re-closing a completed period returns the prior result", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		first, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)

		second, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)

		// No duplicated variance records or settlement instructions
		records, _, err := f.varianceRepo.FindByPeriod(ctx, plantID, period, shared.Filter{})
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Len(t, f.poster.instructions, 2)
	})

	t.Run("closing ahead of an open prior period is rejected", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		next := valueobject.FiscalPeriod{Year: 2026, Period: 8}
		_, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: next.Year, Period: next.Period,
		})
		assert.ErrorIs(t, err, shared.ErrPeriodNotClosed)
	})

	t.Run("prior period without activity needs no close", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		response, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)
		assert.Equal(t, periodclose.RunStatusCompleted, response.Status)
	})

	t.Run("failed run releases the lock and resumes at the failed step", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)
		f.poster.failOn = AccountWIPSettlement

		_, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.Error(t, err)

		run, err := f.runRepo.FindLatestByPeriod(ctx, plantID, period)
		require.NoError(t, err)
		assert.Equal(t, periodclose.RunStatusFailed, run.Status)
		assert.Equal(t, periodclose.StepWIP.String(), run.FailedStep)
		assert.True(t, run.ActualCostCalculated)
		assert.True(t, run.VariancesCalculated)
		assert.False(t, run.WIPCalculated)

		// Lock released so postings may continue until the retry
		locked, err := f.lockRepo.IsLocked(ctx, plantID, period)
		require.NoError(t, err)
		assert.False(t, locked)

		// Retry resumes from WIP without recreating variances
		f.poster.failOn = ""
		response, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)
		assert.Equal(t, periodclose.RunStatusCompleted, response.Status)
		assert.True(t, response.TotalVarianceAmount.Equal(decimal.NewFromInt(200)))

		records, _, err := f.varianceRepo.FindByPeriod(ctx, plantID, period, shared.Filter{})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("interrupted run resumes at the first incomplete step", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		// A crash left the run RUNNING with two steps committed
		run, err := periodclose.NewPeriodCloseRun(plantID, period)
		require.NoError(t, err)
		require.NoError(t, run.CompleteStep(periodclose.StepActualCost))
		require.NoError(t, run.CompleteStep(periodclose.StepVariances))
		run.ClearDomainEvents()
		require.NoError(t, f.runRepo.Create(ctx, run))

		response, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)

		assert.Equal(t, run.ID, response.ID)
		assert.Equal(t, periodclose.RunStatusCompleted, response.Status)
		assert.True(t, response.WIPCalculated)
		assert.True(t, response.SettlementPosted)

		// Only the remaining steps ran: the WIP position settled, and the
		// already-committed variance step was not repeated
		open, err := f.wipRepo.FindUnsettledByPeriod(ctx, plantID, period)
		require.NoError(t, err)
		assert.Empty(t, open)

		require.Len(t, f.poster.instructions, 1)
		assert.Equal(t, AccountWIPSettlement, f.poster.instructions[0].Account)

		locked, err := f.lockRepo.IsLocked(ctx, plantID, period)
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("losing the race on a shared run reports a close in progress", func(t *testing.T) {
		f := newCloseFixture()
		f.seedPeriod(t, materialID, plantID, period)

		run, err := periodclose.NewPeriodCloseRun(plantID, period)
		require.NoError(t, err)
		require.NoError(t, f.runRepo.Create(ctx, run))

		// Another worker advances the stored run right after our read
		f.runRepo.onFind = func() {
			f.runRepo.onFind = nil
			f.runRepo.runs[run.ID].Version++
		}

		_, err = f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CLOSE_IN_PROGRESS", domainErr.Code)
	})

	t.Run("chronology holds across idle periods", func(t *testing.T) {
		f := newCloseFixture()
		may := valueobject.FiscalPeriod{Year: 2026, Period: 5}
		f.seedPeriod(t, uuid.New(), plantID, may)
		f.seedPeriod(t, materialID, plantID, period) // June has no movements

		_, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		assert.ErrorIs(t, err, shared.ErrPeriodNotClosed)

		_, err = f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: may.Year, Period: may.Period,
		})
		require.NoError(t, err)

		response, err := f.service.StartClose(ctx, StartCloseRequest{
			PlantID: plantID, Year: period.Year, Period: period.Period,
		})
		require.NoError(t, err)
		assert.Equal(t, periodclose.RunStatusCompleted, response.Status)
	})
}

func TestCloseService_AccumulateWIP(t *testing.T) {
	ctx := context.Background()
	plantID := uuid.New()
	period := valueobject.FiscalPeriod{Year: 2026, Period: 7}
	orderID := uuid.New()

	t.Run("first confirmation opens the position", func(t *testing.T) {
		f := newCloseFixture()

		response, err := f.service.AccumulateWIP(ctx, AccumulateWIPRequest{
			ProductionOrderID: orderID,
			MaterialID:        uuid.New(),
			PlantID:           plantID,
			Year:              period.Year,
			Period:            period.Period,
			MaterialCost:      decimal.NewFromInt(100),
			LaborCost:         decimal.NewFromInt(40),
		})
		require.NoError(t, err)
		assert.True(t, response.TotalCost.Equal(decimal.NewFromInt(140)))

		// Further confirmations accumulate on the same position
		response, err = f.service.AccumulateWIP(ctx, AccumulateWIPRequest{
			ProductionOrderID: orderID,
			MaterialID:        uuid.New(),
			PlantID:           plantID,
			Year:              period.Year,
			Period:            period.Period,
			MachineCost:       decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		assert.True(t, response.TotalCost.Equal(decimal.NewFromInt(150)))
	})

	t.Run("accumulation into a locked period is rejected", func(t *testing.T) {
		f := newCloseFixture()
		f.lockRepo.locked[lockKey(plantID, period)] = true

		_, err := f.service.AccumulateWIP(ctx, AccumulateWIPRequest{
			ProductionOrderID: orderID,
			MaterialID:        uuid.New(),
			PlantID:           plantID,
			Year:              period.Year,
			Period:            period.Period,
			MaterialCost:      decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrPeriodLocked)
	})
}

func TestCloseService_Report(t *testing.T) {
	ctx := context.Background()
	plantID := uuid.New()
	materialID := uuid.New()
	period := valueobject.FiscalPeriod{Year: 2026, Period: 7}

	f := newCloseFixture()
	f.seedPeriod(t, materialID, plantID, period)

	_, err := f.service.StartClose(ctx, StartCloseRequest{
		PlantID: plantID, Year: period.Year, Period: period.Period,
	})
	require.NoError(t, err)

	report, err := f.service.Report(ctx, plantID, period.Year, period.Period)
	require.NoError(t, err)

	assert.Equal(t, periodclose.RunStatusCompleted, report.Run.Status)
	assert.True(t, report.Report.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, report.Report.TotalUnfavorable.Equal(decimal.NewFromInt(200)))
	assert.True(t, report.Report.ByCategory[variance.CategoryMaterial].Equal(decimal.NewFromInt(200)))
	require.Len(t, report.Report.TopUnfavorable, 1)
	assert.Equal(t, materialID, report.Report.TopUnfavorable[0].MaterialID)
}
