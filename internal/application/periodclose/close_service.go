package periodclose

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/domain/variance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseService orchestrates the four-step period close: actual cost
// determination, variance calculation, WIP settlement and variance
// settlement. Each step commits individually so a crashed or failed run
// resumes at the first incomplete step.
type CloseService struct {
	runRepo         periodclose.PeriodCloseRunRepository
	wipRepo         periodclose.WIPPositionRepository
	lockRepo        periodclose.PeriodLockRepository
	entryRepo       ledger.MaterialLedgerEntryRepository
	priceRepo       ledger.MaterialPriceRepository
	varianceRepo    variance.CostVarianceRepository
	analyzer        *variance.Analyzer
	poster          SettlementPoster
	eventPublisher  shared.EventPublisher
	topContributors int
}

// NewCloseService creates a new CloseService
func NewCloseService(
	runRepo periodclose.PeriodCloseRunRepository,
	wipRepo periodclose.WIPPositionRepository,
	lockRepo periodclose.PeriodLockRepository,
	entryRepo ledger.MaterialLedgerEntryRepository,
	priceRepo ledger.MaterialPriceRepository,
	varianceRepo variance.CostVarianceRepository,
	poster SettlementPoster,
	topContributors int,
) *CloseService {
	if poster == nil {
		poster = NoopSettlementPoster{}
	}
	return &CloseService{
		runRepo:         runRepo,
		wipRepo:         wipRepo,
		lockRepo:        lockRepo,
		entryRepo:       entryRepo,
		priceRepo:       priceRepo,
		varianceRepo:    varianceRepo,
		analyzer:        variance.NewAnalyzer(),
		poster:          poster,
		topContributors: topContributors,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CloseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CloseService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *CloseService) publishRunEvents(ctx context.Context, run *periodclose.PeriodCloseRun) {
	events := run.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	s.publish(ctx, events...)
	run.ClearDomainEvents()
}

// StartClose runs the close for a period. Closing an already-COMPLETED
// period returns the prior result; a FAILED run, or a RUNNING run left
// behind by an interrupted close, resumes at the first incomplete step.
// The most recent earlier period with ledger activity must be closed
// first.
func (s *CloseService) StartClose(ctx context.Context, req StartCloseRequest) (*CloseRunResponse, error) {
	period, err := valueobject.NewFiscalPeriod(req.Year, req.Period)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	if err := s.checkChronology(ctx, req.PlantID, period); err != nil {
		return nil, err
	}

	run, err := s.runRepo.FindLatestByPeriod(ctx, req.PlantID, period)
	switch {
	case err == nil:
		switch run.Status {
		case periodclose.RunStatusCompleted:
			response := ToCloseRunResponse(run)
			return &response, nil
		case periodclose.RunStatusRunning:
			// Interrupted mid-close; execute picks it up at the first
			// incomplete step. A concurrent invoker on the same run loses
			// the version check on the next step commit.
		default:
			expectedVersion := run.Version
			if err := run.Resume(); err != nil {
				return nil, err
			}
			if err := s.runRepo.SaveWithLock(ctx, run, expectedVersion); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, shared.ErrNotFound):
		run, err = periodclose.NewPeriodCloseRun(req.PlantID, period)
		if err != nil {
			return nil, err
		}
		if err := s.runRepo.Create(ctx, run); err != nil {
			return nil, err
		}
		s.publishRunEvents(ctx, run)
	default:
		return nil, err
	}

	return s.execute(ctx, run, period)
}

// checkChronology enforces closing in period order. Periods without any
// ledger activity need no close, so the check walks back to the most
// recent earlier period with movements and requires its close to be
// completed. Closing that period ran the same check in turn, which covers
// everything older.
func (s *CloseService) checkChronology(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) error {
	prior, err := s.entryRepo.LastMovementPeriodBefore(ctx, plantID, period)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	priorRun, err := s.runRepo.FindLatestByPeriod(ctx, plantID, prior)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ErrPeriodNotClosed
	}
	if err != nil {
		return err
	}
	if !priorRun.IsCompleted() {
		return shared.ErrPeriodNotClosed
	}
	return nil
}

func (s *CloseService) execute(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod) (*CloseRunResponse, error) {
	lock, err := periodclose.NewPeriodLock(run.PlantID, period)
	if err != nil {
		return nil, err
	}
	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		return nil, err
	}

	for _, step := range periodclose.OrderedSteps() {
		if run.StepDone(step) {
			continue
		}

		if err := s.runStep(ctx, run, period, step); err != nil {
			return nil, s.failRun(ctx, run, period, step, err)
		}

		expectedVersion := run.Version
		if err := run.CompleteStep(step); err != nil {
			return nil, err
		}
		if err := s.runRepo.SaveWithLock(ctx, run, expectedVersion); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return nil, shared.NewDomainError("CLOSE_IN_PROGRESS", "Another close run is advancing this period")
			}
			return nil, err
		}
		s.publishRunEvents(ctx, run)
	}

	response := ToCloseRunResponse(run)
	return &response, nil
}

// failRun records the failure, releases the period lock so postings can
// continue, and returns the original cause.
func (s *CloseService) failRun(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod, step periodclose.CloseStep, cause error) error {
	expectedVersion := run.Version
	if err := run.Fail(step, cause); err != nil {
		return err
	}
	if err := s.runRepo.SaveWithLock(ctx, run, expectedVersion); err != nil {
		return err
	}
	s.publishRunEvents(ctx, run)

	if err := s.lockRepo.Release(ctx, run.PlantID, period); err != nil {
		return err
	}
	return cause
}

func (s *CloseService) runStep(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod, step periodclose.CloseStep) error {
	switch step {
	case periodclose.StepActualCost:
		return s.stepActualCost(ctx, run, period)
	case periodclose.StepVariances:
		return s.stepVariances(ctx, run, period)
	case periodclose.StepWIP:
		return s.stepWIP(ctx, run, period)
	case periodclose.StepSettlement:
		return s.stepSettlement(ctx, run, period)
	}
	return shared.NewDomainError("UNKNOWN_STEP", "Unknown close step")
}

// stepActualCost determines the periodic actual price for every
// ACTUAL-method price record of a material that moved in the period. The
// actual price is the quantity-weighted average of the period's inbound
// postings.
func (s *CloseService) stepActualCost(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod) error {
	materials, err := s.entryRepo.MaterialsMovedInPeriod(ctx, run.PlantID, period)
	if err != nil {
		return err
	}

	for _, materialID := range materials {
		entries, err := s.entryRepo.FindByMaterialAndPeriod(ctx, materialID, run.PlantID, period)
		if err != nil {
			return err
		}

		actualPrice, ok := weightedActualPrice(entries)
		if !ok {
			continue
		}

		prices, err := s.priceRepo.FindByMaterial(ctx, materialID, run.PlantID)
		if err != nil {
			return err
		}
		for _, price := range prices {
			if price.Method != ledger.PriceMethodActual || price.Fixed {
				continue
			}
			expectedVersion := price.Version
			if err := price.DetermineActualPrice(actualPrice); err != nil {
				return err
			}
			if err := s.priceRepo.SaveWithLock(ctx, price, expectedVersion); err != nil {
				return err
			}
			s.publish(ctx, ledger.NewActualPriceDeterminedEvent(price, period))
		}
	}
	return nil
}

// weightedActualPrice computes sum(qty*price)/sum(qty) over inbound entries
func weightedActualPrice(entries []*ledger.MaterialLedgerEntry) (decimal.Decimal, bool) {
	totalQuantity := decimal.Zero
	totalValue := decimal.Zero
	for _, entry := range entries {
		if !entry.MovementType.IsInbound() {
			continue
		}
		totalQuantity = totalQuantity.Add(entry.Quantity)
		totalValue = totalValue.Add(entry.Quantity.Mul(entry.ActualPrice))
	}
	if !totalQuantity.IsPositive() {
		return decimal.Zero, false
	}
	return totalValue.Div(totalQuantity).Round(valueobject.PriceScale), true
}

// stepVariances materializes classified variance records from the period's
// deviation-bearing ledger entries. Re-running against a period that
// already has records recomputes the totals without duplicating them.
func (s *CloseService) stepVariances(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod) error {
	materials, err := s.entryRepo.MaterialsMovedInPeriod(ctx, run.PlantID, period)
	if err != nil {
		return err
	}

	exists, err := s.varianceRepo.ExistsForPeriod(ctx, run.PlantID, period)
	if err != nil {
		return err
	}
	if exists {
		records, _, err := s.varianceRepo.FindByPeriod(ctx, run.PlantID, period, shared.Filter{})
		if err != nil {
			return err
		}
		run.RecordResult(len(materials), totalVariance(records))
		return nil
	}

	lines := make([]variance.ActualLine, 0)
	for _, materialID := range materials {
		entries, err := s.entryRepo.FindByMaterialAndPeriod(ctx, materialID, run.PlantID, period)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.HasStandard() {
				continue
			}
			lines = append(lines, variance.ActualLine{
				MaterialID:       entry.MaterialID,
				PlantID:          entry.PlantID,
				Period:           period,
				Category:         variance.CategoryMaterial,
				StandardPrice:    *entry.StandardPrice,
				ActualPrice:      entry.ActualPrice,
				StandardQuantity: entry.Quantity,
				ActualQuantity:   entry.Quantity,
				SourceRef:        entry.SourceRef,
			})
		}
	}

	records, err := s.analyzer.AnalyzeAll(lines)
	if err != nil {
		return err
	}
	if err := s.varianceRepo.CreateBatch(ctx, records); err != nil {
		return err
	}
	for _, record := range records {
		s.publish(ctx, variance.NewVarianceRecordedEvent(record))
	}

	run.RecordResult(len(materials), totalVariance(records))
	return nil
}

func totalVariance(records []*variance.CostVariance) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total
}

// stepWIP settles every open WIP position of the period exactly once and
// hands the settlement values to financial accounting.
func (s *CloseService) stepWIP(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod) error {
	positions, err := s.wipRepo.FindUnsettledByPeriod(ctx, run.PlantID, period)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}

	settlementRef := settlementRef(run)
	instructions := make([]SettlementInstruction, 0, len(positions))
	for _, position := range positions {
		instructions = append(instructions, SettlementInstruction{
			Account:   AccountWIPSettlement,
			Amount:    position.TotalCost,
			Currency:  valueobject.DefaultCurrency,
			PeriodRef: period.String(),
		})
	}
	if err := s.poster.PostSettlement(ctx, instructions); err != nil {
		return err
	}

	for _, position := range positions {
		expectedVersion := position.Version
		if err := position.Settle(settlementRef); err != nil {
			return err
		}
		if err := s.wipRepo.SaveWithLock(ctx, position, expectedVersion); err != nil {
			return err
		}
	}
	return nil
}

// stepSettlement posts one settlement instruction per open variance record
// and stamps each record settled.
func (s *CloseService) stepSettlement(ctx context.Context, run *periodclose.PeriodCloseRun, period valueobject.FiscalPeriod) error {
	records, err := s.varianceRepo.FindUnsettledByPeriod(ctx, run.PlantID, period)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	settlementRef := settlementRef(run)
	instructions := make([]SettlementInstruction, 0, len(records))
	for _, record := range records {
		instructions = append(instructions, SettlementInstruction{
			Account:   AccountPriceDifference,
			Amount:    record.Amount,
			Currency:  valueobject.DefaultCurrency,
			PeriodRef: period.String(),
		})
	}
	if err := s.poster.PostSettlement(ctx, instructions); err != nil {
		return err
	}

	for _, record := range records {
		expectedVersion := record.Version
		if err := record.Settle(settlementRef); err != nil {
			return err
		}
		if err := s.varianceRepo.SaveWithLock(ctx, record, expectedVersion); err != nil {
			return err
		}
		events := record.GetDomainEvents()
		s.publish(ctx, events...)
		record.ClearDomainEvents()
	}
	return nil
}

func settlementRef(run *periodclose.PeriodCloseRun) string {
	return "CLOSE-" + run.ID.String()
}

// GetStatus returns the latest close run for a period
func (s *CloseService) GetStatus(ctx context.Context, plantID uuid.UUID, year, period int) (*CloseRunResponse, error) {
	fiscalPeriod, err := valueobject.NewFiscalPeriod(year, period)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	run, err := s.runRepo.FindLatestByPeriod(ctx, plantID, fiscalPeriod)
	if err != nil {
		return nil, err
	}
	response := ToCloseRunResponse(run)
	return &response, nil
}

// Report aggregates a period's variance records into the close report
func (s *CloseService) Report(ctx context.Context, plantID uuid.UUID, year, period int) (*ReportResponse, error) {
	fiscalPeriod, err := valueobject.NewFiscalPeriod(year, period)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	run, err := s.runRepo.FindLatestByPeriod(ctx, plantID, fiscalPeriod)
	if err != nil {
		return nil, err
	}

	records, _, err := s.varianceRepo.FindByPeriod(ctx, plantID, fiscalPeriod, shared.Filter{})
	if err != nil {
		return nil, err
	}

	return &ReportResponse{
		Run:    ToCloseRunResponse(run),
		Report: variance.BuildPeriodReport(plantID, fiscalPeriod, records, s.topContributors),
	}, nil
}

// AccumulateWIP adds confirmed production costs to an order's WIP position,
// opening the position on first confirmation. Accumulation into a locked
// period is rejected.
func (s *CloseService) AccumulateWIP(ctx context.Context, req AccumulateWIPRequest) (*WIPResponse, error) {
	period, err := valueobject.NewFiscalPeriod(req.Year, req.Period)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	locked, err := s.lockRepo.IsLocked(ctx, req.PlantID, period)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, shared.ErrPeriodLocked
	}

	position, err := s.wipRepo.FindByOrderAndPeriod(ctx, req.ProductionOrderID, period)
	switch {
	case err == nil:
		expectedVersion := position.Version
		if err := position.Accumulate(req.MaterialCost, req.LaborCost, req.MachineCost); err != nil {
			return nil, err
		}
		if err := s.wipRepo.SaveWithLock(ctx, position, expectedVersion); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		position, err = periodclose.NewWIPPosition(req.ProductionOrderID, req.MaterialID, req.PlantID, period)
		if err != nil {
			return nil, err
		}
		if err := position.Accumulate(req.MaterialCost, req.LaborCost, req.MachineCost); err != nil {
			return nil, err
		}
		if err := s.wipRepo.Save(ctx, position); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	response := ToWIPResponse(position)
	return &response, nil
}

// ListOpenWIP lists a period's unsettled WIP positions
func (s *CloseService) ListOpenWIP(ctx context.Context, plantID uuid.UUID, year, period int) ([]WIPResponse, error) {
	fiscalPeriod, err := valueobject.NewFiscalPeriod(year, period)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	positions, err := s.wipRepo.FindUnsettledByPeriod(ctx, plantID, fiscalPeriod)
	if err != nil {
		return nil, err
	}
	return ToWIPResponses(positions), nil
}
