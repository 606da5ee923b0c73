package ledger

import (
	"context"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingService valuates material movements and appends them to the
// material ledger. One posting writes a single immutable entry plus the
// per-view price recalculations; postings into a locked period are
// rejected.
type PostingService struct {
	entryRepo      ledger.MaterialLedgerEntryRepository
	priceRepo      ledger.MaterialPriceRepository
	lockRepo       periodclose.PeriodLockRepository
	standardPrices costing.StandardPriceLookup
	eventPublisher shared.EventPublisher
	locks          *materialLock
	allowNegative  bool
}

// NewPostingService creates a new PostingService
func NewPostingService(
	entryRepo ledger.MaterialLedgerEntryRepository,
	priceRepo ledger.MaterialPriceRepository,
	lockRepo periodclose.PeriodLockRepository,
	standardPrices costing.StandardPriceLookup,
	allowNegative bool,
) *PostingService {
	return &PostingService{
		entryRepo:      entryRepo,
		priceRepo:      priceRepo,
		lockRepo:       lockRepo,
		standardPrices: standardPrices,
		locks:          newMaterialLock(),
		allowNegative:  allowNegative,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PostingService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// InitializeMaterial creates the per-view price records for a material.
// Views configured with the STANDARD method pick up the active standard
// price immediately when one exists.
func (s *PostingService) InitializeMaterial(ctx context.Context, req InitializeMaterialRequest) ([]PriceResponse, error) {
	prices := make([]*ledger.MaterialPrice, 0, len(ledger.AllValuationViews()))

	for _, view := range ledger.AllValuationViews() {
		method, ok := req.Methods[view]
		if !ok {
			method = ledger.PriceMethodMovingAverage
		}

		price, err := ledger.NewMaterialPrice(req.MaterialID, req.PlantID, view, method)
		if err != nil {
			return nil, err
		}

		if method == ledger.PriceMethodStandard {
			standard, found, err := s.standardPrices.StandardUnitCost(ctx, req.MaterialID, req.PlantID)
			if err != nil {
				return nil, err
			}
			if found {
				if err := price.SetStandardPrice(standard); err != nil {
					return nil, err
				}
			}
		}

		if err := s.priceRepo.Save(ctx, price); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}

	return ToPriceResponses(prices), nil
}

// PostMovement valuates one movement under every valuation view and appends
// the resulting entry. Concurrent postings to the same material serialize on
// an in-process lock; a lost cross-process race surfaces as
// ErrConcurrencyConflict and the caller retries the posting.
func (s *PostingService) PostMovement(ctx context.Context, req PostMovementRequest) (*EntryResponse, error) {
	if !req.MovementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}

	date, period := periodOf(req.PostingDate)

	locked, err := s.lockRepo.IsLocked(ctx, req.PlantID, period)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, shared.ErrPeriodLocked
	}

	unlock := s.locks.Lock(req.MaterialID, req.PlantID)
	defer unlock()

	prices, err := s.loadPrices(ctx, req.MaterialID, req.PlantID)
	if err != nil {
		return nil, err
	}

	sequenceNo, err := s.entryRepo.NextSequenceNo(ctx, req.MaterialID, req.PlantID)
	if err != nil {
		return nil, err
	}

	entry, err := ledger.NewMaterialLedgerEntry(
		req.MaterialID, req.PlantID, period, sequenceNo,
		req.MovementType, req.Quantity, date, req.SourceRef,
	)
	if err != nil {
		return nil, err
	}
	entry.ActualPrice = req.UnitPrice

	if req.MovementType.IsInbound() || (req.MovementType == ledger.MovementInvoice && req.Quantity.IsPositive()) {
		standard, found, err := s.standardPrices.StandardUnitCost(ctx, req.MaterialID, req.PlantID)
		if err != nil {
			return nil, err
		}
		if found {
			entry.RecordStandardDeviation(standard, req.UnitPrice)
		}
	}

	// An invoice carrying the actual purchase price adjusts stock value by
	// its deviation from the standard the receipt was valued at.
	if req.MovementType == ledger.MovementInvoice && req.Amount.IsZero() && req.Quantity.IsPositive() {
		req.Amount = entry.PriceVariance
	}

	events := make([]shared.DomainEvent, 0, len(prices)+1)
	for _, price := range prices {
		expectedVersion := price.Version
		oldPrice := price.Price

		effective, err := s.applyMovement(price, req)
		if err != nil {
			return nil, err
		}

		if !req.MovementType.IsValueOnly() {
			if err := entry.AddValuation(price.View, price.Method, effective); err != nil {
				return nil, err
			}
		}

		if err := s.priceRepo.SaveWithLock(ctx, price, expectedVersion); err != nil {
			return nil, err
		}

		if !price.Price.Equal(oldPrice) {
			events = append(events, ledger.NewMaterialRevaluedEvent(price, oldPrice))
		}
	}

	if req.MovementType.IsValueOnly() {
		entry.Amount = req.Amount.Round(valueobject.MoneyScale)
	} else {
		entry.Amount = req.Quantity.Mul(req.UnitPrice).Round(valueobject.MoneyScale)
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	events = append(events, ledger.NewMovementPostedEvent(entry))
	s.publish(ctx, events...)

	response := ToEntryResponse(entry)
	return &response, nil
}

// applyMovement mutates one view's price record and returns the unit price
// the entry is valued at under that view.
func (s *PostingService) applyMovement(price *ledger.MaterialPrice, req PostMovementRequest) (decimal.Decimal, error) {
	switch {
	case req.MovementType.IsInbound():
		effective := price.EffectivePrice(req.UnitPrice)
		if err := price.ApplyReceipt(req.Quantity, req.UnitPrice); err != nil {
			return decimal.Zero, err
		}
		return effective, nil

	case req.MovementType.IsOutbound():
		effective := price.EffectivePrice(req.UnitPrice)
		if err := price.ApplyIssue(req.Quantity, s.allowNegative); err != nil {
			return decimal.Zero, err
		}
		return effective, nil

	default:
		price.ApplyValueAdjustment(req.Amount)
		return price.Price, nil
	}
}

// loadPrices fetches the material's price records, creating moving-average
// defaults for materials never explicitly initialized.
func (s *PostingService) loadPrices(ctx context.Context, materialID, plantID uuid.UUID) ([]*ledger.MaterialPrice, error) {
	prices, err := s.priceRepo.FindByMaterial(ctx, materialID, plantID)
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		return prices, nil
	}

	if _, err := s.InitializeMaterial(ctx, InitializeMaterialRequest{
		MaterialID: materialID,
		PlantID:    plantID,
		Methods:    map[ledger.ValuationView]ledger.PriceMethod{},
	}); err != nil {
		return nil, err
	}

	return s.priceRepo.FindByMaterial(ctx, materialID, plantID)
}

// UpdateStandardPrices pushes a newly activated standard unit cost into the
// material's STANDARD-method price records.
func (s *PostingService) UpdateStandardPrices(ctx context.Context, materialID, plantID uuid.UUID, unitCost decimal.Decimal) error {
	unlock := s.locks.Lock(materialID, plantID)
	defer unlock()

	prices, err := s.priceRepo.FindByMaterial(ctx, materialID, plantID)
	if err != nil {
		return err
	}

	for _, price := range prices {
		if price.Method != ledger.PriceMethodStandard {
			continue
		}
		expectedVersion := price.Version
		oldPrice := price.Price
		if err := price.SetStandardPrice(unitCost); err != nil {
			return err
		}
		if err := s.priceRepo.SaveWithLock(ctx, price, expectedVersion); err != nil {
			return err
		}
		if !price.Price.Equal(oldPrice) {
			s.publish(ctx, ledger.NewMaterialRevaluedEvent(price, oldPrice))
		}
	}
	return nil
}

// GetEntry retrieves one ledger entry
func (s *PostingService) GetEntry(ctx context.Context, entryID uuid.UUID) (*EntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	response := ToEntryResponse(entry)
	return &response, nil
}

// GetMaterialLedger returns a material's entries for one period in posting order
func (s *PostingService) GetMaterialLedger(ctx context.Context, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]EntryResponse, error) {
	entries, err := s.entryRepo.FindByMaterialAndPeriod(ctx, materialID, plantID, period)
	if err != nil {
		return nil, err
	}
	return ToEntryResponses(entries), nil
}

// ListEntries returns a plant's entries for one period with pagination
func (s *PostingService) ListEntries(ctx context.Context, plantID uuid.UUID, filter EntryListFilter) ([]EntryResponse, int64, error) {
	period, err := valueobject.NewFiscalPeriod(filter.Year, filter.Period)
	if err != nil {
		return nil, 0, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	entries, total, err := s.entryRepo.FindByPeriod(ctx, plantID, period, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToEntryResponses(entries), total, nil
}

// GetPrices returns a material's per-view price records
func (s *PostingService) GetPrices(ctx context.Context, materialID, plantID uuid.UUID) ([]PriceResponse, error) {
	prices, err := s.priceRepo.FindByMaterial(ctx, materialID, plantID)
	if err != nil {
		return nil, err
	}
	return ToPriceResponses(prices), nil
}
