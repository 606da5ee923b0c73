package costing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimateService handles cost estimation use cases: calculating, releasing
// and marking estimates as the active standard.
type EstimateService struct {
	estimateRepo   costing.CostEstimateRepository
	engine         *costing.EstimationEngine
	eventPublisher shared.EventPublisher
}

// NewEstimateService creates a new EstimateService
func NewEstimateService(estimateRepo costing.CostEstimateRepository, engine *costing.EstimationEngine) *EstimateService {
	return &EstimateService{
		estimateRepo: estimateRepo,
		engine:       engine,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *EstimateService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *EstimateService) publishDomainEvents(ctx context.Context, estimate *costing.CostEstimate) {
	if s.eventPublisher == nil {
		return
	}
	events := estimate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	estimate.ClearDomainEvents()
}

// Calculate runs the estimation engine and persists the resulting draft
func (s *EstimateService) Calculate(ctx context.Context, req CalculateEstimateRequest) (*EstimateResponse, error) {
	input := costing.EstimationInput{
		MaterialID:     req.MaterialID,
		PlantID:        req.PlantID,
		CostingVersion: req.CostingVersion,
		LotSize:        req.LotSize,
		BOMVersion:     req.BOMVersion,
		RoutingVersion: req.RoutingVersion,
		ValidFrom:      time.Now(),
	}
	if req.CostingSheetID != nil {
		input.CostingSheetID = *req.CostingSheetID
	}
	if req.ValidFrom != nil {
		input.ValidFrom = *req.ValidFrom
	}

	estimate, err := s.engine.Calculate(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.estimateRepo.Save(ctx, estimate); err != nil {
		return nil, err
	}

	response := ToEstimateResponse(estimate)
	return &response, nil
}

// Release transitions a draft estimate to RELEASED
func (s *EstimateService) Release(ctx context.Context, estimateID uuid.UUID) (*EstimateResponse, error) {
	estimate, err := s.estimateRepo.FindByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	if err := estimate.Release(); err != nil {
		return nil, err
	}

	if err := s.estimateRepo.SaveWithLock(ctx, estimate); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, estimate)

	response := ToEstimateResponse(estimate)
	return &response, nil
}

// MarkStandard promotes a released estimate to the active standard. Any
// previously active standard for the same material/plant is archived in the
// same operation, so at most one standard stays active.
func (s *EstimateService) MarkStandard(ctx context.Context, estimateID uuid.UUID) (*EstimateResponse, error) {
	estimate, err := s.estimateRepo.FindByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	previous, err := s.estimateRepo.FindActiveStandard(ctx, estimate.MaterialID, estimate.PlantID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if previous != nil && previous.ID != estimate.ID {
		if err := previous.Archive(); err != nil {
			return nil, err
		}
		if err := s.estimateRepo.SaveWithLock(ctx, previous); err != nil {
			return nil, err
		}
		s.publishDomainEvents(ctx, previous)
	}

	if err := estimate.MarkStandard(); err != nil {
		return nil, err
	}

	if err := s.estimateRepo.SaveWithLock(ctx, estimate); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, estimate)

	response := ToEstimateResponse(estimate)
	return &response, nil
}

// Archive retires an estimate without a successor
func (s *EstimateService) Archive(ctx context.Context, estimateID uuid.UUID) (*EstimateResponse, error) {
	estimate, err := s.estimateRepo.FindByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	if err := estimate.Archive(); err != nil {
		return nil, err
	}

	if err := s.estimateRepo.SaveWithLock(ctx, estimate); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, estimate)

	response := ToEstimateResponse(estimate)
	return &response, nil
}

// GetByID retrieves an estimate by ID
func (s *EstimateService) GetByID(ctx context.Context, estimateID uuid.UUID) (*EstimateResponse, error) {
	estimate, err := s.estimateRepo.FindByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	response := ToEstimateResponse(estimate)
	return &response, nil
}

// ListByMaterial lists a material's estimates at a plant
func (s *EstimateService) ListByMaterial(ctx context.Context, materialID, plantID uuid.UUID, filter EstimateListFilter) ([]EstimateResponse, error) {
	estimates, err := s.estimateRepo.FindByMaterial(ctx, materialID, plantID, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToEstimateResponses(estimates), nil
}

// ListByStatus lists estimates with a given status
func (s *EstimateService) ListByStatus(ctx context.Context, status costing.EstimateStatus, filter EstimateListFilter) ([]EstimateResponse, error) {
	estimates, err := s.estimateRepo.FindByStatus(ctx, status, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToEstimateResponses(estimates), nil
}

func toDomainFilter(filter EstimateListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
}

// StandardPriceProvider resolves released standard unit costs from the
// estimate store. It backs both the estimation engine's multi-level roll-up
// and the posting service's deviation capture.
type StandardPriceProvider struct {
	estimateRepo costing.CostEstimateRepository
}

// NewStandardPriceProvider creates a new StandardPriceProvider
func NewStandardPriceProvider(estimateRepo costing.CostEstimateRepository) *StandardPriceProvider {
	return &StandardPriceProvider{estimateRepo: estimateRepo}
}

// StandardUnitCost returns the active standard unit cost, if one exists
func (p *StandardPriceProvider) StandardUnitCost(ctx context.Context, materialID, plantID uuid.UUID) (decimal.Decimal, bool, error) {
	estimate, err := p.estimateRepo.FindActiveStandard(ctx, materialID, plantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	price, ok := estimate.StandardPrice()
	return price, ok, nil
}

// Ensure StandardPriceProvider implements the engine's lookup interface
var _ costing.StandardPriceLookup = (*StandardPriceProvider)(nil)
