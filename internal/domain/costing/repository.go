package costing

import (
	"context"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// CostEstimateRepository defines the interface for cost estimate persistence
type CostEstimateRepository interface {
	// FindByID finds an estimate by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CostEstimate, error)

	// FindActiveStandard finds the active STANDARD estimate for a material/plant
	FindActiveStandard(ctx context.Context, materialID, plantID uuid.UUID) (*CostEstimate, error)

	// FindByMaterial finds all estimates for a material at a plant
	FindByMaterial(ctx context.Context, materialID, plantID uuid.UUID, filter shared.Filter) ([]CostEstimate, error)

	// FindByStatus finds estimates with a given status
	FindByStatus(ctx context.Context, status EstimateStatus, filter shared.Filter) ([]CostEstimate, error)

	// Save creates or updates an estimate with its components
	Save(ctx context.Context, estimate *CostEstimate) error

	// SaveWithLock saves with optimistic locking (compare-and-swap on version)
	SaveWithLock(ctx context.Context, estimate *CostEstimate) error

	// CountByStatus counts estimates with a given status
	CountByStatus(ctx context.Context, status EstimateStatus) (int64, error)
}
