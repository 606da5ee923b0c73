package variance

import (
	"context"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CostVarianceRepository persists classified variance records
type CostVarianceRepository interface {
	Create(ctx context.Context, variance *CostVariance) error
	CreateBatch(ctx context.Context, variances []*CostVariance) error
	FindByID(ctx context.Context, id uuid.UUID) (*CostVariance, error)
	FindByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, filter shared.Filter) ([]*CostVariance, int64, error)
	FindUnsettledByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*CostVariance, error)
	// ExistsForPeriod reports whether the analyzer already materialized
	// records for the period; the close uses it to keep re-runs idempotent.
	ExistsForPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error)
	// SaveWithLock persists the settlement transition with a compare-and-swap
	// on the version and returns ErrConcurrencyConflict when it fails.
	SaveWithLock(ctx context.Context, variance *CostVariance, expectedVersion int) error
}
