package landedcost

import (
	"context"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// LandedCostDocumentRepository persists landed cost documents with their
// lines and indirect cost components.
type LandedCostDocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LandedCostDocument, error)
	FindByStatus(ctx context.Context, status DocumentStatus, filter shared.Filter) ([]*LandedCostDocument, int64, error)
	Save(ctx context.Context, document *LandedCostDocument) error
	// SaveWithLock persists lifecycle transitions with a compare-and-swap on
	// the version and returns ErrConcurrencyConflict when it fails.
	SaveWithLock(ctx context.Context, document *LandedCostDocument, expectedVersion int) error
}
