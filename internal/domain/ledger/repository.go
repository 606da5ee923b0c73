package ledger

import (
	"context"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// MaterialLedgerEntryRepository persists ledger entries. The ledger is
// append-only: there is no update or delete.
type MaterialLedgerEntryRepository interface {
	Create(ctx context.Context, entry *MaterialLedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialLedgerEntry, error)
	FindByMaterialAndPeriod(ctx context.Context, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*MaterialLedgerEntry, error)
	FindByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, filter shared.Filter) ([]*MaterialLedgerEntry, int64, error)
	// NextSequenceNo returns the next posting sequence for a material/plant
	NextSequenceNo(ctx context.Context, materialID, plantID uuid.UUID) (int64, error)
	// MaterialsMovedInPeriod lists the distinct materials with at least one
	// entry in the period; the close iterates over this set.
	MaterialsMovedInPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]uuid.UUID, error)
	// LastMovementPeriodBefore returns the most recent period strictly
	// before the given one that has ledger entries for the plant, or
	// ErrNotFound when there was never any earlier activity.
	LastMovementPeriodBefore(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (valueobject.FiscalPeriod, error)
}

// MaterialPriceRepository persists the running price state per
// material/plant/view.
type MaterialPriceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialPrice, error)
	FindByMaterial(ctx context.Context, materialID, plantID uuid.UUID) ([]*MaterialPrice, error)
	FindByMaterialAndView(ctx context.Context, materialID, plantID uuid.UUID, view ValuationView) (*MaterialPrice, error)
	Save(ctx context.Context, price *MaterialPrice) error
	// SaveWithLock persists with a compare-and-swap on the version read at
	// load time and returns ErrConcurrencyConflict when it no longer matches.
	SaveWithLock(ctx context.Context, price *MaterialPrice, expectedVersion int) error
}
