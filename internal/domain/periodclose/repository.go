package periodclose

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PeriodCloseRunRepository persists close runs, one row per attempt
type PeriodCloseRunRepository interface {
	Create(ctx context.Context, run *PeriodCloseRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*PeriodCloseRun, error)
	// FindLatestByPeriod returns the most recent run for a period, or
	// ErrNotFound when the period was never closed.
	FindLatestByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (*PeriodCloseRun, error)
	// SaveWithLock persists run progress with a compare-and-swap on the
	// version; two concurrent close invocations cannot both advance a step.
	SaveWithLock(ctx context.Context, run *PeriodCloseRun, expectedVersion int) error
}

// WIPPositionRepository persists production-order WIP positions
type WIPPositionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WIPPosition, error)
	FindByOrderAndPeriod(ctx context.Context, productionOrderID uuid.UUID, period valueobject.FiscalPeriod) (*WIPPosition, error)
	FindUnsettledByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*WIPPosition, error)
	Save(ctx context.Context, position *WIPPosition) error
	SaveWithLock(ctx context.Context, position *WIPPosition, expectedVersion int) error
}

// PeriodLockRepository persists period locks
type PeriodLockRepository interface {
	// Acquire locks a period; locking an already-locked period is a no-op
	Acquire(ctx context.Context, lock *PeriodLock) error
	IsLocked(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error)
	// Release removes the lock. A failed close releases its lock so the
	// period reopens for postings until the close is retried.
	Release(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) error
}
