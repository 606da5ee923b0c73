package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPeriodCloseRunRepository implements PeriodCloseRunRepository using GORM
type GormPeriodCloseRunRepository struct {
	db *gorm.DB
}

// NewGormPeriodCloseRunRepository creates a new repository
func NewGormPeriodCloseRunRepository(db *gorm.DB) *GormPeriodCloseRunRepository {
	return &GormPeriodCloseRunRepository{db: db}
}

// Create persists a new close run
func (r *GormPeriodCloseRunRepository) Create(ctx context.Context, run *periodclose.PeriodCloseRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FindByID finds a close run by ID
func (r *GormPeriodCloseRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*periodclose.PeriodCloseRun, error) {
	var run periodclose.PeriodCloseRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindLatestByPeriod returns the most recent run for a period
func (r *GormPeriodCloseRunRepository) FindLatestByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (*periodclose.PeriodCloseRun, error) {
	var run periodclose.PeriodCloseRun
	err := r.db.WithContext(ctx).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// SaveWithLock persists run progress with a compare-and-swap on the version
func (r *GormPeriodCloseRunRepository) SaveWithLock(ctx context.Context, run *periodclose.PeriodCloseRun, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(run).
		Where("id = ? AND version = ?", run.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                 run.Status,
			"actual_cost_calculated": run.ActualCostCalculated,
			"variances_calculated":   run.VariancesCalculated,
			"wip_calculated":         run.WIPCalculated,
			"settlement_posted":      run.SettlementPosted,
			"failed_step":            run.FailedStep,
			"error_message":          run.ErrorMessage,
			"materials_processed":    run.MaterialsProcessed,
			"total_variance_amount":  run.TotalVarianceAmount,
			"completed_at":           run.CompletedAt,
			"version":                run.Version,
			"updated_at":             run.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormPeriodCloseRunRepository implements the interface
var _ periodclose.PeriodCloseRunRepository = (*GormPeriodCloseRunRepository)(nil)

// GormWIPPositionRepository implements WIPPositionRepository using GORM
type GormWIPPositionRepository struct {
	db *gorm.DB
}

// NewGormWIPPositionRepository creates a new repository
func NewGormWIPPositionRepository(db *gorm.DB) *GormWIPPositionRepository {
	return &GormWIPPositionRepository{db: db}
}

// FindByID finds a WIP position by ID
func (r *GormWIPPositionRepository) FindByID(ctx context.Context, id uuid.UUID) (*periodclose.WIPPosition, error) {
	var position periodclose.WIPPosition
	if err := r.db.WithContext(ctx).First(&position, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &position, nil
}

// FindByOrderAndPeriod finds a production order's position in a period
func (r *GormWIPPositionRepository) FindByOrderAndPeriod(ctx context.Context, productionOrderID uuid.UUID, period valueobject.FiscalPeriod) (*periodclose.WIPPosition, error) {
	var position periodclose.WIPPosition
	err := r.db.WithContext(ctx).
		Where("production_order_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			productionOrderID, period.Year, period.Period).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &position, nil
}

// FindUnsettledByPeriod returns a period's open positions
func (r *GormWIPPositionRepository) FindUnsettledByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*periodclose.WIPPosition, error) {
	var positions []*periodclose.WIPPosition
	err := r.db.WithContext(ctx).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ? AND settled = ?",
			plantID, period.Year, period.Period, false).
		Order("created_at ASC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// Save creates or updates a WIP position
func (r *GormWIPPositionRepository) Save(ctx context.Context, position *periodclose.WIPPosition) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// SaveWithLock persists with a compare-and-swap on the expected version
func (r *GormWIPPositionRepository) SaveWithLock(ctx context.Context, position *periodclose.WIPPosition, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(position).
		Where("id = ? AND version = ?", position.ID, expectedVersion).
		Updates(map[string]interface{}{
			"material_cost":  position.MaterialCost,
			"labor_cost":     position.LaborCost,
			"machine_cost":   position.MachineCost,
			"total_cost":     position.TotalCost,
			"settled":        position.Settled,
			"settlement_ref": position.SettlementRef,
			"settled_at":     position.SettledAt,
			"version":        position.Version,
			"updated_at":     position.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormWIPPositionRepository implements the interface
var _ periodclose.WIPPositionRepository = (*GormWIPPositionRepository)(nil)

// GormPeriodLockRepository implements PeriodLockRepository using GORM
type GormPeriodLockRepository struct {
	db *gorm.DB
}

// NewGormPeriodLockRepository creates a new repository
func NewGormPeriodLockRepository(db *gorm.DB) *GormPeriodLockRepository {
	return &GormPeriodLockRepository{db: db}
}

// Acquire locks a period. The unique index on plant/year/period makes a
// second acquisition a no-op instead of an error.
func (r *GormPeriodLockRepository) Acquire(ctx context.Context, lock *periodclose.PeriodLock) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "plant_id"}, {Name: "fiscal_year"}, {Name: "fiscal_period"},
			},
			DoNothing: true,
		}).
		Create(lock).Error
}

// IsLocked reports whether a period is locked for a plant
func (r *GormPeriodLockRepository) IsLocked(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&periodclose.PeriodLock{}).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Release removes a period lock
func (r *GormPeriodLockRepository) Release(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) error {
	return r.db.WithContext(ctx).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period).
		Delete(&periodclose.PeriodLock{}).Error
}

// Ensure GormPeriodLockRepository implements the interface
var _ periodclose.PeriodLockRepository = (*GormPeriodLockRepository)(nil)
