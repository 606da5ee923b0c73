package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/domain/variance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCostVarianceRepository implements CostVarianceRepository using GORM
type GormCostVarianceRepository struct {
	db *gorm.DB
}

// NewGormCostVarianceRepository creates a new repository
func NewGormCostVarianceRepository(db *gorm.DB) *GormCostVarianceRepository {
	return &GormCostVarianceRepository{db: db}
}

// Create persists one variance record
func (r *GormCostVarianceRepository) Create(ctx context.Context, v *variance.CostVariance) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// CreateBatch persists a set of variance records in one insert
func (r *GormCostVarianceRepository) CreateBatch(ctx context.Context, variances []*variance.CostVariance) error {
	if len(variances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(variances, 100).Error
}

// FindByID finds a variance record by ID
func (r *GormCostVarianceRepository) FindByID(ctx context.Context, id uuid.UUID) (*variance.CostVariance, error) {
	var v variance.CostVariance
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindByPeriod returns a plant's variance records for a period with pagination
func (r *GormCostVarianceRepository) FindByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, filter shared.Filter) ([]*variance.CostVariance, int64, error) {
	base := r.db.WithContext(ctx).Model(&variance.CostVariance{}).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var variances []*variance.CostVariance
	if err := applyFilter(base, filter).Find(&variances).Error; err != nil {
		return nil, 0, err
	}
	return variances, total, nil
}

// FindUnsettledByPeriod returns a period's variance records not yet settled
func (r *GormCostVarianceRepository) FindUnsettledByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*variance.CostVariance, error) {
	var variances []*variance.CostVariance
	err := r.db.WithContext(ctx).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ? AND settled = ?",
			plantID, period.Year, period.Period, false).
		Order("created_at ASC").
		Find(&variances).Error
	if err != nil {
		return nil, err
	}
	return variances, nil
}

// ExistsForPeriod reports whether any variance record exists for the period
func (r *GormCostVarianceRepository) ExistsForPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&variance.CostVariance{}).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveWithLock persists the settlement transition with a compare-and-swap
func (r *GormCostVarianceRepository) SaveWithLock(ctx context.Context, v *variance.CostVariance, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(v).
		Where("id = ? AND version = ?", v.ID, expectedVersion).
		Updates(map[string]interface{}{
			"settled":        v.Settled,
			"settlement_ref": v.SettlementRef,
			"settled_at":     v.SettledAt,
			"version":        v.Version,
			"updated_at":     v.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormCostVarianceRepository implements the interface
var _ variance.CostVarianceRepository = (*GormCostVarianceRepository)(nil)
