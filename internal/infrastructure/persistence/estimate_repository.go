package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCostEstimateRepository implements CostEstimateRepository using GORM
type GormCostEstimateRepository struct {
	db *gorm.DB
}

// NewGormCostEstimateRepository creates a new GormCostEstimateRepository
func NewGormCostEstimateRepository(db *gorm.DB) *GormCostEstimateRepository {
	return &GormCostEstimateRepository{db: db}
}

// FindByID finds an estimate with its components
func (r *GormCostEstimateRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.CostEstimate, error) {
	var estimate costing.CostEstimate
	if err := r.db.WithContext(ctx).
		Preload("Components").
		First(&estimate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &estimate, nil
}

// FindActiveStandard finds the active STANDARD estimate for a material/plant
func (r *GormCostEstimateRepository) FindActiveStandard(ctx context.Context, materialID, plantID uuid.UUID) (*costing.CostEstimate, error) {
	var estimate costing.CostEstimate
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Where("material_id = ? AND plant_id = ? AND status = ?", materialID, plantID, costing.EstimateStatusStandard).
		First(&estimate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &estimate, nil
}

// FindByMaterial finds all estimates for a material at a plant
func (r *GormCostEstimateRepository) FindByMaterial(ctx context.Context, materialID, plantID uuid.UUID, filter shared.Filter) ([]costing.CostEstimate, error) {
	var estimates []costing.CostEstimate
	query := applyFilter(
		r.db.WithContext(ctx).Model(&costing.CostEstimate{}).
			Preload("Components").
			Where("material_id = ? AND plant_id = ?", materialID, plantID),
		filter,
	)

	if err := query.Find(&estimates).Error; err != nil {
		return nil, err
	}
	return estimates, nil
}

// FindByStatus finds estimates with a given status
func (r *GormCostEstimateRepository) FindByStatus(ctx context.Context, status costing.EstimateStatus, filter shared.Filter) ([]costing.CostEstimate, error) {
	var estimates []costing.CostEstimate
	query := applyFilter(
		r.db.WithContext(ctx).Model(&costing.CostEstimate{}).
			Preload("Components").
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&estimates).Error; err != nil {
		return nil, err
	}
	return estimates, nil
}

// Save creates or updates an estimate with its components
func (r *GormCostEstimateRepository) Save(ctx context.Context, estimate *costing.CostEstimate) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(estimate).Error
}

// SaveWithLock saves with a compare-and-swap on the version read at load
// time; RowsAffected 0 means another writer got there first.
func (r *GormCostEstimateRepository) SaveWithLock(ctx context.Context, estimate *costing.CostEstimate) error {
	result := r.db.WithContext(ctx).
		Model(estimate).
		Where("id = ? AND version = ?", estimate.ID, estimate.Version-1).
		Updates(map[string]interface{}{
			"status":      estimate.Status,
			"total_cost":  estimate.TotalCost,
			"unit_cost":   estimate.UnitCost,
			"valid_to":    estimate.ValidTo,
			"released_at": estimate.ReleasedAt,
			"archived_at": estimate.ArchivedAt,
			"version":     estimate.Version,
			"updated_at":  estimate.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountByStatus counts estimates with a given status
func (r *GormCostEstimateRepository) CountByStatus(ctx context.Context, status costing.EstimateStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&costing.CostEstimate{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// applyFilter applies pagination and ordering shared by the repositories
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormCostEstimateRepository implements CostEstimateRepository
var _ costing.CostEstimateRepository = (*GormCostEstimateRepository)(nil)
