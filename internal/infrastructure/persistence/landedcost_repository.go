package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/landedcost"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLandedCostDocumentRepository implements LandedCostDocumentRepository
// using GORM.
type GormLandedCostDocumentRepository struct {
	db *gorm.DB
}

// NewGormLandedCostDocumentRepository creates a new repository
func NewGormLandedCostDocumentRepository(db *gorm.DB) *GormLandedCostDocumentRepository {
	return &GormLandedCostDocumentRepository{db: db}
}

// FindByID finds a document with its lines and indirect costs
func (r *GormLandedCostDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*landedcost.LandedCostDocument, error) {
	var document landedcost.LandedCostDocument
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("IndirectCosts").
		First(&document, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &document, nil
}

// FindByStatus finds documents with a given status
func (r *GormLandedCostDocumentRepository) FindByStatus(ctx context.Context, status landedcost.DocumentStatus, filter shared.Filter) ([]*landedcost.LandedCostDocument, int64, error) {
	base := r.db.WithContext(ctx).Model(&landedcost.LandedCostDocument{}).
		Where("status = ?", status)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var documents []*landedcost.LandedCostDocument
	query := applyFilter(base.Preload("Lines").Preload("IndirectCosts"), filter)
	if err := query.Find(&documents).Error; err != nil {
		return nil, 0, err
	}
	return documents, total, nil
}

// Save creates or updates a document with its lines and indirect costs
func (r *GormLandedCostDocumentRepository) Save(ctx context.Context, document *landedcost.LandedCostDocument) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(document).Error
}

// SaveWithLock persists lifecycle transitions with a compare-and-swap on
// the version. Line-level changes go through in the same transaction so a
// lost race rolls back the whole save.
func (r *GormLandedCostDocumentRepository) SaveWithLock(ctx context.Context, document *landedcost.LandedCostDocument, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(document).
			Where("id = ? AND version = ?", document.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":        document.Status,
				"calculated_at": document.CalculatedAt,
				"posted_at":     document.PostedAt,
				"version":       document.Version,
				"updated_at":    document.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range document.Lines {
			line := &document.Lines[i]
			if err := tx.Model(line).Updates(map[string]interface{}{
				"allocated_cost":       line.AllocatedCost,
				"total_landed_cost":    line.TotalLandedCost,
				"landed_cost_per_unit": line.LandedCostPerUnit,
				"updated_at":           line.UpdatedAt,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormLandedCostDocumentRepository implements the interface
var _ landedcost.LandedCostDocumentRepository = (*GormLandedCostDocumentRepository)(nil)
