package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMaterialLedgerEntryRepository implements MaterialLedgerEntryRepository
// using GORM. The ledger is append-only; no update or delete is exposed.
type GormMaterialLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormMaterialLedgerEntryRepository creates a new repository
func NewGormMaterialLedgerEntryRepository(db *gorm.DB) *GormMaterialLedgerEntryRepository {
	return &GormMaterialLedgerEntryRepository{db: db}
}

// Create appends a new ledger entry with its valuations
func (r *GormMaterialLedgerEntryRepository) Create(ctx context.Context, entry *ledger.MaterialLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID finds an entry with its valuations
func (r *GormMaterialLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.MaterialLedgerEntry, error) {
	var entry ledger.MaterialLedgerEntry
	if err := r.db.WithContext(ctx).
		Preload("Valuations").
		First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByMaterialAndPeriod returns a material's entries in posting order
func (r *GormMaterialLedgerEntryRepository) FindByMaterialAndPeriod(ctx context.Context, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]*ledger.MaterialLedgerEntry, error) {
	var entries []*ledger.MaterialLedgerEntry
	err := r.db.WithContext(ctx).
		Preload("Valuations").
		Where("material_id = ? AND plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			materialID, plantID, period.Year, period.Period).
		Order("sequence_no ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByPeriod returns a plant's entries for a period with pagination
func (r *GormMaterialLedgerEntryRepository) FindByPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod, filter shared.Filter) ([]*ledger.MaterialLedgerEntry, int64, error) {
	base := r.db.WithContext(ctx).Model(&ledger.MaterialLedgerEntry{}).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*ledger.MaterialLedgerEntry
	if err := applyFilter(base.Preload("Valuations"), filter).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// NextSequenceNo returns the next posting sequence for a material/plant.
// The caller holds the per-material lock, so the read-increment is safe.
func (r *GormMaterialLedgerEntryRepository) NextSequenceNo(ctx context.Context, materialID, plantID uuid.UUID) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&ledger.MaterialLedgerEntry{}).
		Where("material_id = ? AND plant_id = ?", materialID, plantID).
		Select("COALESCE(MAX(sequence_no), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// MaterialsMovedInPeriod lists distinct materials with entries in the period
func (r *GormMaterialLedgerEntryRepository) MaterialsMovedInPeriod(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) ([]uuid.UUID, error) {
	var materialIDs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&ledger.MaterialLedgerEntry{}).
		Where("plant_id = ? AND fiscal_year = ? AND fiscal_period = ?",
			plantID, period.Year, period.Period).
		Distinct("material_id").
		Pluck("material_id", &materialIDs).Error
	if err != nil {
		return nil, err
	}
	return materialIDs, nil
}

// LastMovementPeriodBefore returns the most recent period before the given
// one with ledger entries for the plant
func (r *GormMaterialLedgerEntryRepository) LastMovementPeriodBefore(ctx context.Context, plantID uuid.UUID, period valueobject.FiscalPeriod) (valueobject.FiscalPeriod, error) {
	var row struct {
		FiscalYear   int
		FiscalPeriod int
	}
	err := r.db.WithContext(ctx).Model(&ledger.MaterialLedgerEntry{}).
		Select("fiscal_year, fiscal_period").
		Where("plant_id = ? AND (fiscal_year * 100 + fiscal_period) < ?",
			plantID, period.Year*100+period.Period).
		Order("fiscal_year DESC, fiscal_period DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return valueobject.FiscalPeriod{}, shared.ErrNotFound
		}
		return valueobject.FiscalPeriod{}, err
	}
	return valueobject.FiscalPeriod{Year: row.FiscalYear, Period: row.FiscalPeriod}, nil
}

// Ensure GormMaterialLedgerEntryRepository implements the interface
var _ ledger.MaterialLedgerEntryRepository = (*GormMaterialLedgerEntryRepository)(nil)

// GormMaterialPriceRepository implements MaterialPriceRepository using GORM
type GormMaterialPriceRepository struct {
	db *gorm.DB
}

// NewGormMaterialPriceRepository creates a new repository
func NewGormMaterialPriceRepository(db *gorm.DB) *GormMaterialPriceRepository {
	return &GormMaterialPriceRepository{db: db}
}

// FindByID finds a price record by ID
func (r *GormMaterialPriceRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.MaterialPrice, error) {
	var price ledger.MaterialPrice
	if err := r.db.WithContext(ctx).First(&price, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &price, nil
}

// FindByMaterial returns all per-view price records for a material/plant
func (r *GormMaterialPriceRepository) FindByMaterial(ctx context.Context, materialID, plantID uuid.UUID) ([]*ledger.MaterialPrice, error) {
	var prices []*ledger.MaterialPrice
	err := r.db.WithContext(ctx).
		Where("material_id = ? AND plant_id = ?", materialID, plantID).
		Order("view ASC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// FindByMaterialAndView returns the price record for one valuation view
func (r *GormMaterialPriceRepository) FindByMaterialAndView(ctx context.Context, materialID, plantID uuid.UUID, view ledger.ValuationView) (*ledger.MaterialPrice, error) {
	var price ledger.MaterialPrice
	if err := r.db.WithContext(ctx).
		Where("material_id = ? AND plant_id = ? AND view = ?", materialID, plantID, view).
		First(&price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &price, nil
}

// Save creates or updates a price record
func (r *GormMaterialPriceRepository) Save(ctx context.Context, price *ledger.MaterialPrice) error {
	return r.db.WithContext(ctx).Save(price).Error
}

// SaveWithLock persists with a compare-and-swap on the expected version
func (r *GormMaterialPriceRepository) SaveWithLock(ctx context.Context, price *ledger.MaterialPrice, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(price).
		Where("id = ? AND version = ?", price.ID, expectedVersion).
		Updates(map[string]interface{}{
			"price":            price.Price,
			"determined":       price.Determined,
			"fixed":            price.Fixed,
			"on_hand_quantity": price.OnHandQuantity,
			"total_value":      price.TotalValue,
			"version":          price.Version,
			"updated_at":       price.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormMaterialPriceRepository implements the interface
var _ ledger.MaterialPriceRepository = (*GormMaterialPriceRepository)(nil)
