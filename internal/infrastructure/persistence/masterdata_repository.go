package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOMItem is one replicated bill-of-material line. Engineering master data
// is owned by an external system and synchronized into these tables.
type BOMItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_bom_material_version"`
	BOMVersion   string          `gorm:"size:32;not null;index:idx_bom_material_version"`
	ComponentID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	ScrapPercent decimal.Decimal `gorm:"type:decimal(8,4);not null"`
}

// TableName returns the table name for GORM
func (BOMItem) TableName() string { return "bom_items" }

// RoutingStep is one replicated routing operation
type RoutingStep struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MaterialID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_routing_material_version"`
	RoutingVersion string          `gorm:"size:32;not null;index:idx_routing_material_version"`
	OperationID    string          `gorm:"size:64;not null"`
	MachineRate    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	LaborRate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	SetupRate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	MachineHours   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	LaborHours     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	SetupHours     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (RoutingStep) TableName() string { return "routing_steps" }

// CostingSheetHeader is a replicated overhead costing sheet
type CostingSheetHeader struct {
	ID   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name string           `gorm:"size:128;not null"`
	Rows []CostingSheetRow `gorm:"foreignKey:SheetID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CostingSheetHeader) TableName() string { return "costing_sheets" }

// CostingSheetRow is one overhead rule of a costing sheet
type CostingSheetRow struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SheetID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Base    string          `gorm:"size:32;not null"`
	Rate    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (CostingSheetRow) TableName() string { return "costing_sheet_rows" }

// GormBOMProvider resolves bills of material from the replicated tables
type GormBOMProvider struct {
	db *gorm.DB
}

// NewGormBOMProvider creates a new GormBOMProvider
func NewGormBOMProvider(db *gorm.DB) *GormBOMProvider {
	return &GormBOMProvider{db: db}
}

// ResolveBOM returns the components of a material's BOM. An empty version
// resolves to the highest version on record.
func (p *GormBOMProvider) ResolveBOM(ctx context.Context, materialID uuid.UUID, bomVersion string) ([]costing.BOMComponent, error) {
	version := bomVersion
	if version == "" {
		row := p.db.WithContext(ctx).
			Model(&BOMItem{}).
			Select("bom_version").
			Where("material_id = ?", materialID).
			Order("bom_version DESC").
			Limit(1).
			Scan(&version)
		if row.Error != nil {
			return nil, row.Error
		}
		if version == "" {
			return nil, shared.ErrMissingBOM
		}
	}

	var items []BOMItem
	err := p.db.WithContext(ctx).
		Where("material_id = ? AND bom_version = ?", materialID, version).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrMissingBOM
	}

	components := make([]costing.BOMComponent, 0, len(items))
	for _, item := range items {
		components = append(components, costing.BOMComponent{
			ComponentID:  item.ComponentID,
			Quantity:     item.Quantity,
			ScrapPercent: item.ScrapPercent,
		})
	}
	return components, nil
}

// GormRoutingProvider resolves routings from the replicated tables
type GormRoutingProvider struct {
	db *gorm.DB
}

// NewGormRoutingProvider creates a new GormRoutingProvider
func NewGormRoutingProvider(db *gorm.DB) *GormRoutingProvider {
	return &GormRoutingProvider{db: db}
}

// ResolveRouting returns the operations of a material's routing. An empty
// version resolves to the highest version on record.
func (p *GormRoutingProvider) ResolveRouting(ctx context.Context, materialID uuid.UUID, routingVersion string) ([]costing.RoutingOperation, error) {
	version := routingVersion
	if version == "" {
		row := p.db.WithContext(ctx).
			Model(&RoutingStep{}).
			Select("routing_version").
			Where("material_id = ?", materialID).
			Order("routing_version DESC").
			Limit(1).
			Scan(&version)
		if row.Error != nil {
			return nil, row.Error
		}
		if version == "" {
			return nil, shared.ErrMissingRouting
		}
	}

	var steps []RoutingStep
	err := p.db.WithContext(ctx).
		Where("material_id = ? AND routing_version = ?", materialID, version).
		Order("operation_id ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, shared.ErrMissingRouting
	}

	operations := make([]costing.RoutingOperation, 0, len(steps))
	for _, step := range steps {
		operations = append(operations, costing.RoutingOperation{
			OperationID:  step.OperationID,
			MachineRate:  step.MachineRate,
			LaborRate:    step.LaborRate,
			SetupRate:    step.SetupRate,
			MachineHours: step.MachineHours,
			LaborHours:   step.LaborHours,
			SetupHours:   step.SetupHours,
		})
	}
	return operations, nil
}

// GormCostingSheetProvider resolves overhead costing sheets
type GormCostingSheetProvider struct {
	db *gorm.DB
}

// NewGormCostingSheetProvider creates a new GormCostingSheetProvider
func NewGormCostingSheetProvider(db *gorm.DB) *GormCostingSheetProvider {
	return &GormCostingSheetProvider{db: db}
}

// ResolveCostingSheet returns the costing sheet with its overhead rows
func (p *GormCostingSheetProvider) ResolveCostingSheet(ctx context.Context, sheetID uuid.UUID) (*costing.CostingSheet, error) {
	var header CostingSheetHeader
	err := p.db.WithContext(ctx).
		Preload("Rows").
		First(&header, "id = ?", sheetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows := make([]costing.OverheadRow, 0, len(header.Rows))
	for _, row := range header.Rows {
		rows = append(rows, costing.OverheadRow{
			Base: costing.OverheadBase(row.Base),
			Rate: row.Rate,
		})
	}
	return &costing.CostingSheet{
		ID:   header.ID,
		Name: header.Name,
		Rows: rows,
	}, nil
}

// Ensure the providers implement the costing interfaces
var (
	_ costing.BOMProvider          = (*GormBOMProvider)(nil)
	_ costing.RoutingProvider      = (*GormRoutingProvider)(nil)
	_ costing.CostingSheetProvider = (*GormCostingSheetProvider)(nil)
)
