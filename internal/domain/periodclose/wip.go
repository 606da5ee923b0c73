package periodclose

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WIPPosition is the accumulated, not-yet-settled cost of a production
// order within a fiscal period. Costs accumulate incrementally from
// production confirmations; the close settles each open position exactly
// once.
type WIPPosition struct {
	shared.BaseAggregateRoot
	ProductionOrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_wip_order"`
	MaterialID        uuid.UUID `gorm:"type:uuid;not null"`
	PlantID           uuid.UUID `gorm:"type:uuid;not null;index:idx_wip_period,priority:1"`
	FiscalYear        int       `gorm:"not null;index:idx_wip_period,priority:2"`
	FiscalPeriod      int       `gorm:"not null;index:idx_wip_period,priority:3"`

	MaterialCost decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LaborCost    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	MachineCost  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	Settled       bool       `gorm:"not null;default:false"`
	SettlementRef string     `gorm:"type:varchar(100)"`
	SettledAt     *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (WIPPosition) TableName() string {
	return "wip_positions"
}

// NewWIPPosition opens a WIP position for a production order in a period
func NewWIPPosition(productionOrderID, materialID, plantID uuid.UUID, period valueobject.FiscalPeriod) (*WIPPosition, error) {
	if productionOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCTION_ORDER", "Production order ID cannot be empty")
	}
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}

	return &WIPPosition{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductionOrderID: productionOrderID,
		MaterialID:        materialID,
		PlantID:           plantID,
		FiscalYear:        period.Year,
		FiscalPeriod:      period.Period,
		MaterialCost:      decimal.Zero,
		LaborCost:         decimal.Zero,
		MachineCost:       decimal.Zero,
		TotalCost:         decimal.Zero,
	}, nil
}

// Period returns the position's fiscal period
func (w *WIPPosition) Period() valueobject.FiscalPeriod {
	return valueobject.FiscalPeriod{Year: w.FiscalYear, Period: w.FiscalPeriod}
}

// Accumulate adds incremental confirmed costs. Settled positions reject
// further accumulation.
func (w *WIPPosition) Accumulate(materialCost, laborCost, machineCost decimal.Decimal) error {
	if w.Settled {
		return shared.ErrInvalidState
	}

	w.MaterialCost = w.MaterialCost.Add(materialCost).Round(valueobject.MoneyScale)
	w.LaborCost = w.LaborCost.Add(laborCost).Round(valueobject.MoneyScale)
	w.MachineCost = w.MachineCost.Add(machineCost).Round(valueobject.MoneyScale)
	w.TotalCost = w.MaterialCost.Add(w.LaborCost).Add(w.MachineCost)
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}

// Settle closes the position exactly once
func (w *WIPPosition) Settle(settlementRef string) error {
	if w.Settled {
		return shared.ErrAlreadySettled
	}
	if settlementRef == "" {
		return shared.NewDomainError("INVALID_SETTLEMENT_REF", "Settlement reference cannot be empty")
	}

	now := time.Now()
	w.Settled = true
	w.SettlementRef = settlementRef
	w.SettledAt = &now
	w.UpdatedAt = now
	w.IncrementVersion()
	return nil
}
