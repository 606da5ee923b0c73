package costing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMComponent is one line of a resolved bill of material.
// Quantity is per unit of finished output; ScrapPercent inflates the
// consumed quantity to account for configured component scrap.
type BOMComponent struct {
	ComponentID  uuid.UUID
	Quantity     decimal.Decimal
	ScrapPercent decimal.Decimal
}

// EffectiveQuantity returns the per-unit quantity including scrap
func (c BOMComponent) EffectiveQuantity() decimal.Decimal {
	scrapFactor := decimal.NewFromInt(1).Add(c.ScrapPercent.Div(decimal.NewFromInt(100)))
	return c.Quantity.Mul(scrapFactor)
}

// RoutingOperation is one resolved routing step with hourly rates and the
// durations booked for one costing lot.
type RoutingOperation struct {
	OperationID  string
	MachineRate  decimal.Decimal // per hour
	LaborRate    decimal.Decimal // per hour
	SetupRate    decimal.Decimal // per hour
	MachineHours decimal.Decimal // per lot
	LaborHours   decimal.Decimal // per lot
	SetupHours   decimal.Decimal // per lot
}

// MachineCost returns the machine cost of the operation for one lot
func (o RoutingOperation) MachineCost() decimal.Decimal {
	return o.MachineRate.Mul(o.MachineHours)
}

// LaborCost returns the labor cost of the operation for one lot
func (o RoutingOperation) LaborCost() decimal.Decimal {
	return o.LaborRate.Mul(o.LaborHours)
}

// SetupCost returns the setup cost of the operation for one lot
func (o RoutingOperation) SetupCost() decimal.Decimal {
	return o.SetupRate.Mul(o.SetupHours)
}

// OverheadBase identifies what an overhead rate is applied to
type OverheadBase string

const (
	OverheadBaseMaterialCost OverheadBase = "MATERIAL_COST"
	OverheadBaseLaborCost    OverheadBase = "LABOR_COST"
	OverheadBaseDirectCost   OverheadBase = "DIRECT_COST" // material + all conversion
	OverheadBasePerUnit      OverheadBase = "PER_UNIT"
)

// IsValid returns true if the overhead base is valid
func (b OverheadBase) IsValid() bool {
	switch b {
	case OverheadBaseMaterialCost, OverheadBaseLaborCost, OverheadBaseDirectCost, OverheadBasePerUnit:
		return true
	}
	return false
}

// OverheadRow is one rule of a costing sheet: a rate applied to a base.
// For percentage bases Rate is a percentage; for PER_UNIT it is an amount
// per unit of the costing lot.
type OverheadRow struct {
	Base OverheadBase
	Rate decimal.Decimal
}

// CostingSheet is the overhead configuration applied during estimation
type CostingSheet struct {
	ID   uuid.UUID
	Name string
	Rows []OverheadRow
}

// BOMProvider resolves bills of material from the external engineering system.
// Implementations return shared.ErrMissingBOM when the reference is absent.
type BOMProvider interface {
	ResolveBOM(ctx context.Context, materialID uuid.UUID, bomVersion string) ([]BOMComponent, error)
}

// RoutingProvider resolves routings from the external engineering system.
// Implementations return shared.ErrMissingRouting when the reference is absent.
type RoutingProvider interface {
	ResolveRouting(ctx context.Context, materialID uuid.UUID, routingVersion string) ([]RoutingOperation, error)
}

// CostingSheetProvider resolves overhead costing sheets
type CostingSheetProvider interface {
	ResolveCostingSheet(ctx context.Context, sheetID uuid.UUID) (*CostingSheet, error)
}

// ComponentPriceProvider supplies the unit price of a component material
// when no released standard estimate exists for it.
type ComponentPriceProvider interface {
	UnitPrice(ctx context.Context, materialID, plantID uuid.UUID) (decimal.Decimal, error)
}
