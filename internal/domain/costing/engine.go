package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimationInput describes one costing request
type EstimationInput struct {
	MaterialID     uuid.UUID
	PlantID        uuid.UUID
	CostingVersion int
	LotSize        decimal.Decimal
	BOMVersion     string
	RoutingVersion string
	CostingSheetID uuid.UUID
	ValidFrom      time.Time
}

// StandardPriceLookup resolves the released standard unit cost of a
// component material, if one exists. Used before falling back to the
// component price provider, so multi-level structures roll up through
// their released estimates.
type StandardPriceLookup interface {
	StandardUnitCost(ctx context.Context, materialID, plantID uuid.UUID) (decimal.Decimal, bool, error)
}

// EstimationEngine computes a standard cost estimate for a material by
// rolling up BOM component costs, routing operation costs and costing-sheet
// overhead into a cost component split.
type EstimationEngine struct {
	boms     BOMProvider
	routings RoutingProvider
	sheets   CostingSheetProvider
	prices   ComponentPriceProvider
	standard StandardPriceLookup
}

// NewEstimationEngine creates a new estimation engine
func NewEstimationEngine(
	boms BOMProvider,
	routings RoutingProvider,
	sheets CostingSheetProvider,
	prices ComponentPriceProvider,
	standard StandardPriceLookup,
) *EstimationEngine {
	return &EstimationEngine{
		boms:     boms,
		routings: routings,
		sheets:   sheets,
		prices:   prices,
		standard: standard,
	}
}

// Calculate produces a draft CostEstimate for the input.
// The produced estimate always satisfies sum(components) == TotalCost and
// UnitCost == TotalCost / LotSize within half-up rounding.
func (e *EstimationEngine) Calculate(ctx context.Context, input EstimationInput) (*CostEstimate, error) {
	if input.LotSize.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidLotSize
	}

	estimate, err := NewCostEstimate(input.MaterialID, input.PlantID, input.CostingVersion, input.LotSize, input.ValidFrom)
	if err != nil {
		return nil, err
	}

	materialCost, err := e.rollUpMaterial(ctx, input)
	if err != nil {
		return nil, err
	}
	if materialCost.IsPositive() {
		if err := estimate.AddComponent(ComponentMaterial, decimal.Zero, materialCost); err != nil {
			return nil, err
		}
	}

	if err := e.rollUpRouting(ctx, input, estimate); err != nil {
		return nil, err
	}

	if input.CostingSheetID != uuid.Nil {
		if err := e.applyOverhead(ctx, input.CostingSheetID, estimate); err != nil {
			return nil, err
		}
	}

	return estimate, nil
}

// rollUpMaterial accumulates BOM component cost for one costing lot.
// Component prices come from released standard estimates when available,
// otherwise from the external price provider.
func (e *EstimationEngine) rollUpMaterial(ctx context.Context, input EstimationInput) (decimal.Decimal, error) {
	components, err := e.boms.ResolveBOM(ctx, input.MaterialID, input.BOMVersion)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolving BOM for material %s: %w", input.MaterialID, err)
	}
	if len(components) == 0 {
		return decimal.Zero, shared.ErrMissingBOM
	}

	total := decimal.Zero
	for _, component := range components {
		price, err := e.componentPrice(ctx, component.ComponentID, input.PlantID)
		if err != nil {
			return decimal.Zero, err
		}
		lotQuantity := component.EffectiveQuantity().Mul(input.LotSize)
		total = total.Add(lotQuantity.Mul(price))
	}
	return total, nil
}

// componentPrice prefers a released standard estimate over the raw price feed
func (e *EstimationEngine) componentPrice(ctx context.Context, materialID, plantID uuid.UUID) (decimal.Decimal, error) {
	if e.standard != nil {
		price, ok, err := e.standard.StandardUnitCost(ctx, materialID, plantID)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return price, nil
		}
	}
	return e.prices.UnitPrice(ctx, materialID, plantID)
}

// rollUpRouting accumulates machine, labor and setup cost for one lot
func (e *EstimationEngine) rollUpRouting(ctx context.Context, input EstimationInput, estimate *CostEstimate) error {
	operations, err := e.routings.ResolveRouting(ctx, input.MaterialID, input.RoutingVersion)
	if err != nil {
		return fmt.Errorf("resolving routing for material %s: %w", input.MaterialID, err)
	}
	if len(operations) == 0 {
		return shared.ErrMissingRouting
	}

	machine, labor, setup := decimal.Zero, decimal.Zero, decimal.Zero
	for _, op := range operations {
		machine = machine.Add(op.MachineCost())
		labor = labor.Add(op.LaborCost())
		setup = setup.Add(op.SetupCost())
	}

	if machine.IsPositive() {
		if err := estimate.AddComponent(ComponentMachine, decimal.Zero, machine); err != nil {
			return err
		}
	}
	if labor.IsPositive() {
		if err := estimate.AddComponent(ComponentLabor, decimal.Zero, labor); err != nil {
			return err
		}
	}
	if setup.IsPositive() {
		// Setup does not scale with quantity within the lot.
		if err := estimate.AddComponent(ComponentSetup, setup, decimal.Zero); err != nil {
			return err
		}
	}
	return nil
}

// applyOverhead evaluates every costing-sheet row against the estimate.
// A non-zero rate whose base resolves to zero is a configuration error.
func (e *EstimationEngine) applyOverhead(ctx context.Context, sheetID uuid.UUID, estimate *CostEstimate) error {
	sheet, err := e.sheets.ResolveCostingSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("resolving costing sheet %s: %w", sheetID, err)
	}

	overhead := decimal.Zero
	for _, row := range sheet.Rows {
		if row.Rate.IsZero() {
			continue
		}
		amount, err := e.overheadAmount(row, estimate)
		if err != nil {
			return err
		}
		overhead = overhead.Add(amount)
	}

	if overhead.IsPositive() {
		return estimate.AddComponent(ComponentOverhead, decimal.Zero, overhead)
	}
	return nil
}

func (e *EstimationEngine) overheadAmount(row OverheadRow, estimate *CostEstimate) (decimal.Decimal, error) {
	percent := row.Rate.Div(decimal.NewFromInt(100))

	switch row.Base {
	case OverheadBaseMaterialCost:
		base := estimate.ComponentAmount(ComponentMaterial)
		if base.IsZero() {
			return decimal.Zero, shared.ErrIncompleteOverheadBase
		}
		return base.Mul(percent), nil
	case OverheadBaseLaborCost:
		base := estimate.ComponentAmount(ComponentLabor)
		if base.IsZero() {
			return decimal.Zero, shared.ErrIncompleteOverheadBase
		}
		return base.Mul(percent), nil
	case OverheadBaseDirectCost:
		base := estimate.ComponentAmount(ComponentMaterial).
			Add(estimate.ComponentAmount(ComponentLabor)).
			Add(estimate.ComponentAmount(ComponentMachine)).
			Add(estimate.ComponentAmount(ComponentSetup))
		if base.IsZero() {
			return decimal.Zero, shared.ErrIncompleteOverheadBase
		}
		return base.Mul(percent), nil
	case OverheadBasePerUnit:
		return row.Rate.Mul(estimate.LotSize), nil
	default:
		return decimal.Zero, shared.NewDomainError("INVALID_OVERHEAD_BASE", "Invalid overhead base")
	}
}
