package costing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/costing/internal/domain/shared"
)

type stubBOMProvider struct {
	components map[uuid.UUID][]BOMComponent
}

func (s *stubBOMProvider) ResolveBOM(_ context.Context, materialID uuid.UUID, _ string) ([]BOMComponent, error) {
	components, ok := s.components[materialID]
	if !ok {
		return nil, shared.ErrMissingBOM
	}
	return components, nil
}

type stubRoutingProvider struct {
	operations map[uuid.UUID][]RoutingOperation
}

func (s *stubRoutingProvider) ResolveRouting(_ context.Context, materialID uuid.UUID, _ string) ([]RoutingOperation, error) {
	operations, ok := s.operations[materialID]
	if !ok {
		return nil, shared.ErrMissingRouting
	}
	return operations, nil
}

type stubSheetProvider struct {
	sheets map[uuid.UUID]*CostingSheet
}

func (s *stubSheetProvider) ResolveCostingSheet(_ context.Context, sheetID uuid.UUID) (*CostingSheet, error) {
	sheet, ok := s.sheets[sheetID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sheet, nil
}

type stubPriceProvider struct {
	prices map[uuid.UUID]decimal.Decimal
}

func (s *stubPriceProvider) UnitPrice(_ context.Context, materialID, _ uuid.UUID) (decimal.Decimal, error) {
	price, ok := s.prices[materialID]
	if !ok {
		return decimal.Zero, shared.ErrNotFound
	}
	return price, nil
}

type stubStandardLookup struct {
	prices map[uuid.UUID]decimal.Decimal
}

func (s *stubStandardLookup) StandardUnitCost(_ context.Context, materialID, _ uuid.UUID) (decimal.Decimal, bool, error) {
	price, ok := s.prices[materialID]
	return price, ok, nil
}

func TestEstimationEngine_Calculate(t *testing.T) {
	material := uuid.New()
	component := uuid.New()
	plant := uuid.New()
	sheet := uuid.New()

	// Lot size 100: BOM cost 500, routing cost 200, overhead 20% of direct
	// cost (700) = 140, total 840, unit cost 8.40.
	boms := &stubBOMProvider{components: map[uuid.UUID][]BOMComponent{
		material: {{ComponentID: component, Quantity: decimal.NewFromInt(1), ScrapPercent: decimal.Zero}},
	}}
	routings := &stubRoutingProvider{operations: map[uuid.UUID][]RoutingOperation{
		material: {{
			OperationID: "OP-010",
			MachineRate: decimal.NewFromInt(40), MachineHours: decimal.NewFromInt(5),
		}},
	}}
	sheets := &stubSheetProvider{sheets: map[uuid.UUID]*CostingSheet{
		sheet: {ID: sheet, Name: "overhead-20", Rows: []OverheadRow{
			{Base: OverheadBaseDirectCost, Rate: decimal.NewFromInt(20)},
		}},
	}}
	prices := &stubPriceProvider{prices: map[uuid.UUID]decimal.Decimal{
		component: decimal.NewFromInt(5),
	}}

	engine := NewEstimationEngine(boms, routings, sheets, prices, &stubStandardLookup{})

	input := EstimationInput{
		MaterialID:     material,
		PlantID:        plant,
		CostingVersion: 1,
		LotSize:        decimal.NewFromInt(100),
		BOMVersion:     "1",
		RoutingVersion: "1",
		CostingSheetID: sheet,
		ValidFrom:      time.Now(),
	}

	t.Run("rolls up material, routing and overhead", func(t *testing.T) {
		estimate, err := engine.Calculate(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, "500", estimate.ComponentAmount(ComponentMaterial).String())
		assert.Equal(t, "200", estimate.ComponentAmount(ComponentMachine).String())
		assert.Equal(t, "140", estimate.ComponentAmount(ComponentOverhead).String())
		assert.Equal(t, "840", estimate.TotalCost.String())
		assert.Equal(t, "8.4", estimate.UnitCost.String())

		sum := decimal.Zero
		for _, c := range estimate.Components {
			sum = sum.Add(c.Amount())
		}
		assert.True(t, sum.Equal(estimate.TotalCost))
	})

	t.Run("scrap inflates component quantity", func(t *testing.T) {
		scrapBOM := &stubBOMProvider{components: map[uuid.UUID][]BOMComponent{
			material: {{ComponentID: component, Quantity: decimal.NewFromInt(1), ScrapPercent: decimal.NewFromInt(10)}},
		}}
		scrapEngine := NewEstimationEngine(scrapBOM, routings, sheets, prices, &stubStandardLookup{})

		estimate, err := scrapEngine.Calculate(context.Background(), input)
		require.NoError(t, err)
		// 1 * 1.10 * 100 units * 5 = 550
		assert.Equal(t, "550", estimate.ComponentAmount(ComponentMaterial).String())
	})

	t.Run("prefers released standard cost of components", func(t *testing.T) {
		withStandard := NewEstimationEngine(boms, routings, sheets, prices, &stubStandardLookup{
			prices: map[uuid.UUID]decimal.Decimal{component: decimal.NewFromInt(6)},
		})

		estimate, err := withStandard.Calculate(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "600", estimate.ComponentAmount(ComponentMaterial).String())
	})

	t.Run("rejects invalid lot size", func(t *testing.T) {
		bad := input
		bad.LotSize = decimal.Zero
		_, err := engine.Calculate(context.Background(), bad)
		assert.ErrorIs(t, err, shared.ErrInvalidLotSize)
	})

	t.Run("missing BOM surfaces the missing reference", func(t *testing.T) {
		bad := input
		bad.MaterialID = uuid.New()
		_, err := engine.Calculate(context.Background(), bad)
		assert.ErrorIs(t, err, shared.ErrMissingBOM)
	})

	t.Run("missing routing surfaces the missing reference", func(t *testing.T) {
		noRouting := NewEstimationEngine(boms, &stubRoutingProvider{}, sheets, prices, &stubStandardLookup{})
		_, err := noRouting.Calculate(context.Background(), input)
		assert.ErrorIs(t, err, shared.ErrMissingRouting)
	})

	t.Run("zero overhead base with non-zero rate fails", func(t *testing.T) {
		laborSheet := uuid.New()
		badSheets := &stubSheetProvider{sheets: map[uuid.UUID]*CostingSheet{
			laborSheet: {ID: laborSheet, Rows: []OverheadRow{
				{Base: OverheadBaseLaborCost, Rate: decimal.NewFromInt(15)},
			}},
		}}
		// Routing books machine time only, so the labor base is zero.
		badEngine := NewEstimationEngine(boms, routings, badSheets, prices, &stubStandardLookup{})

		bad := input
		bad.CostingSheetID = laborSheet
		_, err := badEngine.Calculate(context.Background(), bad)
		assert.ErrorIs(t, err, shared.ErrIncompleteOverheadBase)
	})

	t.Run("per-unit overhead scales with lot size", func(t *testing.T) {
		perUnitSheet := uuid.New()
		perUnit := &stubSheetProvider{sheets: map[uuid.UUID]*CostingSheet{
			perUnitSheet: {ID: perUnitSheet, Rows: []OverheadRow{
				{Base: OverheadBasePerUnit, Rate: decimal.NewFromFloat(0.5)},
			}},
		}}
		perUnitEngine := NewEstimationEngine(boms, routings, perUnit, prices, &stubStandardLookup{})

		modified := input
		modified.CostingSheetID = perUnitSheet
		estimate, err := perUnitEngine.Calculate(context.Background(), modified)
		require.NoError(t, err)
		assert.Equal(t, "50", estimate.ComponentAmount(ComponentOverhead).String())
	})
}
