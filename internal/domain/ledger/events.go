package ledger

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the material ledger context
const (
	EventTypeMovementPosted        = "ledger.movement.posted"
	EventTypeMaterialRevalued      = "ledger.material.revalued"
	EventTypeActualPriceDetermined = "ledger.actual_price.determined"
)

const (
	aggregateTypeLedgerEntry   = "MaterialLedgerEntry"
	aggregateTypeMaterialPrice = "MaterialPrice"
)

// MovementPostedEvent is emitted after a movement has been valuated and
// appended to the ledger.
type MovementPostedEvent struct {
	shared.BaseDomainEvent
	MaterialID    uuid.UUID       `json:"material_id"`
	PlantID       uuid.UUID       `json:"plant_id"`
	MovementType  MovementType    `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	FiscalYear    int             `json:"fiscal_year"`
	FiscalPeriod  int             `json:"fiscal_period"`
	PriceVariance decimal.Decimal `json:"price_variance"`
}

// NewMovementPostedEvent creates a new MovementPostedEvent
func NewMovementPostedEvent(e *MaterialLedgerEntry) *MovementPostedEvent {
	return &MovementPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementPosted, aggregateTypeLedgerEntry, e.ID),
		MaterialID:      e.MaterialID,
		PlantID:         e.PlantID,
		MovementType:    e.MovementType,
		Quantity:        e.Quantity,
		FiscalYear:      e.FiscalYear,
		FiscalPeriod:    e.FiscalPeriod,
		PriceVariance:   e.PriceVariance,
	}
}

// MaterialRevaluedEvent is emitted when a price change revalues on-hand stock
type MaterialRevaluedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID       `json:"material_id"`
	PlantID    uuid.UUID       `json:"plant_id"`
	View       ValuationView   `json:"view"`
	OldPrice   decimal.Decimal `json:"old_price"`
	NewPrice   decimal.Decimal `json:"new_price"`
}

// NewMaterialRevaluedEvent creates a new MaterialRevaluedEvent
func NewMaterialRevaluedEvent(p *MaterialPrice, oldPrice decimal.Decimal) *MaterialRevaluedEvent {
	return &MaterialRevaluedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRevalued, aggregateTypeMaterialPrice, p.ID),
		MaterialID:      p.MaterialID,
		PlantID:         p.PlantID,
		View:            p.View,
		OldPrice:        oldPrice,
		NewPrice:        p.Price,
	}
}

// ActualPriceDeterminedEvent is emitted by the period close when the
// periodic weighted-average price of an actual-costed view is fixed.
type ActualPriceDeterminedEvent struct {
	shared.BaseDomainEvent
	MaterialID   uuid.UUID       `json:"material_id"`
	PlantID      uuid.UUID       `json:"plant_id"`
	View         ValuationView   `json:"view"`
	FiscalYear   int             `json:"fiscal_year"`
	FiscalPeriod int             `json:"fiscal_period"`
	ActualPrice  decimal.Decimal `json:"actual_price"`
}

// NewActualPriceDeterminedEvent creates a new ActualPriceDeterminedEvent
func NewActualPriceDeterminedEvent(p *MaterialPrice, period valueobject.FiscalPeriod) *ActualPriceDeterminedEvent {
	return &ActualPriceDeterminedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActualPriceDetermined, aggregateTypeMaterialPrice, p.ID),
		MaterialID:      p.MaterialID,
		PlantID:         p.PlantID,
		View:            p.View,
		FiscalYear:      period.Year,
		FiscalPeriod:    period.Period,
		ActualPrice:     p.Price,
	}
}
