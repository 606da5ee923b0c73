package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the costing context
const (
	EventTypeEstimateReleased       = "costing.estimate.released"
	EventTypeEstimateMarkedStandard = "costing.estimate.marked_standard"
	EventTypeEstimateArchived       = "costing.estimate.archived"
)

const aggregateTypeCostEstimate = "CostEstimate"

// EstimateReleasedEvent is emitted when an estimate transitions to RELEASED
type EstimateReleasedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID       `json:"material_id"`
	PlantID    uuid.UUID       `json:"plant_id"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// NewEstimateReleasedEvent creates a new EstimateReleasedEvent
func NewEstimateReleasedEvent(e *CostEstimate) *EstimateReleasedEvent {
	return &EstimateReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEstimateReleased, aggregateTypeCostEstimate, e.ID),
		MaterialID:      e.MaterialID,
		PlantID:         e.PlantID,
		TotalCost:       e.TotalCost,
		UnitCost:        e.UnitCost,
	}
}

// EstimateMarkedStandardEvent is emitted when an estimate becomes the active standard
type EstimateMarkedStandardEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID       `json:"material_id"`
	PlantID    uuid.UUID       `json:"plant_id"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// NewEstimateMarkedStandardEvent creates a new EstimateMarkedStandardEvent
func NewEstimateMarkedStandardEvent(e *CostEstimate) *EstimateMarkedStandardEvent {
	return &EstimateMarkedStandardEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEstimateMarkedStandard, aggregateTypeCostEstimate, e.ID),
		MaterialID:      e.MaterialID,
		PlantID:         e.PlantID,
		UnitCost:        e.UnitCost,
	}
}

// EstimateArchivedEvent is emitted when an estimate is superseded or retired
type EstimateArchivedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID `json:"material_id"`
	PlantID    uuid.UUID `json:"plant_id"`
}

// NewEstimateArchivedEvent creates a new EstimateArchivedEvent
func NewEstimateArchivedEvent(e *CostEstimate) *EstimateArchivedEvent {
	return &EstimateArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEstimateArchived, aggregateTypeCostEstimate, e.ID),
		MaterialID:      e.MaterialID,
		PlantID:         e.PlantID,
	}
}
