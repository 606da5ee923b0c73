package variance

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the variance context
const (
	EventTypeVarianceRecorded = "variance.recorded"
	EventTypeVarianceSettled  = "variance.settled"
)

const aggregateTypeCostVariance = "CostVariance"

// VarianceRecordedEvent is emitted when the analyzer materializes a variance
type VarianceRecordedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID        `json:"material_id"`
	PlantID    uuid.UUID        `json:"plant_id"`
	Type       VarianceType     `json:"type"`
	Category   VarianceCategory `json:"category"`
	Amount     decimal.Decimal  `json:"amount"`
	Direction  Direction        `json:"direction"`
}

// NewVarianceRecordedEvent creates a new VarianceRecordedEvent
func NewVarianceRecordedEvent(v *CostVariance) *VarianceRecordedEvent {
	return &VarianceRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVarianceRecorded, aggregateTypeCostVariance, v.ID),
		MaterialID:      v.MaterialID,
		PlantID:         v.PlantID,
		Type:            v.Type,
		Category:        v.Category,
		Amount:          v.Amount,
		Direction:       v.Direction,
	}
}

// VarianceSettledEvent is emitted when the period close settles a variance
type VarianceSettledEvent struct {
	shared.BaseDomainEvent
	MaterialID    uuid.UUID       `json:"material_id"`
	PlantID       uuid.UUID       `json:"plant_id"`
	Amount        decimal.Decimal `json:"amount"`
	SettlementRef string          `json:"settlement_ref"`
}

// NewVarianceSettledEvent creates a new VarianceSettledEvent
func NewVarianceSettledEvent(v *CostVariance) *VarianceSettledEvent {
	return &VarianceSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVarianceSettled, aggregateTypeCostVariance, v.ID),
		MaterialID:      v.MaterialID,
		PlantID:         v.PlantID,
		Amount:          v.Amount,
		SettlementRef:   v.SettlementRef,
	}
}
