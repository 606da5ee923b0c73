package periodclose

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the period close context
const (
	EventTypeCloseStarted   = "periodclose.run.started"
	EventTypeCloseCompleted = "periodclose.run.completed"
	EventTypeCloseFailed    = "periodclose.run.failed"
)

const aggregateTypePeriodCloseRun = "PeriodCloseRun"

// CloseStartedEvent is emitted when a close run begins
type CloseStartedEvent struct {
	shared.BaseDomainEvent
	PlantID      uuid.UUID `json:"plant_id"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod int       `json:"fiscal_period"`
}

// NewCloseStartedEvent creates a new CloseStartedEvent
func NewCloseStartedEvent(r *PeriodCloseRun) *CloseStartedEvent {
	return &CloseStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCloseStarted, aggregateTypePeriodCloseRun, r.ID),
		PlantID:         r.PlantID,
		FiscalYear:      r.FiscalYear,
		FiscalPeriod:    r.FiscalPeriod,
	}
}

// CloseCompletedEvent is emitted when all four steps have committed
type CloseCompletedEvent struct {
	shared.BaseDomainEvent
	PlantID             uuid.UUID       `json:"plant_id"`
	FiscalYear          int             `json:"fiscal_year"`
	FiscalPeriod        int             `json:"fiscal_period"`
	MaterialsProcessed  int             `json:"materials_processed"`
	TotalVarianceAmount decimal.Decimal `json:"total_variance_amount"`
}

// NewCloseCompletedEvent creates a new CloseCompletedEvent
func NewCloseCompletedEvent(r *PeriodCloseRun) *CloseCompletedEvent {
	return &CloseCompletedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeCloseCompleted, aggregateTypePeriodCloseRun, r.ID),
		PlantID:             r.PlantID,
		FiscalYear:          r.FiscalYear,
		FiscalPeriod:        r.FiscalPeriod,
		MaterialsProcessed:  r.MaterialsProcessed,
		TotalVarianceAmount: r.TotalVarianceAmount,
	}
}

// CloseFailedEvent is emitted when a step fails and the run halts
type CloseFailedEvent struct {
	shared.BaseDomainEvent
	PlantID      uuid.UUID `json:"plant_id"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod int       `json:"fiscal_period"`
	FailedStep   string    `json:"failed_step"`
	ErrorMessage string    `json:"error_message"`
}

// NewCloseFailedEvent creates a new CloseFailedEvent
func NewCloseFailedEvent(r *PeriodCloseRun) *CloseFailedEvent {
	return &CloseFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCloseFailed, aggregateTypePeriodCloseRun, r.ID),
		PlantID:         r.PlantID,
		FiscalYear:      r.FiscalYear,
		FiscalPeriod:    r.FiscalPeriod,
		FailedStep:      r.FailedStep,
		ErrorMessage:    r.ErrorMessage,
	}
}
