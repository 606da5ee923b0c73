package periodclose

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseStep is one of the four ordered steps of a period close
type CloseStep string

const (
	StepActualCost CloseStep = "ACTUAL_COST"
	StepVariances  CloseStep = "VARIANCES"
	StepWIP        CloseStep = "WIP"
	StepSettlement CloseStep = "SETTLEMENT"
)

// String returns the string representation of the close step
func (s CloseStep) String() string {
	return string(s)
}

// OrderedSteps lists the close steps in execution order
func OrderedSteps() []CloseStep {
	return []CloseStep{StepActualCost, StepVariances, StepWIP, StepSettlement}
}

// RunStatus is the lifecycle state of a close run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// String returns the string representation of the run status
func (s RunStatus) String() string {
	return string(s)
}

// PeriodCloseRun is one close attempt for a fiscal year/period/plant. The
// four step flags commit individually so partial progress survives a
// crash; a resumed run picks up at the first incomplete step. COMPLETED
// and FAILED are terminal.
type PeriodCloseRun struct {
	shared.BaseAggregateRoot
	PlantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_close_run_period,priority:1"`
	FiscalYear   int       `gorm:"not null;index:idx_close_run_period,priority:2"`
	FiscalPeriod int       `gorm:"not null;index:idx_close_run_period,priority:3"`
	Status       RunStatus `gorm:"type:varchar(20);not null"`

	ActualCostCalculated bool `gorm:"not null;default:false"`
	VariancesCalculated  bool `gorm:"not null;default:false"`
	WIPCalculated        bool `gorm:"not null;default:false"`
	SettlementPosted     bool `gorm:"not null;default:false"`

	FailedStep   string `gorm:"type:varchar(20)"`
	ErrorMessage string `gorm:"type:text"`

	MaterialsProcessed  int             `gorm:"not null;default:0"`
	TotalVarianceAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	StartedAt   time.Time  `gorm:"type:timestamptz;not null"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (PeriodCloseRun) TableName() string {
	return "period_close_runs"
}

// NewPeriodCloseRun starts a close run for the given period
func NewPeriodCloseRun(plantID uuid.UUID, period valueobject.FiscalPeriod) (*PeriodCloseRun, error) {
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Fiscal period cannot be empty")
	}

	run := &PeriodCloseRun{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		PlantID:             plantID,
		FiscalYear:          period.Year,
		FiscalPeriod:        period.Period,
		Status:              RunStatusRunning,
		TotalVarianceAmount: decimal.Zero,
		StartedAt:           time.Now(),
	}
	run.AddDomainEvent(NewCloseStartedEvent(run))
	return run, nil
}

// Period returns the run's fiscal period
func (r *PeriodCloseRun) Period() valueobject.FiscalPeriod {
	return valueobject.FiscalPeriod{Year: r.FiscalYear, Period: r.FiscalPeriod}
}

// IsCompleted returns true when the run reached its terminal success state
func (r *PeriodCloseRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// StepDone reports whether a step has committed
func (r *PeriodCloseRun) StepDone(step CloseStep) bool {
	switch step {
	case StepActualCost:
		return r.ActualCostCalculated
	case StepVariances:
		return r.VariancesCalculated
	case StepWIP:
		return r.WIPCalculated
	case StepSettlement:
		return r.SettlementPosted
	}
	return false
}

// NextStep returns the first incomplete step. The second return is false
// when all steps have committed.
func (r *PeriodCloseRun) NextStep() (CloseStep, bool) {
	for _, step := range OrderedSteps() {
		if !r.StepDone(step) {
			return step, true
		}
	}
	return "", false
}

// CompleteStep commits one step. Steps must complete in strict order and
// each exactly once; out-of-order or repeated completion is rejected.
func (r *PeriodCloseRun) CompleteStep(step CloseStep) error {
	if r.Status != RunStatusRunning {
		return shared.ErrInvalidState
	}
	next, ok := r.NextStep()
	if !ok || next != step {
		return shared.NewDomainError("STEP_OUT_OF_ORDER", "Close steps must complete in order, each exactly once")
	}

	switch step {
	case StepActualCost:
		r.ActualCostCalculated = true
	case StepVariances:
		r.VariancesCalculated = true
	case StepWIP:
		r.WIPCalculated = true
	case StepSettlement:
		r.SettlementPosted = true
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	if _, remaining := r.NextStep(); !remaining {
		now := time.Now()
		r.Status = RunStatusCompleted
		r.CompletedAt = &now
		r.AddDomainEvent(NewCloseCompletedEvent(r))
	}
	return nil
}

// Fail records the failing step and cause. Already-committed steps stay
// committed; a new invocation resumes from the failed step.
func (r *PeriodCloseRun) Fail(step CloseStep, cause error) error {
	if r.Status != RunStatusRunning {
		return shared.ErrInvalidState
	}

	r.Status = RunStatusFailed
	r.FailedStep = step.String()
	if cause != nil {
		r.ErrorMessage = cause.Error()
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewCloseFailedEvent(r))
	return nil
}

// Resume reopens a FAILED run for a retry at the first incomplete step
func (r *PeriodCloseRun) Resume() error {
	if r.Status != RunStatusFailed {
		return shared.ErrInvalidState
	}

	r.Status = RunStatusRunning
	r.FailedStep = ""
	r.ErrorMessage = ""
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// RecordResult stores the close report figures on the run
func (r *PeriodCloseRun) RecordResult(materialsProcessed int, totalVariance decimal.Decimal) {
	r.MaterialsProcessed = materialsProcessed
	r.TotalVarianceAmount = totalVariance.Round(valueobject.MoneyScale)
	r.UpdatedAt = time.Now()
}
