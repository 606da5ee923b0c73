package periodclose

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PeriodLock blocks new postings into a period. The lock is set when a
// close run begins its actual-cost step, not at settlement, so the close
// reads a frozen snapshot of the period's entries.
type PeriodLock struct {
	shared.BaseEntity
	PlantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_period_lock,priority:1"`
	FiscalYear   int       `gorm:"not null;uniqueIndex:idx_period_lock,priority:2"`
	FiscalPeriod int       `gorm:"not null;uniqueIndex:idx_period_lock,priority:3"`
	LockedAt     time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (PeriodLock) TableName() string {
	return "period_locks"
}

// NewPeriodLock locks a period for a plant
func NewPeriodLock(plantID uuid.UUID, period valueobject.FiscalPeriod) (*PeriodLock, error) {
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Fiscal period cannot be empty")
	}

	return &PeriodLock{
		BaseEntity:   shared.NewBaseEntity(),
		PlantID:      plantID,
		FiscalYear:   period.Year,
		FiscalPeriod: period.Period,
		LockedAt:     time.Now(),
	}, nil
}

// Period returns the locked fiscal period
func (l *PeriodLock) Period() valueobject.FiscalPeriod {
	return valueobject.FiscalPeriod{Year: l.FiscalYear, Period: l.FiscalPeriod}
}
