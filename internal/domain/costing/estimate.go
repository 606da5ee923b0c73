package costing

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimateStatus represents the lifecycle state of a cost estimate
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "DRAFT"
	EstimateStatusReleased EstimateStatus = "RELEASED"
	EstimateStatusStandard EstimateStatus = "STANDARD"
	EstimateStatusArchived EstimateStatus = "ARCHIVED"
)

// String returns the string representation
func (s EstimateStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a valid EstimateStatus
func (s EstimateStatus) IsValid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusReleased, EstimateStatusStandard, EstimateStatusArchived:
		return true
	}
	return false
}

// IsMutable returns true if the estimate may still be changed
func (s EstimateStatus) IsMutable() bool {
	return s == EstimateStatusDraft
}

// CostEstimate is a versioned, lot-sized standard (or planned) cost for a
// material at a plant. The aggregate owns its cost components; totals are
// recomputed on every mutation so that sum(components) == TotalCost holds
// at all times. At most one STANDARD estimate is active per material/plant
// and validity period; marking a new standard archives the prior one.
type CostEstimate struct {
	shared.BaseAggregateRoot
	MaterialID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_estimate_identity,priority:1"`
	PlantID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_estimate_identity,priority:2"`
	CostingVersion int                  `gorm:"not null;uniqueIndex:idx_estimate_identity,priority:3"`
	LotSize        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	Status         EstimateStatus       `gorm:"type:varchar(10);not null;index"`
	ValidFrom      time.Time            `gorm:"type:date;not null;uniqueIndex:idx_estimate_identity,priority:4"`
	ValidTo        *time.Time           `gorm:"type:date"`
	TotalCost      decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	UnitCost       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ReleasedAt     *time.Time
	ArchivedAt     *time.Time

	Components []CostComponent `gorm:"foreignKey:EstimateID;references:ID"`
}

// TableName returns the table name for GORM
func (CostEstimate) TableName() string {
	return "cost_estimates"
}

// NewCostEstimate creates a new draft cost estimate
func NewCostEstimate(materialID, plantID uuid.UUID, costingVersion int, lotSize decimal.Decimal, validFrom time.Time) (*CostEstimate, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if lotSize.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidLotSize
	}

	return &CostEstimate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MaterialID:        materialID,
		PlantID:           plantID,
		CostingVersion:    costingVersion,
		LotSize:           lotSize,
		Currency:          valueobject.DefaultCurrency,
		Status:            EstimateStatusDraft,
		ValidFrom:         validFrom,
		TotalCost:         decimal.Zero,
		UnitCost:          decimal.Zero,
		Components:        make([]CostComponent, 0),
	}, nil
}

// AddComponent adds a cost component and recomputes totals.
// Only draft estimates may be changed.
func (e *CostEstimate) AddComponent(componentType CostComponentType, fixed, variable decimal.Decimal) error {
	if !e.Status.IsMutable() {
		return shared.ErrInvalidState
	}

	component, err := NewCostComponent(e.ID, componentType, fixed, variable)
	if err != nil {
		return err
	}

	// Amounts of the same type accumulate into a single component row.
	merged := false
	for idx := range e.Components {
		if e.Components[idx].Type == componentType {
			e.Components[idx].FixedAmount = e.Components[idx].FixedAmount.Add(fixed)
			e.Components[idx].VariableAmount = e.Components[idx].VariableAmount.Add(variable)
			merged = true
			break
		}
	}
	if !merged {
		e.Components = append(e.Components, *component)
	}

	e.recompute()
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// recompute derives TotalCost and UnitCost from the component split.
// TotalCost is rounded half-up at the money scale, UnitCost at the price scale.
func (e *CostEstimate) recompute() {
	total := decimal.Zero
	for idx := range e.Components {
		total = total.Add(e.Components[idx].Amount())
	}
	e.TotalCost = total.Round(valueobject.MoneyScale)
	e.UnitCost = e.TotalCost.Div(e.LotSize).Round(valueobject.PriceScale)
}

// ComponentAmount returns the amount recorded for a component type
func (e *CostEstimate) ComponentAmount(componentType CostComponentType) decimal.Decimal {
	for idx := range e.Components {
		if e.Components[idx].Type == componentType {
			return e.Components[idx].Amount()
		}
	}
	return decimal.Zero
}

// Release transitions the estimate from DRAFT to RELEASED.
// A releasable estimate must carry at least one cost component.
func (e *CostEstimate) Release() error {
	if e.Status != EstimateStatusDraft {
		return shared.ErrInvalidState
	}
	if len(e.Components) == 0 {
		return shared.NewDomainError("NO_COMPONENTS", "Cannot release an estimate without cost components")
	}

	now := time.Now()
	e.Status = EstimateStatusReleased
	e.ReleasedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	e.AddDomainEvent(NewEstimateReleasedEvent(e))
	return nil
}

// MarkStandard transitions a RELEASED estimate to STANDARD.
// The caller (application layer) is responsible for archiving any previously
// active standard estimate for the same material/plant before saving.
func (e *CostEstimate) MarkStandard() error {
	if e.Status != EstimateStatusReleased {
		return shared.ErrInvalidState
	}

	e.Status = EstimateStatusStandard
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	e.AddDomainEvent(NewEstimateMarkedStandardEvent(e))
	return nil
}

// Archive retires the estimate. Used when a newer estimate supersedes it.
func (e *CostEstimate) Archive() error {
	if e.Status != EstimateStatusReleased && e.Status != EstimateStatusStandard {
		return shared.ErrInvalidState
	}

	now := time.Now()
	e.Status = EstimateStatusArchived
	e.ArchivedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	e.AddDomainEvent(NewEstimateArchivedEvent(e))
	return nil
}

// IsStandard returns true if this estimate is the active standard
func (e *CostEstimate) IsStandard() bool {
	return e.Status == EstimateStatusStandard
}

// StandardPrice returns the unit cost when the estimate is the active standard
func (e *CostEstimate) StandardPrice() (decimal.Decimal, bool) {
	if !e.IsStandard() {
		return decimal.Zero, false
	}
	return e.UnitCost, true
}
