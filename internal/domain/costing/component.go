package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostComponentType is the closed set of cost component categories.
// It is a tagged variant over a fixed enumeration, not an open hierarchy.
type CostComponentType string

const (
	ComponentMaterial  CostComponentType = "MATERIAL"
	ComponentLabor     CostComponentType = "LABOR"
	ComponentMachine   CostComponentType = "MACHINE"
	ComponentSetup     CostComponentType = "SETUP"
	ComponentOverhead  CostComponentType = "OVERHEAD"
	ComponentFreight   CostComponentType = "FREIGHT"
	ComponentDuty      CostComponentType = "DUTY"
	ComponentInsurance CostComponentType = "INSURANCE"
	ComponentHandling  CostComponentType = "HANDLING"
	ComponentOther     CostComponentType = "OTHER"
)

// String returns the string representation of the component type
func (t CostComponentType) String() string {
	return string(t)
}

// IsValid returns true if the component type is valid
func (t CostComponentType) IsValid() bool {
	switch t {
	case ComponentMaterial, ComponentLabor, ComponentMachine, ComponentSetup,
		ComponentOverhead, ComponentFreight, ComponentDuty, ComponentInsurance,
		ComponentHandling, ComponentOther:
		return true
	}
	return false
}

// VarianceCategory maps a component type onto the coarse reporting
// categories used by variance aggregation.
func (t CostComponentType) VarianceCategory() string {
	switch t {
	case ComponentMaterial, ComponentFreight, ComponentDuty, ComponentInsurance, ComponentHandling:
		return "MATERIAL"
	case ComponentLabor, ComponentMachine, ComponentSetup:
		return "LABOR"
	default:
		return "OVERHEAD"
	}
}

// CostComponent is a typed amount within a cost estimate, carrying the
// fixed/variable split. Components are never edited independently; the
// owning estimate recomputes its totals on every mutation.
type CostComponent struct {
	shared.BaseEntity
	EstimateID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_cost_component_estimate"`
	Type           CostComponentType `gorm:"type:varchar(20);not null"`
	FixedAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	VariableAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CostComponent) TableName() string {
	return "cost_components"
}

// NewCostComponent creates a new cost component
func NewCostComponent(estimateID uuid.UUID, componentType CostComponentType, fixed, variable decimal.Decimal) (*CostComponent, error) {
	if !componentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMPONENT_TYPE", "Invalid cost component type")
	}
	if fixed.IsNegative() || variable.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Component amounts cannot be negative")
	}

	return &CostComponent{
		BaseEntity:     shared.NewBaseEntity(),
		EstimateID:     estimateID,
		Type:           componentType,
		FixedAmount:    fixed,
		VariableAmount: variable,
	}, nil
}

// Amount returns the total component amount (fixed + variable)
func (c *CostComponent) Amount() decimal.Decimal {
	return c.FixedAmount.Add(c.VariableAmount)
}
