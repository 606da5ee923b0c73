package variance

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VarianceType classifies what the deviation is attributed to
type VarianceType string

const (
	// VariancePrice is (actualPrice - standardPrice) * actualQuantity
	VariancePrice VarianceType = "PRICE"
	// VarianceQuantity is (actualQuantity - standardQuantity) * standardPrice
	VarianceQuantity VarianceType = "QUANTITY"
)

// String returns the string representation of the variance type
func (t VarianceType) String() string {
	return string(t)
}

// IsValid returns true if the variance type is valid
func (t VarianceType) IsValid() bool {
	return t == VariancePrice || t == VarianceQuantity
}

// VarianceCategory groups variances for reporting
type VarianceCategory string

const (
	CategoryMaterial VarianceCategory = "MATERIAL"
	CategoryLabor    VarianceCategory = "LABOR"
	CategoryOverhead VarianceCategory = "OVERHEAD"
)

// IsValid returns true if the variance category is valid
func (c VarianceCategory) IsValid() bool {
	return c == CategoryMaterial || c == CategoryLabor || c == CategoryOverhead
}

// Direction classifies a variance against the standard
type Direction string

const (
	// DirectionFavorable means actual cost came in below standard
	DirectionFavorable Direction = "FAVORABLE"
	// DirectionUnfavorable means actual cost exceeded standard
	DirectionUnfavorable Direction = "UNFAVORABLE"
)

// DirectionOf classifies a signed variance amount. Positive amounts mean
// actual exceeded standard.
func DirectionOf(amount decimal.Decimal) Direction {
	if amount.IsNegative() {
		return DirectionFavorable
	}
	return DirectionUnfavorable
}

// CostVariance is one classified deviation between standard and actual
// cost. Records are immutable after creation except for the one-time
// settlement transition stamped by the period close.
type CostVariance struct {
	shared.BaseAggregateRoot
	MaterialID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_variance_material,priority:1"`
	PlantID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_variance_material,priority:2"`
	FiscalYear   int              `gorm:"not null;index:idx_variance_period,priority:1"`
	FiscalPeriod int              `gorm:"not null;index:idx_variance_period,priority:2"`
	Type         VarianceType     `gorm:"type:varchar(20);not null"`
	Category     VarianceCategory `gorm:"type:varchar(20);not null"`

	StandardPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ActualPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StandardQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ActualQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"` // signed, positive = unfavorable
	Direction Direction       `gorm:"type:varchar(20);not null"`
	SourceRef string          `gorm:"type:varchar(100)"`

	Settled       bool       `gorm:"not null;default:false"`
	SettlementRef string     `gorm:"type:varchar(100)"`
	SettledAt     *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (CostVariance) TableName() string {
	return "cost_variances"
}

// NewPriceVariance creates a price variance:
// (actualPrice - standardPrice) * actualQuantity.
func NewPriceVariance(
	materialID, plantID uuid.UUID,
	period valueobject.FiscalPeriod,
	category VarianceCategory,
	standardPrice, actualPrice, actualQuantity decimal.Decimal,
	sourceRef string,
) (*CostVariance, error) {
	amount := actualPrice.Sub(standardPrice).Mul(actualQuantity).Round(valueobject.MoneyScale)
	return newCostVariance(materialID, plantID, period, VariancePrice, category,
		standardPrice, actualPrice, actualQuantity, actualQuantity, amount, sourceRef)
}

// NewQuantityVariance creates a quantity variance:
// (actualQuantity - standardQuantity) * standardPrice.
func NewQuantityVariance(
	materialID, plantID uuid.UUID,
	period valueobject.FiscalPeriod,
	category VarianceCategory,
	standardPrice, standardQuantity, actualQuantity decimal.Decimal,
	sourceRef string,
) (*CostVariance, error) {
	amount := actualQuantity.Sub(standardQuantity).Mul(standardPrice).Round(valueobject.MoneyScale)
	return newCostVariance(materialID, plantID, period, VarianceQuantity, category,
		standardPrice, standardPrice, standardQuantity, actualQuantity, amount, sourceRef)
}

func newCostVariance(
	materialID, plantID uuid.UUID,
	period valueobject.FiscalPeriod,
	varianceType VarianceType,
	category VarianceCategory,
	standardPrice, actualPrice, standardQuantity, actualQuantity, amount decimal.Decimal,
	sourceRef string,
) (*CostVariance, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_VARIANCE_CATEGORY", "Invalid variance category")
	}

	return &CostVariance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MaterialID:        materialID,
		PlantID:           plantID,
		FiscalYear:        period.Year,
		FiscalPeriod:      period.Period,
		Type:              varianceType,
		Category:          category,
		StandardPrice:     standardPrice,
		ActualPrice:       actualPrice,
		StandardQuantity:  standardQuantity,
		ActualQuantity:    actualQuantity,
		Amount:            amount,
		Direction:         DirectionOf(amount),
		SourceRef:         sourceRef,
	}, nil
}

// Period returns the variance's fiscal period
func (v *CostVariance) Period() valueobject.FiscalPeriod {
	return valueobject.FiscalPeriod{Year: v.FiscalYear, Period: v.FiscalPeriod}
}

// IsFavorable returns true if actual cost came in below standard
func (v *CostVariance) IsFavorable() bool {
	return v.Direction == DirectionFavorable
}

// Settle stamps the settlement reference exactly once
func (v *CostVariance) Settle(settlementRef string) error {
	if v.Settled {
		return shared.ErrAlreadySettled
	}
	if settlementRef == "" {
		return shared.NewDomainError("INVALID_SETTLEMENT_REF", "Settlement reference cannot be empty")
	}

	now := time.Now()
	v.Settled = true
	v.SettlementRef = settlementRef
	v.SettledAt = &now
	v.UpdatedAt = now
	v.IncrementVersion()
	v.AddDomainEvent(NewVarianceSettledEvent(v))
	return nil
}
