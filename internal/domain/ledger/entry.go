package ledger

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a quantity/value movement
type MovementType string

const (
	MovementReceipt     MovementType = "RECEIPT"
	MovementIssue       MovementType = "ISSUE"
	MovementConsumption MovementType = "CONSUMPTION"
	MovementInvoice     MovementType = "INVOICE"
	MovementRevaluation MovementType = "REVALUATION"
	MovementLandedCost  MovementType = "LANDED_COST"
)

// String returns the string representation of the movement type
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementConsumption,
		MovementInvoice, MovementRevaluation, MovementLandedCost:
		return true
	}
	return false
}

// IsInbound returns true if this movement increases on-hand quantity
func (t MovementType) IsInbound() bool {
	return t == MovementReceipt
}

// IsOutbound returns true if this movement decreases on-hand quantity
func (t MovementType) IsOutbound() bool {
	return t == MovementIssue || t == MovementConsumption
}

// IsValueOnly returns true for movements that change value but not quantity
func (t MovementType) IsValueOnly() bool {
	return t == MovementInvoice || t == MovementRevaluation || t == MovementLandedCost
}

// MaterialLedgerEntry is one immutable record of a material movement within
// a fiscal period. Entries are append-only; corrections are posted as
// reversing entries, never as mutations.
type MaterialLedgerEntry struct {
	shared.BaseEntity
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_material,priority:1"`
	PlantID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_material,priority:2"`
	FiscalYear   int             `gorm:"not null;index:idx_ledger_entry_period,priority:1"`
	FiscalPeriod int             `gorm:"not null;index:idx_ledger_entry_period,priority:2"`
	SequenceNo   int64           `gorm:"not null"` // per material/plant posting order
	MovementType MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive
	PostingDate  time.Time       `gorm:"type:timestamptz;not null"`
	SourceRef    string          `gorm:"type:varchar(100)"` // originating document/event reference

	// StandardPrice is the active standard unit cost at posting time, when
	// one existed. PriceVariance is (posted price - standard) * quantity,
	// captured here for later variance aggregation.
	StandardPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ActualPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // legal-view posted unit price
	PriceVariance decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`

	// Amount is the movement's monetary value: quantity times posted price
	// for quantity movements, the adjustment amount for value-only ones.
	Amount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	Valuations []MaterialLedgerValuation `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (MaterialLedgerEntry) TableName() string {
	return "material_ledger_entries"
}

// NewMaterialLedgerEntry creates a new immutable ledger entry
func NewMaterialLedgerEntry(
	materialID, plantID uuid.UUID,
	period valueobject.FiscalPeriod,
	sequenceNo int64,
	movementType MovementType,
	quantity decimal.Decimal,
	postingDate time.Time,
	sourceRef string,
) (*MaterialLedgerEntry, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) && !movementType.IsValueOnly() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return &MaterialLedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		MaterialID:    materialID,
		PlantID:       plantID,
		FiscalYear:    period.Year,
		FiscalPeriod:  period.Period,
		SequenceNo:    sequenceNo,
		MovementType:  movementType,
		Quantity:      quantity,
		PostingDate:   postingDate,
		SourceRef:     sourceRef,
		PriceVariance: decimal.Zero,
		Valuations:    make([]MaterialLedgerValuation, 0),
	}, nil
}

// AddValuation attaches a per-view valuation line
func (e *MaterialLedgerEntry) AddValuation(view ValuationView, method PriceMethod, unitPrice decimal.Decimal) error {
	valuation, err := NewMaterialLedgerValuation(e.ID, view, method, unitPrice, e.Quantity)
	if err != nil {
		return err
	}
	e.Valuations = append(e.Valuations, *valuation)
	return nil
}

// RecordStandardDeviation captures the posting-time price variance against
// the active standard price: (posted price - standard) * quantity.
func (e *MaterialLedgerEntry) RecordStandardDeviation(standardPrice, postedPrice decimal.Decimal) {
	e.StandardPrice = &standardPrice
	e.ActualPrice = postedPrice
	e.PriceVariance = postedPrice.Sub(standardPrice).Mul(e.Quantity).Round(valueobject.MoneyScale)
}

// ValuationFor returns the valuation line for a view, if present
func (e *MaterialLedgerEntry) ValuationFor(view ValuationView) (MaterialLedgerValuation, bool) {
	for _, valuation := range e.Valuations {
		if valuation.View == view {
			return valuation, true
		}
	}
	return MaterialLedgerValuation{}, false
}

// Period returns the entry's fiscal period
func (e *MaterialLedgerEntry) Period() valueobject.FiscalPeriod {
	return valueobject.FiscalPeriod{Year: e.FiscalYear, Period: e.FiscalPeriod}
}

// SignedQuantity returns the quantity signed by movement direction.
// Value-only movements contribute zero quantity.
func (e *MaterialLedgerEntry) SignedQuantity() decimal.Decimal {
	switch {
	case e.MovementType.IsOutbound():
		return e.Quantity.Neg()
	case e.MovementType.IsValueOnly():
		return decimal.Zero
	default:
		return e.Quantity
	}
}

// HasStandard returns true when a standard price was active at posting time
func (e *MaterialLedgerEntry) HasStandard() bool {
	return e.StandardPrice != nil
}
