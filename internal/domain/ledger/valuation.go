package ledger

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationView is one of the simultaneous costing perspectives carried
// per ledger entry.
type ValuationView string

const (
	ViewLegal        ValuationView = "LEGAL"
	ViewGroup        ValuationView = "GROUP"
	ViewProfitCenter ValuationView = "PROFIT_CENTER"
)

// String returns the string representation of the valuation view
func (v ValuationView) String() string {
	return string(v)
}

// IsValid returns true if the valuation view is valid
func (v ValuationView) IsValid() bool {
	switch v {
	case ViewLegal, ViewGroup, ViewProfitCenter:
		return true
	}
	return false
}

// AllValuationViews lists every supported view in a stable order
func AllValuationViews() []ValuationView {
	return []ValuationView{ViewLegal, ViewGroup, ViewProfitCenter}
}

// PriceMethod is the price-determination method configured per view
type PriceMethod string

const (
	// PriceMethodStandard values movements at the released standard cost;
	// deviations become price variances, never absorbed into the price.
	PriceMethodStandard PriceMethod = "STANDARD"
	// PriceMethodMovingAverage recalculates a weighted average on each receipt
	PriceMethodMovingAverage PriceMethod = "MOVING_AVERAGE"
	// PriceMethodActual stays undetermined until period close recalculates it
	PriceMethodActual PriceMethod = "ACTUAL"
)

// String returns the string representation of the price method
func (m PriceMethod) String() string {
	return string(m)
}

// IsValid returns true if the price method is valid
func (m PriceMethod) IsValid() bool {
	switch m {
	case PriceMethodStandard, PriceMethodMovingAverage, PriceMethodActual:
		return true
	}
	return false
}

// MaterialLedgerValuation is the per-view value of one ledger entry.
// TotalValue is always derived from UnitPrice and the entry quantity so
// that TotalValue / Quantity == UnitPrice within rounding tolerance.
type MaterialLedgerValuation struct {
	shared.BaseEntity
	EntryID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_valuation_entry"`
	View       ValuationView   `gorm:"type:varchar(20);not null"`
	Method     PriceMethod     `gorm:"type:varchar(20);not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalValue decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (MaterialLedgerValuation) TableName() string {
	return "material_ledger_valuations"
}

// NewMaterialLedgerValuation creates a valuation line for one entry
func NewMaterialLedgerValuation(entryID uuid.UUID, view ValuationView, method PriceMethod, unitPrice, quantity decimal.Decimal) (*MaterialLedgerValuation, error) {
	if !view.IsValid() {
		return nil, shared.NewDomainError("INVALID_VALUATION_VIEW", "Invalid valuation view")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRICE_METHOD", "Invalid price method")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &MaterialLedgerValuation{
		BaseEntity: shared.NewBaseEntity(),
		EntryID:    entryID,
		View:       view,
		Method:     method,
		UnitPrice:  unitPrice,
		TotalValue: unitPrice.Mul(quantity).Round(valueobject.MoneyScale),
	}, nil
}
