package ledger

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialPrice is the running price state per material/plant/valuation
// view. It is mutated only by the valuation store; the moving-average
// recalculation is a read-modify-write, so postings to the same material
// must be serialized (the posting service holds a per-material lock and
// the repository guards cross-process writes with the version counter).
type MaterialPrice struct {
	shared.BaseAggregateRoot
	MaterialID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_material_price_identity,priority:1"`
	PlantID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_material_price_identity,priority:2"`
	View       ValuationView `gorm:"type:varchar(20);not null;uniqueIndex:idx_material_price_identity,priority:3"`
	Method     PriceMethod   `gorm:"type:varchar(20);not null"`

	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Determined bool            `gorm:"not null;default:false"` // false for ACTUAL until close
	Fixed      bool            `gorm:"not null;default:false"` // manually fixed, never recalculated

	OnHandQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalValue     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (MaterialPrice) TableName() string {
	return "material_prices"
}

// NewMaterialPrice creates the price record for a material/plant/view
func NewMaterialPrice(materialID, plantID uuid.UUID, view ValuationView, method PriceMethod) (*MaterialPrice, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if !view.IsValid() {
		return nil, shared.NewDomainError("INVALID_VALUATION_VIEW", "Invalid valuation view")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRICE_METHOD", "Invalid price method")
	}

	return &MaterialPrice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MaterialID:        materialID,
		PlantID:           plantID,
		View:              view,
		Method:            method,
		Price:             decimal.Zero,
		Determined:        method != PriceMethodActual,
		OnHandQuantity:    decimal.Zero,
		TotalValue:        decimal.Zero,
	}, nil
}

// EffectivePrice returns the unit price a movement is valued at under this
// view. For undetermined actual prices the posted price passes through.
func (p *MaterialPrice) EffectivePrice(postedPrice decimal.Decimal) decimal.Decimal {
	switch p.Method {
	case PriceMethodStandard:
		if p.Determined {
			return p.Price
		}
		return postedPrice
	case PriceMethodMovingAverage:
		return p.Price
	default:
		return postedPrice
	}
}

// ApplyReceipt records an inbound movement and recalculates the running
// price according to the view's method. For moving average:
// newPrice = (oldQty*oldPrice + inQty*inPrice) / (oldQty + inQty).
func (p *MaterialPrice) ApplyReceipt(quantity, unitPrice decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	switch p.Method {
	case PriceMethodMovingAverage:
		if !p.Fixed {
			oldQuantity := p.OnHandQuantity
			if oldQuantity.IsZero() {
				p.Price = unitPrice.Round(valueobject.PriceScale)
			} else {
				totalValue := oldQuantity.Mul(p.Price).Add(quantity.Mul(unitPrice))
				p.Price = totalValue.Div(oldQuantity.Add(quantity)).Round(valueobject.PriceScale)
			}
		}
		p.TotalValue = p.TotalValue.Add(quantity.Mul(unitPrice)).Round(valueobject.MoneyScale)
	case PriceMethodStandard:
		// Valued at standard; the deviation is a price variance on the
		// entry, never absorbed into the price.
		p.TotalValue = p.TotalValue.Add(quantity.Mul(p.Price)).Round(valueobject.MoneyScale)
	case PriceMethodActual:
		// Price stays undetermined; value accumulates at posted prices
		// for the close-time recalculation.
		p.TotalValue = p.TotalValue.Add(quantity.Mul(unitPrice)).Round(valueobject.MoneyScale)
	}

	p.OnHandQuantity = p.OnHandQuantity.Add(quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// ApplyIssue records an outbound movement valued at the current effective
// price. Unless backorders are permitted the on-hand quantity may not go
// negative.
func (p *MaterialPrice) ApplyIssue(quantity decimal.Decimal, allowNegative bool) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Issue quantity must be positive")
	}
	if !allowNegative && p.OnHandQuantity.LessThan(quantity) {
		return shared.ErrNegativeBalance
	}

	issueValue := quantity.Mul(p.Price).Round(valueobject.MoneyScale)
	p.OnHandQuantity = p.OnHandQuantity.Sub(quantity)
	p.TotalValue = p.TotalValue.Sub(issueValue)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// ApplyValueAdjustment adds value without changing quantity (invoice price
// differences, landed-cost debits, revaluations).
func (p *MaterialPrice) ApplyValueAdjustment(amount decimal.Decimal) {
	p.TotalValue = p.TotalValue.Add(amount).Round(valueobject.MoneyScale)
	if p.Method == PriceMethodMovingAverage && !p.Fixed && p.OnHandQuantity.IsPositive() {
		p.Price = p.TotalValue.Div(p.OnHandQuantity).Round(valueobject.PriceScale)
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetStandardPrice fixes the standard-view price from a released estimate
func (p *MaterialPrice) SetStandardPrice(price decimal.Decimal) error {
	if p.Method != PriceMethodStandard {
		return shared.ErrInvalidState
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Standard price cannot be negative")
	}

	p.Price = price.Round(valueobject.PriceScale)
	p.Determined = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// DetermineActualPrice sets the period-close actual price
func (p *MaterialPrice) DetermineActualPrice(price decimal.Decimal) error {
	if p.Method != PriceMethodActual {
		return shared.ErrInvalidState
	}

	p.Price = price.Round(valueobject.PriceScale)
	p.Determined = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// FixPrice marks the price as manually fixed; recalculation skips it
func (p *MaterialPrice) FixPrice(price decimal.Decimal) {
	p.Price = price.Round(valueobject.PriceScale)
	p.Fixed = true
	p.Determined = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
