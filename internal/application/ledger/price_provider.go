package ledger

import (
	"context"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationPriceProvider supplies component prices for cost estimation from
// the material ledger's legal valuation view, used when a component has no
// released standard estimate of its own.
type ValuationPriceProvider struct {
	priceRepo ledger.MaterialPriceRepository
}

// NewValuationPriceProvider creates a new ValuationPriceProvider
func NewValuationPriceProvider(priceRepo ledger.MaterialPriceRepository) *ValuationPriceProvider {
	return &ValuationPriceProvider{priceRepo: priceRepo}
}

// UnitPrice returns the legal-view price of the material
func (p *ValuationPriceProvider) UnitPrice(ctx context.Context, materialID, plantID uuid.UUID) (decimal.Decimal, error) {
	price, err := p.priceRepo.FindByMaterialAndView(ctx, materialID, plantID, ledger.ViewLegal)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Price, nil
}

// Ensure ValuationPriceProvider implements ComponentPriceProvider
var _ costing.ComponentPriceProvider = (*ValuationPriceProvider)(nil)
