package periodclose

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Settlement accounts for close postings
const (
	AccountPriceDifference = "PRICE_DIFFERENCE"
	AccountWIPSettlement   = "WIP_SETTLEMENT"
)

// SettlementInstruction is one posting handed to financial accounting
type SettlementInstruction struct {
	Account   string               `json:"account"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	PeriodRef string               `json:"period_ref"`
}

// SettlementPoster hands settlement instructions to the financial system.
// The close treats posting as all-or-nothing: an error fails the settlement
// step and the retry re-posts the whole batch.
type SettlementPoster interface {
	PostSettlement(ctx context.Context, instructions []SettlementInstruction) error
}

// NoopSettlementPoster accepts every instruction without side effects. Used
// when no financial system is wired up.
type NoopSettlementPoster struct{}

// PostSettlement implements SettlementPoster
func (NoopSettlementPoster) PostSettlement(_ context.Context, _ []SettlementInstruction) error {
	return nil
}
