package ledger

import (
	"time"

	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitializeMaterialRequest registers a material for valuation with one
// price-determination method per valuation view.
type InitializeMaterialRequest struct {
	MaterialID uuid.UUID                                    `json:"material_id" binding:"required"`
	PlantID    uuid.UUID                                    `json:"plant_id" binding:"required"`
	Methods    map[ledger.ValuationView]ledger.PriceMethod `json:"methods" binding:"required"`
}

// PostMovementRequest represents a request to post a material movement
type PostMovementRequest struct {
	MaterialID   uuid.UUID           `json:"material_id" binding:"required"`
	PlantID      uuid.UUID           `json:"plant_id" binding:"required"`
	MovementType ledger.MovementType `json:"movement_type" binding:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	Amount       decimal.Decimal     `json:"amount"` // value-only movements
	PostingDate  *time.Time          `json:"posting_date"`
	SourceRef    string              `json:"source_ref" binding:"required"`
}

// ValuationResponse is one per-view valuation of a posted entry
type ValuationResponse struct {
	View       ledger.ValuationView `json:"view"`
	Method     ledger.PriceMethod   `json:"method"`
	UnitPrice  decimal.Decimal      `json:"unit_price"`
	TotalValue decimal.Decimal      `json:"total_value"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID            uuid.UUID           `json:"id"`
	MaterialID    uuid.UUID           `json:"material_id"`
	PlantID       uuid.UUID           `json:"plant_id"`
	FiscalYear    int                 `json:"fiscal_year"`
	FiscalPeriod  int                 `json:"fiscal_period"`
	SequenceNo    int64               `json:"sequence_no"`
	MovementType  ledger.MovementType `json:"movement_type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	PostingDate   time.Time           `json:"posting_date"`
	SourceRef     string              `json:"source_ref"`
	StandardPrice *decimal.Decimal    `json:"standard_price,omitempty"`
	ActualPrice   decimal.Decimal     `json:"actual_price"`
	PriceVariance decimal.Decimal     `json:"price_variance"`
	Valuations    []ValuationResponse `json:"valuations"`
}

// PriceResponse represents a material price record in API responses
type PriceResponse struct {
	ID             uuid.UUID            `json:"id"`
	MaterialID     uuid.UUID            `json:"material_id"`
	PlantID        uuid.UUID            `json:"plant_id"`
	View           ledger.ValuationView `json:"view"`
	Method         ledger.PriceMethod   `json:"method"`
	Price          decimal.Decimal      `json:"price"`
	Determined     bool                 `json:"determined"`
	Fixed          bool                 `json:"fixed"`
	OnHandQuantity decimal.Decimal      `json:"on_hand_quantity"`
	TotalValue     decimal.Decimal      `json:"total_value"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// EntryListFilter represents filter options for ledger entry lists
type EntryListFilter struct {
	Year     int    `form:"year" binding:"required"`
	Period   int    `form:"period" binding:"required,min=1,max=12"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToEntryResponse maps a domain entry to its API representation
func ToEntryResponse(entry *ledger.MaterialLedgerEntry) EntryResponse {
	valuations := make([]ValuationResponse, 0, len(entry.Valuations))
	for _, valuation := range entry.Valuations {
		valuations = append(valuations, ValuationResponse{
			View:       valuation.View,
			Method:     valuation.Method,
			UnitPrice:  valuation.UnitPrice,
			TotalValue: valuation.TotalValue,
		})
	}

	return EntryResponse{
		ID:            entry.ID,
		MaterialID:    entry.MaterialID,
		PlantID:       entry.PlantID,
		FiscalYear:    entry.FiscalYear,
		FiscalPeriod:  entry.FiscalPeriod,
		SequenceNo:    entry.SequenceNo,
		MovementType:  entry.MovementType,
		Quantity:      entry.Quantity,
		PostingDate:   entry.PostingDate,
		SourceRef:     entry.SourceRef,
		StandardPrice: entry.StandardPrice,
		ActualPrice:   entry.ActualPrice,
		PriceVariance: entry.PriceVariance,
		Valuations:    valuations,
	}
}

// ToEntryResponses maps a list of entries
func ToEntryResponses(entries []*ledger.MaterialLedgerEntry) []EntryResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToEntryResponse(entry))
	}
	return responses
}

// ToPriceResponse maps a domain price record to its API representation
func ToPriceResponse(price *ledger.MaterialPrice) PriceResponse {
	return PriceResponse{
		ID:             price.ID,
		MaterialID:     price.MaterialID,
		PlantID:        price.PlantID,
		View:           price.View,
		Method:         price.Method,
		Price:          price.Price,
		Determined:     price.Determined,
		Fixed:          price.Fixed,
		OnHandQuantity: price.OnHandQuantity,
		TotalValue:     price.TotalValue,
		UpdatedAt:      price.UpdatedAt,
	}
}

// ToPriceResponses maps a list of price records
func ToPriceResponses(prices []*ledger.MaterialPrice) []PriceResponse {
	responses := make([]PriceResponse, 0, len(prices))
	for _, price := range prices {
		responses = append(responses, ToPriceResponse(price))
	}
	return responses
}

// periodOf derives the fiscal period from an optional posting date
func periodOf(postingDate *time.Time) (time.Time, valueobject.FiscalPeriod) {
	date := time.Now()
	if postingDate != nil {
		date = *postingDate
	}
	return date, valueobject.FiscalPeriodOf(date)
}
