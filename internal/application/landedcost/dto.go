package landedcost

import (
	"time"

	"github.com/erp/costing/internal/domain/landedcost"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one material line of a document request
type LineRequest struct {
	MaterialID uuid.UUID       `json:"material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Weight     decimal.Decimal `json:"weight"`
	Volume     decimal.Decimal `json:"volume"`
}

// IndirectCostRequest is one indirect cost component of a document request
type IndirectCostRequest struct {
	Type          landedcost.CostType        `json:"type" binding:"required"`
	Basis         landedcost.AllocationBasis `json:"basis" binding:"required"`
	Amount        decimal.Decimal            `json:"amount" binding:"required"`
	ManualAmounts map[string]decimal.Decimal `json:"manual_amounts,omitempty"`
}

// CreateDocumentRequest represents a request to create a landed cost document
type CreateDocumentRequest struct {
	PlantID       uuid.UUID             `json:"plant_id" binding:"required"`
	Reference     string                `json:"reference" binding:"required"`
	Currency      valueobject.Currency  `json:"currency"`
	PostingDate   *time.Time            `json:"posting_date"`
	Lines         []LineRequest         `json:"lines"`
	IndirectCosts []IndirectCostRequest `json:"indirect_costs"`
}

// DocumentListFilter represents filter options for document lists
type DocumentListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID                uuid.UUID       `json:"id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	BasePrice         decimal.Decimal `json:"base_price"`
	Weight            decimal.Decimal `json:"weight"`
	Volume            decimal.Decimal `json:"volume"`
	AllocatedCost     decimal.Decimal `json:"allocated_cost"`
	TotalLandedCost   decimal.Decimal `json:"total_landed_cost"`
	LandedCostPerUnit decimal.Decimal `json:"landed_cost_per_unit"`
}

// IndirectCostResponse represents an indirect cost in API responses
type IndirectCostResponse struct {
	ID     uuid.UUID                  `json:"id"`
	Type   landedcost.CostType        `json:"type"`
	Basis  landedcost.AllocationBasis `json:"basis"`
	Amount decimal.Decimal            `json:"amount"`
}

// DocumentResponse represents a landed cost document in API responses
type DocumentResponse struct {
	ID            uuid.UUID                 `json:"id"`
	PlantID       uuid.UUID                 `json:"plant_id"`
	Reference     string                    `json:"reference"`
	Currency      valueobject.Currency      `json:"currency"`
	Status        landedcost.DocumentStatus `json:"status"`
	PostingDate   time.Time                 `json:"posting_date"`
	Lines         []LineResponse            `json:"lines"`
	IndirectCosts []IndirectCostResponse    `json:"indirect_costs"`
	CalculatedAt  *time.Time                `json:"calculated_at,omitempty"`
	PostedAt      *time.Time                `json:"posted_at,omitempty"`
}

// ToDocumentResponse maps a domain document to its API representation
func ToDocumentResponse(document *landedcost.LandedCostDocument) DocumentResponse {
	lines := make([]LineResponse, 0, len(document.Lines))
	for _, line := range document.Lines {
		lines = append(lines, LineResponse{
			ID:                line.ID,
			MaterialID:        line.MaterialID,
			Quantity:          line.Quantity,
			BasePrice:         line.BasePrice,
			Weight:            line.Weight,
			Volume:            line.Volume,
			AllocatedCost:     line.AllocatedCost,
			TotalLandedCost:   line.TotalLandedCost,
			LandedCostPerUnit: line.LandedCostPerUnit,
		})
	}

	costs := make([]IndirectCostResponse, 0, len(document.IndirectCosts))
	for _, cost := range document.IndirectCosts {
		costs = append(costs, IndirectCostResponse{
			ID:     cost.ID,
			Type:   cost.Type,
			Basis:  cost.Basis,
			Amount: cost.Amount,
		})
	}

	return DocumentResponse{
		ID:            document.ID,
		PlantID:       document.PlantID,
		Reference:     document.Reference,
		Currency:      document.Currency,
		Status:        document.Status,
		PostingDate:   document.PostingDate,
		Lines:         lines,
		IndirectCosts: costs,
		CalculatedAt:  document.CalculatedAt,
		PostedAt:      document.PostedAt,
	}
}

// ToDocumentResponses maps a list of documents
func ToDocumentResponses(documents []*landedcost.LandedCostDocument) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		responses = append(responses, ToDocumentResponse(document))
	}
	return responses
}
