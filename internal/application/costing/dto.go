package costing

import (
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateEstimateRequest represents a request to calculate a cost estimate
type CalculateEstimateRequest struct {
	MaterialID     uuid.UUID       `json:"material_id" binding:"required"`
	PlantID        uuid.UUID       `json:"plant_id" binding:"required"`
	CostingVersion int             `json:"costing_version" binding:"min=1"`
	LotSize        decimal.Decimal `json:"lot_size" binding:"required"`
	BOMVersion     string          `json:"bom_version"`
	RoutingVersion string          `json:"routing_version"`
	CostingSheetID *uuid.UUID      `json:"costing_sheet_id"`
	ValidFrom      *time.Time      `json:"valid_from"`
}

// EstimateListFilter represents filter options for estimate lists
type EstimateListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT RELEASED STANDARD ARCHIVED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CostComponentResponse represents one component of the cost split
type CostComponentResponse struct {
	Type           costing.CostComponentType `json:"type"`
	FixedAmount    decimal.Decimal           `json:"fixed_amount"`
	VariableAmount decimal.Decimal           `json:"variable_amount"`
	Amount         decimal.Decimal           `json:"amount"`
}

// EstimateResponse represents a cost estimate in API responses
type EstimateResponse struct {
	ID             uuid.UUID               `json:"id"`
	MaterialID     uuid.UUID               `json:"material_id"`
	PlantID        uuid.UUID               `json:"plant_id"`
	CostingVersion int                     `json:"costing_version"`
	LotSize        decimal.Decimal         `json:"lot_size"`
	Currency       string                  `json:"currency"`
	Status         costing.EstimateStatus  `json:"status"`
	ValidFrom      time.Time               `json:"valid_from"`
	ValidTo        *time.Time              `json:"valid_to,omitempty"`
	TotalCost      decimal.Decimal         `json:"total_cost"`
	UnitCost       decimal.Decimal         `json:"unit_cost"`
	Components     []CostComponentResponse `json:"components"`
	ReleasedAt     *time.Time              `json:"released_at,omitempty"`
	ArchivedAt     *time.Time              `json:"archived_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Version        int                     `json:"version"`
}

// ToEstimateResponse maps a domain estimate to its API representation
func ToEstimateResponse(estimate *costing.CostEstimate) EstimateResponse {
	components := make([]CostComponentResponse, 0, len(estimate.Components))
	for _, component := range estimate.Components {
		components = append(components, CostComponentResponse{
			Type:           component.Type,
			FixedAmount:    component.FixedAmount,
			VariableAmount: component.VariableAmount,
			Amount:         component.Amount(),
		})
	}

	return EstimateResponse{
		ID:             estimate.ID,
		MaterialID:     estimate.MaterialID,
		PlantID:        estimate.PlantID,
		CostingVersion: estimate.CostingVersion,
		LotSize:        estimate.LotSize,
		Currency:       string(estimate.Currency),
		Status:         estimate.Status,
		ValidFrom:      estimate.ValidFrom,
		ValidTo:        estimate.ValidTo,
		TotalCost:      estimate.TotalCost,
		UnitCost:       estimate.UnitCost,
		Components:     components,
		ReleasedAt:     estimate.ReleasedAt,
		ArchivedAt:     estimate.ArchivedAt,
		CreatedAt:      estimate.CreatedAt,
		UpdatedAt:      estimate.UpdatedAt,
		Version:        estimate.Version,
	}
}

// ToEstimateResponses maps a list of domain estimates
func ToEstimateResponses(estimates []costing.CostEstimate) []EstimateResponse {
	responses := make([]EstimateResponse, 0, len(estimates))
	for idx := range estimates {
		responses = append(responses, ToEstimateResponse(&estimates[idx]))
	}
	return responses
}
