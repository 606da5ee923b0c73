package periodclose

import (
	"time"

	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/variance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartCloseRequest represents a request to close a fiscal period
type StartCloseRequest struct {
	PlantID uuid.UUID `json:"plant_id" binding:"required"`
	Year    int       `json:"year" binding:"required"`
	Period  int       `json:"period" binding:"required,min=1,max=12"`
}

// CloseRunResponse represents a close run in API responses
type CloseRunResponse struct {
	ID                   uuid.UUID             `json:"id"`
	PlantID              uuid.UUID             `json:"plant_id"`
	FiscalYear           int                   `json:"fiscal_year"`
	FiscalPeriod         int                   `json:"fiscal_period"`
	Status               periodclose.RunStatus `json:"status"`
	ActualCostCalculated bool                  `json:"actual_cost_calculated"`
	VariancesCalculated  bool                  `json:"variances_calculated"`
	WIPCalculated        bool                  `json:"wip_calculated"`
	SettlementPosted     bool                  `json:"settlement_posted"`
	FailedStep           string                `json:"failed_step,omitempty"`
	ErrorMessage         string                `json:"error_message,omitempty"`
	MaterialsProcessed   int                   `json:"materials_processed"`
	TotalVarianceAmount  decimal.Decimal       `json:"total_variance_amount"`
	StartedAt            time.Time             `json:"started_at"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
}

// WIPResponse represents a WIP position in API responses
type WIPResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductionOrderID uuid.UUID       `json:"production_order_id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	PlantID           uuid.UUID       `json:"plant_id"`
	FiscalYear        int             `json:"fiscal_year"`
	FiscalPeriod      int             `json:"fiscal_period"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	MachineCost       decimal.Decimal `json:"machine_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Settled           bool            `json:"settled"`
	SettlementRef     string          `json:"settlement_ref,omitempty"`
	SettledAt         *time.Time      `json:"settled_at,omitempty"`
}

// AccumulateWIPRequest adds confirmed costs to a production order's WIP
type AccumulateWIPRequest struct {
	ProductionOrderID uuid.UUID       `json:"production_order_id" binding:"required"`
	MaterialID        uuid.UUID       `json:"material_id" binding:"required"`
	PlantID           uuid.UUID       `json:"plant_id" binding:"required"`
	Year              int             `json:"year" binding:"required"`
	Period            int             `json:"period" binding:"required,min=1,max=12"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	MachineCost       decimal.Decimal `json:"machine_cost"`
}

// ToCloseRunResponse maps a close run to its API representation
func ToCloseRunResponse(run *periodclose.PeriodCloseRun) CloseRunResponse {
	return CloseRunResponse{
		ID:                   run.ID,
		PlantID:              run.PlantID,
		FiscalYear:           run.FiscalYear,
		FiscalPeriod:         run.FiscalPeriod,
		Status:               run.Status,
		ActualCostCalculated: run.ActualCostCalculated,
		VariancesCalculated:  run.VariancesCalculated,
		WIPCalculated:        run.WIPCalculated,
		SettlementPosted:     run.SettlementPosted,
		FailedStep:           run.FailedStep,
		ErrorMessage:         run.ErrorMessage,
		MaterialsProcessed:   run.MaterialsProcessed,
		TotalVarianceAmount:  run.TotalVarianceAmount,
		StartedAt:            run.StartedAt,
		CompletedAt:          run.CompletedAt,
	}
}

// ToWIPResponse maps a WIP position to its API representation
func ToWIPResponse(position *periodclose.WIPPosition) WIPResponse {
	return WIPResponse{
		ID:                position.ID,
		ProductionOrderID: position.ProductionOrderID,
		MaterialID:        position.MaterialID,
		PlantID:           position.PlantID,
		FiscalYear:        position.FiscalYear,
		FiscalPeriod:      position.FiscalPeriod,
		MaterialCost:      position.MaterialCost,
		LaborCost:         position.LaborCost,
		MachineCost:       position.MachineCost,
		TotalCost:         position.TotalCost,
		Settled:           position.Settled,
		SettlementRef:     position.SettlementRef,
		SettledAt:         position.SettledAt,
	}
}

// ToWIPResponses maps a list of WIP positions
func ToWIPResponses(positions []*periodclose.WIPPosition) []WIPResponse {
	responses := make([]WIPResponse, 0, len(positions))
	for _, position := range positions {
		responses = append(responses, ToWIPResponse(position))
	}
	return responses
}

// ReportResponse wraps the period variance report
type ReportResponse struct {
	Run    CloseRunResponse       `json:"run"`
	Report *variance.PeriodReport `json:"report"`
}
