package periodclose

import (
	"context"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeProductionConfirmed is consumed from the production system.
// Each confirmation carries the incremental costs booked to the order.
const EventTypeProductionConfirmed = "production.order.confirmed"

// ProductionConfirmedEvent notifies of confirmed production costs
type ProductionConfirmedEvent struct {
	shared.BaseDomainEvent
	ProductionOrderID uuid.UUID       `json:"production_order_id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	PlantID           uuid.UUID       `json:"plant_id"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	MachineCost       decimal.Decimal `json:"machine_cost"`
	ConfirmedAt       time.Time       `json:"confirmed_at"`
}

// NewProductionConfirmedEvent creates a new ProductionConfirmedEvent
func NewProductionConfirmedEvent(productionOrderID, materialID, plantID uuid.UUID, materialCost, laborCost, machineCost decimal.Decimal, confirmedAt time.Time) *ProductionConfirmedEvent {
	return &ProductionConfirmedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProductionConfirmed, "ProductionOrder", productionOrderID),
		ProductionOrderID: productionOrderID,
		MaterialID:        materialID,
		PlantID:           plantID,
		MaterialCost:      materialCost,
		LaborCost:         laborCost,
		MachineCost:       machineCost,
		ConfirmedAt:       confirmedAt,
	}
}

// WIPHandler accumulates confirmed production costs into WIP positions.
// Wrap it with idempotency at wiring time.
type WIPHandler struct {
	closeService *CloseService
}

// NewWIPHandler creates a new WIPHandler
func NewWIPHandler(closeService *CloseService) *WIPHandler {
	return &WIPHandler{closeService: closeService}
}

// EventTypes returns the event types this handler is interested in
func (h *WIPHandler) EventTypes() []string {
	return []string{EventTypeProductionConfirmed}
}

// Handle accumulates the confirmation's costs into the order's WIP position
func (h *WIPHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*ProductionConfirmedEvent)
	if !ok {
		return nil
	}

	period := valueobject.FiscalPeriodOf(e.ConfirmedAt)
	_, err := h.closeService.AccumulateWIP(ctx, AccumulateWIPRequest{
		ProductionOrderID: e.ProductionOrderID,
		MaterialID:        e.MaterialID,
		PlantID:           e.PlantID,
		Year:              period.Year,
		Period:            period.Period,
		MaterialCost:      e.MaterialCost,
		LaborCost:         e.LaborCost,
		MachineCost:       e.MachineCost,
	})
	return err
}
