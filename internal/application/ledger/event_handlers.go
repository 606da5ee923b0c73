package ledger

import (
	"context"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/shared"
)

// MovementHandler turns inbound integration events into ledger postings.
// Wrap it with idempotency at wiring time; upstream delivery is
// at-least-once.
type MovementHandler struct {
	postingService *PostingService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(postingService *PostingService) *MovementHandler {
	return &MovementHandler{postingService: postingService}
}

// EventTypes returns the event types this handler is interested in
func (h *MovementHandler) EventTypes() []string {
	return []string{
		EventTypeGoodsReceipt,
		EventTypeGoodsIssue,
		EventTypeInvoiceReceived,
	}
}

// Handle posts the movement described by the event
func (h *MovementHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *GoodsReceiptEvent:
		postingDate := e.PostingDate
		_, err := h.postingService.PostMovement(ctx, PostMovementRequest{
			MaterialID:   e.MaterialID,
			PlantID:      e.PlantID,
			MovementType: ledger.MovementReceipt,
			Quantity:     e.Quantity,
			UnitPrice:    e.UnitPrice,
			PostingDate:  &postingDate,
			SourceRef:    e.SourceRef,
		})
		return err

	case *GoodsIssueEvent:
		postingDate := e.PostingDate
		_, err := h.postingService.PostMovement(ctx, PostMovementRequest{
			MaterialID:   e.MaterialID,
			PlantID:      e.PlantID,
			MovementType: ledger.MovementIssue,
			Quantity:     e.Quantity,
			PostingDate:  &postingDate,
			SourceRef:    e.SourceRef,
		})
		return err

	case *InvoiceReceivedEvent:
		postingDate := e.PostingDate
		_, err := h.postingService.PostMovement(ctx, PostMovementRequest{
			MaterialID:   e.MaterialID,
			PlantID:      e.PlantID,
			MovementType: ledger.MovementInvoice,
			Quantity:     e.Quantity,
			UnitPrice:    e.ActualUnitPrice,
			PostingDate:  &postingDate,
			SourceRef:    e.SourceRef,
		})
		return err
	}
	return nil
}

// StandardCostHandler propagates newly activated standard costs into the
// material price records.
type StandardCostHandler struct {
	postingService *PostingService
}

// NewStandardCostHandler creates a new StandardCostHandler
func NewStandardCostHandler(postingService *PostingService) *StandardCostHandler {
	return &StandardCostHandler{postingService: postingService}
}

// EventTypes returns the event types this handler is interested in
func (h *StandardCostHandler) EventTypes() []string {
	return []string{costing.EventTypeEstimateMarkedStandard}
}

// Handle updates the STANDARD-method price records for the material
func (h *StandardCostHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*costing.EstimateMarkedStandardEvent)
	if !ok {
		return nil
	}
	return h.postingService.UpdateStandardPrices(ctx, e.MaterialID, e.PlantID, e.UnitCost)
}
