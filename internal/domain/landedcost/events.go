package landedcost

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the landed cost context
const (
	EventTypeDocumentPosted = "landedcost.document.posted"
)

const aggregateTypeLandedCostDocument = "LandedCostDocument"

// DocumentPostedEvent is emitted when a calculated document posts. The
// instructions carry the per-material stock value debits for the
// valuation store.
type DocumentPostedEvent struct {
	shared.BaseDomainEvent
	PlantID       uuid.UUID                `json:"plant_id"`
	Reference     string                   `json:"reference"`
	TotalIndirect decimal.Decimal          `json:"total_indirect"`
	Instructions  []PriceUpdateInstruction `json:"instructions"`
}

// NewDocumentPostedEvent creates a new DocumentPostedEvent
func NewDocumentPostedEvent(d *LandedCostDocument) *DocumentPostedEvent {
	return &DocumentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentPosted, aggregateTypeLandedCostDocument, d.ID),
		PlantID:         d.PlantID,
		Reference:       d.Reference,
		TotalIndirect:   d.TotalIndirectCost(),
		Instructions:    d.PriceUpdateInstructions(),
	}
}
