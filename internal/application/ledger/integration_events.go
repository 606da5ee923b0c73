package ledger

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types consumed from upstream logistics and invoicing systems.
// Delivery is at-least-once; the handlers are wrapped with idempotency.
const (
	EventTypeGoodsReceipt    = "logistics.goods.receipt"
	EventTypeGoodsIssue      = "logistics.goods.issue"
	EventTypeInvoiceReceived = "invoicing.invoice.received"
)

// GoodsReceiptEvent notifies the ledger of an inbound goods movement
type GoodsReceiptEvent struct {
	shared.BaseDomainEvent
	MaterialID  uuid.UUID       `json:"material_id"`
	PlantID     uuid.UUID       `json:"plant_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PostingDate time.Time       `json:"posting_date"`
	SourceRef   string          `json:"source_ref"`
}

// NewGoodsReceiptEvent creates a new GoodsReceiptEvent
func NewGoodsReceiptEvent(materialID, plantID uuid.UUID, quantity, unitPrice decimal.Decimal, postingDate time.Time, sourceRef string) *GoodsReceiptEvent {
	return &GoodsReceiptEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceipt, "GoodsReceipt", materialID),
		MaterialID:      materialID,
		PlantID:         plantID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		PostingDate:     postingDate,
		SourceRef:       sourceRef,
	}
}

// GoodsIssueEvent notifies the ledger of an outbound goods movement
type GoodsIssueEvent struct {
	shared.BaseDomainEvent
	MaterialID  uuid.UUID       `json:"material_id"`
	PlantID     uuid.UUID       `json:"plant_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	PostingDate time.Time       `json:"posting_date"`
	SourceRef   string          `json:"source_ref"`
}

// NewGoodsIssueEvent creates a new GoodsIssueEvent
func NewGoodsIssueEvent(materialID, plantID uuid.UUID, quantity decimal.Decimal, postingDate time.Time, sourceRef string) *GoodsIssueEvent {
	return &GoodsIssueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsIssue, "GoodsIssue", materialID),
		MaterialID:      materialID,
		PlantID:         plantID,
		Quantity:        quantity,
		PostingDate:     postingDate,
		SourceRef:       sourceRef,
	}
}

// InvoiceReceivedEvent carries the invoiced purchase price for a received
// quantity. The posting records the deviation against the active standard
// and adjusts stock value by it; quantity on hand is unchanged.
type InvoiceReceivedEvent struct {
	shared.BaseDomainEvent
	MaterialID      uuid.UUID       `json:"material_id"`
	PlantID         uuid.UUID       `json:"plant_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	ActualUnitPrice decimal.Decimal `json:"actual_unit_price"`
	Currency        string          `json:"currency"`
	PostingDate     time.Time       `json:"posting_date"`
	SourceRef       string          `json:"source_ref"`
}

// NewInvoiceReceivedEvent creates a new InvoiceReceivedEvent
func NewInvoiceReceivedEvent(materialID, plantID uuid.UUID, quantity, actualUnitPrice decimal.Decimal, currency string, postingDate time.Time, sourceRef string) *InvoiceReceivedEvent {
	return &InvoiceReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceReceived, "Invoice", materialID),
		MaterialID:      materialID,
		PlantID:         plantID,
		Quantity:        quantity,
		ActualUnitPrice: actualUnitPrice,
		Currency:        currency,
		PostingDate:     postingDate,
		SourceRef:       sourceRef,
	}
}
