package telemetry

import (
	"context"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/landedcost"
	"github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/periodclose"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/variance"
)

// MetricsHandler feeds CostingMetrics from domain events published on the
// event bus, keeping the application services free of instrumentation.
type MetricsHandler struct {
	metrics *CostingMetrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *CostingMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeMovementPosted,
		costing.EventTypeEstimateReleased,
		variance.EventTypeVarianceRecorded,
		periodclose.EventTypeCloseCompleted,
		periodclose.EventTypeCloseFailed,
		landedcost.EventTypeDocumentPosted,
	}
}

// Handle records the metric matching the event. Posting duration is
// measured from the domain event timestamp to observation.
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ledger.MovementPostedEvent:
		h.metrics.RecordPosting(ctx, e.PlantID, string(e.MovementType), time.Since(e.OccurredAt()))
	case *costing.EstimateReleasedEvent:
		h.metrics.RecordEstimateReleased(ctx, e.PlantID)
	case *variance.VarianceRecordedEvent:
		h.metrics.RecordVariance(ctx, e.PlantID, string(e.Type), e.Amount)
	case *periodclose.CloseCompletedEvent:
		h.metrics.RecordCloseRun(ctx, e.PlantID, "completed")
	case *periodclose.CloseFailedEvent:
		h.metrics.RecordCloseRun(ctx, e.PlantID, "failed")
	case *landedcost.DocumentPostedEvent:
		h.metrics.RecordLandedCostPosted(ctx, e.PlantID)
	}
	return nil
}

// Ensure MetricsHandler implements EventHandler
var _ shared.EventHandler = (*MetricsHandler)(nil)
