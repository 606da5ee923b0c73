package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CostingMetrics tracks the engine's operational figures: ledger postings,
// close runs, and variance materialization.
type CostingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	postingTotal      *Counter
	postingDuration   *Histogram
	estimateReleased  *Counter
	varianceTotal     *Counter
	varianceAmountCents *Counter
	closeRunTotal     *Counter
	closeStepDuration *Histogram
	landedCostPosted  *Counter
}

// CostingMetricsConfig holds configuration for costing metrics.
type CostingMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewCostingMetrics creates a new CostingMetrics instance.
func NewCostingMetrics(cfg CostingMetricsConfig) (*CostingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CostingMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	cm.postingTotal, err = NewCounter(
		cfg.Meter,
		"costing_ledger_posting_total",
		"Total number of material ledger postings",
		"{postings}",
	)
	if err != nil {
		return nil, err
	}

	cm.postingDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "costing_ledger_posting_duration_seconds",
		Description: "Duration of material ledger posting operations",
		Unit:        "s",
		Boundaries:  PostingDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cm.estimateReleased, err = NewCounter(
		cfg.Meter,
		"costing_estimate_released_total",
		"Total number of cost estimates released",
		"{estimates}",
	)
	if err != nil {
		return nil, err
	}

	cm.varianceTotal, err = NewCounter(
		cfg.Meter,
		"costing_variance_total",
		"Total number of variance records materialized",
		"{variances}",
	)
	if err != nil {
		return nil, err
	}

	cm.varianceAmountCents, err = NewCounter(
		cfg.Meter,
		"costing_variance_amount_total",
		"Total absolute variance amount in hundredths",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	cm.closeRunTotal, err = NewCounter(
		cfg.Meter,
		"costing_close_run_total",
		"Total number of period close runs by outcome",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	cm.closeStepDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "costing_close_step_duration_seconds",
		Description: "Duration of individual period close steps",
		Unit:        "s",
		Boundaries:  CloseStepDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cm.landedCostPosted, err = NewCounter(
		cfg.Meter,
		"costing_landed_cost_posted_total",
		"Total number of landed cost documents posted",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordPosting records one ledger posting with its processing duration.
func (cm *CostingMetrics) RecordPosting(ctx context.Context, plantID uuid.UUID, movementType string, duration time.Duration) {
	cm.postingTotal.Inc(ctx,
		AttrPlantID.String(plantID.String()),
		AttrMovementType.String(movementType),
	)
	cm.postingDuration.RecordDuration(ctx, duration,
		AttrMovementType.String(movementType),
	)
}

// RecordEstimateReleased records a cost estimate release.
func (cm *CostingMetrics) RecordEstimateReleased(ctx context.Context, plantID uuid.UUID) {
	cm.estimateReleased.Inc(ctx, AttrPlantID.String(plantID.String()))
}

// RecordVariance records one materialized variance with its absolute amount.
// Amount is converted to hundredths so the counter stays integral.
func (cm *CostingMetrics) RecordVariance(ctx context.Context, plantID uuid.UUID, varianceType string, amount decimal.Decimal) {
	cm.varianceTotal.Inc(ctx,
		AttrPlantID.String(plantID.String()),
		AttrVarianceType.String(varianceType),
	)
	cents := amount.Abs().Mul(decimal.NewFromInt(100)).IntPart()
	cm.varianceAmountCents.Add(ctx, cents,
		AttrPlantID.String(plantID.String()),
		AttrVarianceType.String(varianceType),
	)
}

// RecordCloseRun records a finished close run by outcome (completed/failed).
func (cm *CostingMetrics) RecordCloseRun(ctx context.Context, plantID uuid.UUID, outcome string) {
	cm.closeRunTotal.Inc(ctx,
		AttrPlantID.String(plantID.String()),
		AttrCloseOutcome.String(outcome),
	)
}

// RecordCloseStep records one close step's duration.
func (cm *CostingMetrics) RecordCloseStep(ctx context.Context, step string, duration time.Duration) {
	cm.closeStepDuration.RecordDuration(ctx, duration, AttrCloseStep.String(step))
}

// RecordLandedCostPosted records a posted landed cost document.
func (cm *CostingMetrics) RecordLandedCostPosted(ctx context.Context, plantID uuid.UUID) {
	cm.landedCostPosted.Inc(ctx, AttrPlantID.String(plantID.String()))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCostingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
