package periodclose

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
)

func newRun(t *testing.T) *PeriodCloseRun {
	t.Helper()
	period, err := valueobject.NewFiscalPeriod(2026, 8)
	require.NoError(t, err)
	run, err := NewPeriodCloseRun(uuid.New(), period)
	require.NoError(t, err)
	return run
}

func TestNewPeriodCloseRun(t *testing.T) {
	t.Run("starts running with no steps done", func(t *testing.T) {
		run := newRun(t)

		assert.Equal(t, RunStatusRunning, run.Status)
		next, ok := run.NextStep()
		require.True(t, ok)
		assert.Equal(t, StepActualCost, next)

		events := run.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCloseStarted, events[0].EventType())
	})

	t.Run("rejects empty period", func(t *testing.T) {
		_, err := NewPeriodCloseRun(uuid.New(), valueobject.FiscalPeriod{})
		assert.Error(t, err)
	})
}

func TestPeriodCloseRun_CompleteStep(t *testing.T) {
	t.Run("steps complete in order and finish the run", func(t *testing.T) {
		run := newRun(t)

		for _, step := range OrderedSteps() {
			require.NoError(t, run.CompleteStep(step))
		}

		assert.Equal(t, RunStatusCompleted, run.Status)
		require.NotNil(t, run.CompletedAt)
		_, remaining := run.NextStep()
		assert.False(t, remaining)
	})

	t.Run("rejects out-of-order step", func(t *testing.T) {
		run := newRun(t)
		assert.Error(t, run.CompleteStep(StepVariances))
	})

	t.Run("rejects repeated step", func(t *testing.T) {
		run := newRun(t)
		require.NoError(t, run.CompleteStep(StepActualCost))
		assert.Error(t, run.CompleteStep(StepActualCost))
	})

	t.Run("completed run rejects further steps", func(t *testing.T) {
		run := newRun(t)
		for _, step := range OrderedSteps() {
			require.NoError(t, run.CompleteStep(step))
		}
		assert.ErrorIs(t, run.CompleteStep(StepSettlement), shared.ErrInvalidState)
	})
}

func TestPeriodCloseRun_FailAndResume(t *testing.T) {
	t.Run("failure keeps committed steps and resumes at the failed one", func(t *testing.T) {
		run := newRun(t)
		require.NoError(t, run.CompleteStep(StepActualCost))
		require.NoError(t, run.CompleteStep(StepVariances))

		require.NoError(t, run.Fail(StepWIP, assert.AnError))
		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Equal(t, "WIP", run.FailedStep)
		assert.NotEmpty(t, run.ErrorMessage)
		assert.True(t, run.ActualCostCalculated)
		assert.True(t, run.VariancesCalculated)

		require.NoError(t, run.Resume())
		assert.Equal(t, RunStatusRunning, run.Status)
		assert.Empty(t, run.FailedStep)

		next, ok := run.NextStep()
		require.True(t, ok)
		assert.Equal(t, StepWIP, next)
	})

	t.Run("resume requires failed status", func(t *testing.T) {
		run := newRun(t)
		assert.ErrorIs(t, run.Resume(), shared.ErrInvalidState)
	})

	t.Run("failed run cannot fail again", func(t *testing.T) {
		run := newRun(t)
		require.NoError(t, run.Fail(StepActualCost, assert.AnError))
		assert.ErrorIs(t, run.Fail(StepActualCost, assert.AnError), shared.ErrInvalidState)
	})
}

func TestPeriodCloseRun_RecordResult(t *testing.T) {
	run := newRun(t)
	run.RecordResult(42, decimal.NewFromFloat(1234.567))

	assert.Equal(t, 42, run.MaterialsProcessed)
	assert.Equal(t, "1234.57", run.TotalVarianceAmount.String())
}
