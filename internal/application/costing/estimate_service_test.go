package costing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEstimateRepo struct {
	estimates map[uuid.UUID]*costing.CostEstimate
}

func newFakeEstimateRepo() *fakeEstimateRepo {
	return &fakeEstimateRepo{estimates: make(map[uuid.UUID]*costing.CostEstimate)}
}

func (r *fakeEstimateRepo) FindByID(_ context.Context, id uuid.UUID) (*costing.CostEstimate, error) {
	if e, ok := r.estimates[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEstimateRepo) FindActiveStandard(_ context.Context, materialID, plantID uuid.UUID) (*costing.CostEstimate, error) {
	for _, e := range r.estimates {
		if e.MaterialID == materialID && e.PlantID == plantID && e.IsStandard() {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEstimateRepo) FindByMaterial(_ context.Context, materialID, plantID uuid.UUID, _ shared.Filter) ([]costing.CostEstimate, error) {
	var out []costing.CostEstimate
	for _, e := range r.estimates {
		if e.MaterialID == materialID && e.PlantID == plantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEstimateRepo) FindByStatus(_ context.Context, status costing.EstimateStatus, _ shared.Filter) ([]costing.CostEstimate, error) {
	var out []costing.CostEstimate
	for _, e := range r.estimates {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEstimateRepo) Save(_ context.Context, estimate *costing.CostEstimate) error {
	r.estimates[estimate.ID] = estimate
	return nil
}

func (r *fakeEstimateRepo) SaveWithLock(_ context.Context, estimate *costing.CostEstimate) error {
	if _, ok := r.estimates[estimate.ID]; !ok {
		return shared.ErrNotFound
	}
	r.estimates[estimate.ID] = estimate
	return nil
}

func (r *fakeEstimateRepo) CountByStatus(_ context.Context, status costing.EstimateStatus) (int64, error) {
	var count int64
	for _, e := range r.estimates {
		if e.Status == status {
			count++
		}
	}
	return count, nil
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) typesPublished() []string {
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func seedReleasedEstimate(t *testing.T, repo *fakeEstimateRepo, materialID, plantID uuid.UUID, version int, unitCost int64) *costing.CostEstimate {
	t.Helper()

	estimate, err := costing.NewCostEstimate(materialID, plantID, version, decimal.NewFromInt(1), time.Now())
	require.NoError(t, err)
	require.NoError(t, estimate.AddComponent(costing.ComponentMaterial, decimal.Zero, decimal.NewFromInt(unitCost)))
	require.NoError(t, estimate.Release())
	estimate.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), estimate))
	return estimate
}

func TestEstimateService_MarkStandard(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	t.Run("promotes a released estimate", func(t *testing.T) {
		repo := newFakeEstimateRepo()
		publisher := &capturingPublisher{}
		service := NewEstimateService(repo, nil)
		service.SetEventPublisher(publisher)

		estimate := seedReleasedEstimate(t, repo, materialID, plantID, 1, 100)

		response, err := service.MarkStandard(ctx, estimate.ID)
		require.NoError(t, err)
		assert.Equal(t, costing.EstimateStatusStandard, response.Status)
		assert.Equal(t, []string{costing.EventTypeEstimateMarkedStandard}, publisher.typesPublished())
	})

	t.Run("archives the superseded standard", func(t *testing.T) {
		repo := newFakeEstimateRepo()
		publisher := &capturingPublisher{}
		service := NewEstimateService(repo, nil)
		service.SetEventPublisher(publisher)

		old := seedReleasedEstimate(t, repo, materialID, plantID, 1, 100)
		_, err := service.MarkStandard(ctx, old.ID)
		require.NoError(t, err)
		publisher.events = nil

		successor := seedReleasedEstimate(t, repo, materialID, plantID, 2, 120)
		_, err = service.MarkStandard(ctx, successor.ID)
		require.NoError(t, err)

		assert.Equal(t, costing.EstimateStatusArchived, old.Status)
		assert.Equal(t, costing.EstimateStatusStandard, successor.Status)
		assert.Equal(t, []string{
			costing.EventTypeEstimateArchived,
			costing.EventTypeEstimateMarkedStandard,
		}, publisher.typesPublished())

		// Only one standard remains active
		active, err := repo.FindActiveStandard(ctx, materialID, plantID)
		require.NoError(t, err)
		assert.Equal(t, successor.ID, active.ID)
	})

	t.Run("marking the active standard again is rejected", func(t *testing.T) {
		repo := newFakeEstimateRepo()
		service := NewEstimateService(repo, nil)

		estimate := seedReleasedEstimate(t, repo, materialID, plantID, 1, 100)
		_, err := service.MarkStandard(ctx, estimate.ID)
		require.NoError(t, err)

		_, err = service.MarkStandard(ctx, estimate.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("draft estimates cannot become standard", func(t *testing.T) {
		repo := newFakeEstimateRepo()
		service := NewEstimateService(repo, nil)

		draft, err := costing.NewCostEstimate(materialID, plantID, 1, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, draft))

		_, err = service.MarkStandard(ctx, draft.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestStandardPriceProvider(t *testing.T) {
	ctx := context.Background()
	materialID := uuid.New()
	plantID := uuid.New()

	repo := newFakeEstimateRepo()
	provider := NewStandardPriceProvider(repo)

	t.Run("no standard yields not found without error", func(t *testing.T) {
		_, found, err := provider.StandardUnitCost(ctx, materialID, plantID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("active standard yields its unit cost", func(t *testing.T) {
		service := NewEstimateService(repo, nil)
		estimate := seedReleasedEstimate(t, repo, materialID, plantID, 1, 250)
		_, err := service.MarkStandard(ctx, estimate.ID)
		require.NoError(t, err)

		price, found, err := provider.StandardUnitCost(ctx, materialID, plantID)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, price.Equal(decimal.NewFromInt(250)))
	})
}
