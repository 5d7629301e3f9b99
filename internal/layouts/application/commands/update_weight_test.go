package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

func TestUpdateWeightHandler_Handle(t *testing.T) {
	key := domain.Key{ProjectID: "P1", IPName: "ADC"}
	existing := domain.Task{
		ProjectID:     "P1",
		IPName:        "ADC",
		LayoutOwner:   "dora",
		WeeklyWeights: []domain.WeeklyWeight{{Week: "2025-W24", Value: 0.25, Version: 1}},
	}

	t.Run("appends the next version", func(t *testing.T) {
		f := newFixture()
		metrics := observability.NewInMemoryMetrics()
		h := NewUpdateWeightHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache, Metrics: metrics})
		h.now = fixedNow

		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, key).Return(existing, nil)
		f.repo.On("AppendWeight", f.txCtx, key, mock.MatchedBy(func(w domain.WeeklyWeight) bool {
			return w.Version == 2 && w.Value == 0.75 && w.Week == "2025-W24"
		})).Return(nil)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
		f.outbox.On("SaveBatch", f.txCtx, mock.Anything).Return(nil)
		f.cache.On("Invalidate", f.ctx).Return(nil)

		res, err := h.Handle(f.ctx, UpdateWeightCommand{
			ProjectID: "P1", IPName: "ADC", Week: "2025-W24", Value: 0.75, UpdatedBy: "dora",
		})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Weight.Version)
		assert.Equal(t, "dora", res.Weight.UpdatedBy)
		assert.Equal(t, domain.RoleLayoutOwner, res.Weight.Role)
		require.Len(t, res.History, 2)
		assert.Equal(t, 0.25, res.History[0].Value)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricWeightsUpdated))
		f.assertExpectations(t)
	})

	tests := []struct {
		name    string
		cmd     UpdateWeightCommand
		wantErr error
	}{
		{"empty project", UpdateWeightCommand{IPName: "ADC", Week: "2025-W24", Value: 0.5}, domain.ErrEmptyProjectID},
		{"empty ip", UpdateWeightCommand{ProjectID: "P1", Week: "2025-W24", Value: 0.5}, domain.ErrEmptyIPName},
		{"bad week", UpdateWeightCommand{ProjectID: "P1", IPName: "ADC", Week: "2025-W60", Value: 0.5}, domain.ErrInvalidWeek},
		{"value too large", UpdateWeightCommand{ProjectID: "P1", IPName: "ADC", Week: "2025-W24", Value: 1.6}, domain.ErrWeightOutOfRange},
		{"negative value", UpdateWeightCommand{ProjectID: "P1", IPName: "ADC", Week: "2025-W24", Value: -0.1}, domain.ErrWeightOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			h := NewUpdateWeightHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache})

			_, err := h.Handle(f.ctx, tt.cmd)

			assert.ErrorIs(t, err, tt.wantErr)
			f.assertExpectations(t)
		})
	}

	t.Run("unknown task", func(t *testing.T) {
		f := newFixture()
		h := NewUpdateWeightHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache})

		f.expectRollback()
		f.repo.On("FindByKey", f.txCtx, key).Return(domain.Task{}, domain.ErrLayoutNotFound)

		_, err := h.Handle(f.ctx, UpdateWeightCommand{ProjectID: "P1", IPName: "ADC", Week: "2025-W24", Value: 0.5})

		assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
		f.assertExpectations(t)
	})

	t.Run("append failure rolls back", func(t *testing.T) {
		f := newFixture()
		h := NewUpdateWeightHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache})
		appendErr := errors.New("constraint failed")

		f.expectRollback()
		f.repo.On("FindByKey", f.txCtx, key).Return(existing, nil)
		f.repo.On("AppendWeight", f.txCtx, key, mock.Anything).Return(appendErr)

		_, err := h.Handle(f.ctx, UpdateWeightCommand{ProjectID: "P1", IPName: "ADC", Week: "2025-W24", Value: 0.5})

		assert.ErrorIs(t, err, appendErr)
		f.assertExpectations(t)
	})
}
