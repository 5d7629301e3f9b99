package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

func TestSetLayoutClosedHandler_Handle(t *testing.T) {
	key := domain.Key{ProjectID: "P1", IPName: "ADC"}

	tests := []struct {
		name         string
		stored       domain.Task
		closed       bool
		wantRouting  string
		wantReopened bool
		wantAction   string
	}{
		{
			name:        "close open task",
			stored:      domain.Task{ProjectID: "P1", IPName: "ADC"},
			closed:      true,
			wantRouting: domain.RoutingKeyLayoutClosed,
			wantAction:  "closed",
		},
		{
			name:         "reopen closed task",
			stored:       domain.Task{ProjectID: "P1", IPName: "ADC", LayoutClosed: true},
			closed:       false,
			wantRouting:  domain.RoutingKeyLayoutReopened,
			wantReopened: true,
			wantAction:   "reopened",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			metrics := observability.NewInMemoryMetrics()
			h := NewSetLayoutClosedHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache, Metrics: metrics})
			h.now = fixedNow

			f.expectCommit()
			f.repo.On("FindByKey", f.txCtx, key).Return(tt.stored, nil)
			f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
			f.outbox.On("SaveBatch", f.txCtx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
				return len(msgs) == 1 && msgs[0].RoutingKey == tt.wantRouting
			})).Return(nil)
			f.cache.On("Invalidate", f.ctx).Return(nil)

			task, err := h.Handle(f.ctx, SetLayoutClosedCommand{ProjectID: "P1", IPName: "ADC", Closed: tt.closed})

			require.NoError(t, err)
			assert.Equal(t, tt.closed, task.LayoutClosed)
			assert.Equal(t, tt.wantReopened, task.Reopened)
			assert.Equal(t, fixedNow(), task.UpdatedAt)
			assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricLayoutsClosed, observability.T("action", tt.wantAction)))
			f.assertExpectations(t)
		})
	}

	t.Run("unchanged state writes nothing", func(t *testing.T) {
		f := newFixture()
		h := NewSetLayoutClosedHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache})

		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, key).Return(domain.Task{ProjectID: "P1", IPName: "ADC", LayoutClosed: true}, nil)

		task, err := h.Handle(f.ctx, SetLayoutClosedCommand{ProjectID: "P1", IPName: "ADC", Closed: true})

		require.NoError(t, err)
		assert.True(t, task.LayoutClosed)
		f.assertExpectations(t)
	})

	t.Run("missing task", func(t *testing.T) {
		f := newFixture()
		h := NewSetLayoutClosedHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache})

		f.expectRollback()
		f.repo.On("FindByKey", f.txCtx, key).Return(domain.Task{}, domain.ErrLayoutNotFound)

		_, err := h.Handle(f.ctx, SetLayoutClosedCommand{ProjectID: "P1", IPName: "ADC", Closed: true})

		assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
		f.assertExpectations(t)
	})

	t.Run("invalid key", func(t *testing.T) {
		f := newFixture()
		h := NewSetLayoutClosedHandler(f.repo, f.outbox, f.uow, Options{})

		_, err := h.Handle(f.ctx, SetLayoutClosedCommand{ProjectID: "P1"})

		assert.ErrorIs(t, err, domain.ErrEmptyIPName)
	})
}
