package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

func newSubmitHandler(f *fixture, metrics observability.Metrics) *SubmitLayoutsHandler {
	h := NewSubmitLayoutsHandler(f.repo, f.outbox, f.uow, Options{Cache: f.cache, Metrics: metrics})
	h.now = fixedNow
	return h
}

func TestSubmitLayoutsHandler_Handle(t *testing.T) {
	t.Run("creates new tasks and records one event", func(t *testing.T) {
		f := newFixture()
		metrics := observability.NewInMemoryMetrics()
		h := newSubmitHandler(f, metrics)

		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, mock.AnythingOfType("domain.Key")).Return(domain.Task{}, domain.ErrLayoutNotFound)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
		f.outbox.On("SaveBatch", f.txCtx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return len(msgs) == 1 && msgs[0].RoutingKey == domain.RoutingKeyLayoutsSubmitted
		})).Return(nil)
		f.cache.On("Invalidate", f.ctx).Return(nil)

		res, err := h.Handle(f.ctx, SubmitLayoutsCommand{
			ProjectID:   "P1",
			SubmittedBy: "alice",
			Rows: []LayoutRow{
				{IPName: "ADC", Designer: "alice", SchematicFreeze: "2025-06-02", LVSClean: "2025-06-13"},
				{IPName: "PLL", Designer: "bob"},
			},
		})

		require.NoError(t, err)
		require.Len(t, res.Saved, 2)
		assert.Empty(t, res.Errors)
		assert.Equal(t, 10, res.Saved[0].PlannedMandays)
		assert.Equal(t, "P1", res.Saved[1].ProjectID)
		assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricLayoutsSubmitted))
		f.assertExpectations(t)
	})

	t.Run("keeps weights and flags of an existing task", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)

		existing := domain.Task{
			ProjectID:      "P1",
			IPName:         "ADC",
			Designer:       "alice",
			PlannedMandays: 7,
			LayoutClosed:   true,
			WeeklyWeights:  []domain.WeeklyWeight{{Week: "2025-W24", Value: 0.5, Version: 1}},
			Version:        3,
		}
		closed := false

		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, domain.Key{ProjectID: "P1", IPName: "ADC"}).Return(existing, nil)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
		f.outbox.On("SaveBatch", f.txCtx, mock.Anything).Return(nil)
		f.cache.On("Invalidate", f.ctx).Return(nil)

		res, err := h.Handle(f.ctx, SubmitLayoutsCommand{
			ProjectID: "P1",
			Rows:      []LayoutRow{{IPName: "ADC", Designer: "carol", ReworkNote: " fix DRC ", LayoutClosed: &closed}},
		})

		require.NoError(t, err)
		require.Len(t, res.Saved, 1)
		saved := res.Saved[0]
		assert.Equal(t, "carol", saved.Designer)
		assert.Equal(t, "fix DRC", saved.ReworkNote)
		assert.Equal(t, 7, saved.PlannedMandays)
		assert.False(t, saved.LayoutClosed)
		assert.True(t, saved.Reopened)
		assert.Len(t, saved.WeeklyWeights, 1)
		f.assertExpectations(t)
	})

	t.Run("reports invalid rows and saves the rest", func(t *testing.T) {
		f := newFixture()
		metrics := observability.NewInMemoryMetrics()
		h := newSubmitHandler(f, metrics)

		negative := -1
		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, mock.AnythingOfType("domain.Key")).Return(domain.Task{}, domain.ErrLayoutNotFound)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil).Once()
		f.outbox.On("SaveBatch", f.txCtx, mock.Anything).Return(nil)
		f.cache.On("Invalidate", f.ctx).Return(nil)

		res, err := h.Handle(f.ctx, SubmitLayoutsCommand{
			ProjectID: "P1",
			Rows: []LayoutRow{
				{IPName: "ADC"},
				{IPName: "  "},
				{IPName: "PLL", SchematicFreeze: "2025-13-40"},
				{IPName: "ADC"},
				{IPName: "LDO", PlannedMandays: &negative},
			},
		})

		require.NoError(t, err)
		require.Len(t, res.Saved, 1)
		require.Len(t, res.Errors, 4)
		assert.Equal(t, []int{1, 2, 3, 4}, []int{res.Errors[0].Index, res.Errors[1].Index, res.Errors[2].Index, res.Errors[3].Index})
		assert.Equal(t, "PLL", res.Errors[1].IPName)
		assert.Contains(t, res.Errors[2].Message, "duplicate")
		assert.Equal(t, int64(4), metrics.GetCounter(observability.MetricLayoutsRejected))
		f.assertExpectations(t)
	})

	t.Run("no valid rows skips event and invalidation", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)

		f.expectCommit()

		res, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: "P1", Rows: []LayoutRow{{IPName: ""}}})

		require.NoError(t, err)
		assert.Empty(t, res.Saved)
		assert.Len(t, res.Errors, 1)
		f.assertExpectations(t)
	})

	t.Run("fails with empty project id", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)

		_, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: " "})

		assert.ErrorIs(t, err, domain.ErrEmptyProjectID)
		f.assertExpectations(t)
	})

	t.Run("rejects project id shadowed by a route", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)

		_, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: "gantt", Rows: []LayoutRow{{IPName: "ADC"}}})

		assert.ErrorIs(t, err, domain.ErrReservedProjectID)
		f.assertExpectations(t)
	})

	t.Run("rolls back when save fails", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)
		saveErr := errors.New("disk full")

		f.expectRollback()
		f.repo.On("FindByKey", f.txCtx, mock.AnythingOfType("domain.Key")).Return(domain.Task{}, domain.ErrLayoutNotFound)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(saveErr)

		_, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: "P1", Rows: []LayoutRow{{IPName: "ADC"}}})

		assert.ErrorIs(t, err, saveErr)
		f.assertExpectations(t)
	})

	t.Run("rolls back when outbox fails", func(t *testing.T) {
		f := newFixture()
		h := newSubmitHandler(f, nil)
		outboxErr := errors.New("outbox unavailable")

		f.expectRollback()
		f.repo.On("FindByKey", f.txCtx, mock.AnythingOfType("domain.Key")).Return(domain.Task{}, domain.ErrLayoutNotFound)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
		f.outbox.On("SaveBatch", f.txCtx, mock.Anything).Return(outboxErr)

		_, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: "P1", Rows: []LayoutRow{{IPName: "ADC"}}})

		assert.ErrorIs(t, err, outboxErr)
		f.assertExpectations(t)
	})

	t.Run("cache failure does not fail the command", func(t *testing.T) {
		f := newFixture()
		metrics := observability.NewInMemoryMetrics()
		h := newSubmitHandler(f, metrics)

		f.expectCommit()
		f.repo.On("FindByKey", f.txCtx, mock.AnythingOfType("domain.Key")).Return(domain.Task{}, domain.ErrLayoutNotFound)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*domain.Task")).Return(nil)
		f.outbox.On("SaveBatch", f.txCtx, mock.Anything).Return(nil)
		f.cache.On("Invalidate", f.ctx).Return(errors.New("redis down"))

		_, err := h.Handle(f.ctx, SubmitLayoutsCommand{ProjectID: "P1", Rows: []LayoutRow{{IPName: "ADC"}}})

		require.NoError(t, err)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheErrors, observability.T("op", "invalidate")))
		f.assertExpectations(t)
	})
}

func TestRecordEvents_AppliesRequestMetadata(t *testing.T) {
	f := newFixture()
	ctx := observability.WithActor(observability.WithCorrelationID(f.ctx, "req-9"), "olivia")

	var captured []*outbox.Message
	f.outbox.On("SaveBatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).([]*outbox.Message)
	}).Return(nil)

	event := domain.NewLayoutClosedChanged(domain.Key{ProjectID: "P1", IPName: "ADC"}, true)
	require.NoError(t, recordEvents(ctx, f.outbox, &event))

	require.Len(t, captured, 1)
	assert.Equal(t, "req-9", captured[0].Metadata.CorrelationID)
	assert.Equal(t, "olivia", captured[0].Metadata.Actor)
	assert.Equal(t, domain.RoutingKeyLayoutClosed, captured[0].RoutingKey)
}
