package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
)

func sampleTimeline() ganttDomain.Timeline {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return ganttDomain.Timeline{
		Mode:          ganttDomain.ModeWeek,
		Start:         start,
		ReferenceDate: start,
		Buckets: []ganttDomain.Bucket{
			{Mode: ganttDomain.ModeWeek, Label: "W23", Date: start, End: start.AddDate(0, 0, 6), ISOYear: 2025, ISOWeek: 23},
		},
		Totals: []ganttDomain.BucketWorkload{{DesignerCount: 2, LayoutOwnerCount: 1, LayoutOwnerTotalWeight: 50}},
		Rows: []ganttDomain.Row{
			{ProjectID: "P1", IPName: "ADC", Cells: []ganttDomain.Cell{{DesignerActive: true, LayoutOwnerRatio: 1, LayoutOwnerWeight: 50}}},
		},
	}
}

func TestMemoryTimelineCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTimelineCache(time.Minute)

	_, ok, err := c.Get(ctx, "week|2025-06-02")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleTimeline()
	require.NoError(t, c.Set(ctx, "week|2025-06-02", want))

	got, ok, err := c.Get(ctx, "week|2025-06-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Mode, got.Mode)
	assert.True(t, want.Start.Equal(got.Start))
	assert.Equal(t, want.Totals, got.Totals)
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, "W23", got.Buckets[0].Label)
}

func TestMemoryTimelineCache_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTimelineCache(0)

	tl := sampleTimeline()
	require.NoError(t, c.Set(ctx, "k", tl))
	tl.Rows[0].IPName = "mutated"

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ADC", got.Rows[0].IPName)
}

func TestMemoryTimelineCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	c := NewMemoryTimelineCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", sampleTimeline()))

	now = now.Add(4 * time.Minute)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemoryTimelineCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTimelineCache(time.Minute)
	require.NoError(t, c.Set(ctx, "a", sampleTimeline()))
	require.NoError(t, c.Set(ctx, "b", sampleTimeline()))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Invalidate(ctx))
	assert.Zero(t, c.Len())
}

func TestMemoryTimelineCache_Generation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTimelineCache(time.Minute)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Invalidate(ctx))

	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)
}
