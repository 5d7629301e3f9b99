package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// TimelineCache stores computed timelines by query key. Generation changes
// on every invalidation and is read before the repository so that a build
// racing a write is stored under a key no later read will use.
type TimelineCache interface {
	Generation(ctx context.Context) (uint64, error)
	Get(ctx context.Context, key string) (ganttDomain.Timeline, bool, error)
	Set(ctx context.Context, key string, tl ganttDomain.Timeline) error
}

// GetGanttQuery contains the parameters of a timeline view.
type GetGanttQuery struct {
	Mode          string
	Start         time.Time // zero aligns to the reference date
	ReferenceDate time.Time // zero means today
	Filter        domain.Filter
}

// QueryName implements application.Query.
func (GetGanttQuery) QueryName() string { return "layouts.gantt" }

// GetGanttHandler builds timelines, serving repeats from the cache.
type GetGanttHandler struct {
	repo    domain.Repository
	cache   TimelineCache
	policy  ganttDomain.Policy
	logger  *slog.Logger
	metrics observability.Metrics
	now     func() time.Time
}

var _ sharedApplication.QueryHandler[GetGanttQuery, ganttDomain.Timeline] = (*GetGanttHandler)(nil)

// NewGetGanttHandler creates a new GetGanttHandler. cache may be nil.
func NewGetGanttHandler(repo domain.Repository, cache TimelineCache, policy ganttDomain.Policy, logger *slog.Logger, metrics observability.Metrics) *GetGanttHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetGanttHandler{
		repo:    repo,
		cache:   cache,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Handle executes the GetGanttQuery.
func (h *GetGanttHandler) Handle(ctx context.Context, query GetGanttQuery) (ganttDomain.Timeline, error) {
	mode, err := ganttDomain.ParseMode(query.Mode)
	if err != nil {
		return ganttDomain.Timeline{}, fmt.Errorf("%w: %q", err, query.Mode)
	}
	ref := referenceOrNow(query.ReferenceDate, h.now)
	start := DefaultStart(mode, query.Start, ref)
	key := TimelineKey(mode, start, ref, h.policy.Count(mode), query.Filter)

	tc := h.cache
	if tc != nil {
		gen, err := tc.Generation(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "timeline cache generation unavailable", "error", err)
			tc = nil
		}
		key = fmt.Sprintf("g%d|%s", gen, key)
	}

	if tc != nil {
		tl, ok, err := tc.Get(ctx, key)
		if err != nil {
			h.logger.WarnContext(ctx, "timeline cache read failed", "error", err)
		}
		if ok {
			h.metrics.Counter(observability.MetricTimelineCacheHit, 1, observability.T("mode", mode.String()))
			return tl, nil
		}
		h.metrics.Counter(observability.MetricTimelineCacheMiss, 1, observability.T("mode", mode.String()))
	}

	tl, err := observability.TimeOperationResult(ctx, h.logger, h.metrics, "gantt.build", func() (ganttDomain.Timeline, error) {
		tasks, err := loadTasks(ctx, h.repo, query.Filter.ProjectID)
		if err != nil {
			return ganttDomain.Timeline{}, err
		}
		return ganttDomain.BuildTimeline(query.Filter.Apply(tasks, ref), mode, start, ref, h.policy)
	})
	if err != nil {
		return ganttDomain.Timeline{}, err
	}
	h.metrics.Gauge(observability.MetricTimelineBuckets, float64(len(tl.Buckets)), observability.T("mode", mode.String()))

	if tc != nil {
		if err := tc.Set(ctx, key, tl); err != nil {
			h.logger.WarnContext(ctx, "timeline cache write failed", "error", err)
		}
	}
	return tl, nil
}

// DefaultStart returns start when set. Otherwise week timelines begin on the
// Monday of the reference week and other modes on the reference date.
func DefaultStart(mode ganttDomain.Mode, start, ref time.Time) time.Time {
	if !start.IsZero() {
		return domain.DateOf(start)
	}
	if mode == ganttDomain.ModeWeek {
		return domain.ISOWeekOf(ref).Monday()
	}
	return domain.DateOf(ref)
}

// TimelineKey identifies a timeline by everything that affects its content,
// including the bucket count the policy yields for mode.
func TimelineKey(mode ganttDomain.Mode, start, ref time.Time, buckets int, f domain.Filter) string {
	return strings.Join([]string{
		mode.String(),
		strconv.Itoa(buckets),
		start.Format(domain.DateLayout),
		ref.Format(domain.DateLayout),
		f.ProjectID,
		strings.ToLower(f.Owner),
		strings.ToLower(f.Designer),
		f.Status.String(),
		strings.ToLower(strings.TrimSpace(f.Keyword)),
	}, "|")
}
