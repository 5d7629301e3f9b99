package observability

import (
	"context"
	"log/slog"
	"time"
)

// TimeOperation runs fn and records its duration and outcome under the
// operation tag. A nil logger or metrics skips that sink.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	recordOperation(ctx, logger, metrics, operation, time.Since(start), err)
	return err
}

// TimeOperationResult is TimeOperation for functions that return a value.
func TimeOperationResult[R any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (R, error)) (R, error) {
	var result R
	err := TimeOperation(ctx, logger, metrics, operation, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

func recordOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, elapsed time.Duration, err error) {
	if metrics != nil {
		tag := T("operation", operation)
		metrics.Counter(MetricOperationTotal, 1, tag)
		metrics.Timing(MetricOperationDuration, elapsed, tag)
		if err != nil {
			metrics.Counter(MetricOperationErrors, 1, tag)
		}
	}
	if logger == nil {
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "operation failed",
			"operation", operation,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}
	logger.DebugContext(ctx, "operation completed", "operation", operation, "duration_ms", elapsed.Milliseconds())
}
