package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// Request headers carrying tracing and identity.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderActor         = "X-Actor"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMiddleware stamps request and correlation IDs on the context,
// echoes them in response headers, and logs and times each request.
func requestMiddleware(next http.Handler, logger *slog.Logger, metrics observability.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := observability.WithRequestID(r.Context(), r.Header.Get(HeaderRequestID))
		ctx = observability.WithCorrelationID(ctx, r.Header.Get(HeaderCorrelationID))
		if actor := r.Header.Get(HeaderActor); actor != "" {
			ctx = observability.WithActor(ctx, actor)
		}
		r = r.WithContext(ctx)

		w.Header().Set(HeaderRequestID, observability.RequestIDFromContext(ctx))
		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		tags := []observability.Tag{
			observability.T("route", route),
			observability.T("status", strconv.Itoa(rec.status)),
		}
		metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
		metrics.Timing(observability.MetricHTTPRequestDuration, elapsed, tags...)

		logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			observability.StatusKey, rec.status,
			observability.DurationKey, elapsed.Milliseconds(),
		)
	})
}
