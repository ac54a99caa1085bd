package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded for requests that never reach the validation service
const (
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
	OutcomeUnavailable = "unavailable"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querycheck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querycheck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route"},
	)

	httpValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querycheck_http_validation_outcomes_total",
			Help: "Validation requests by outcome: OK, WARNING, ERROR, rejected, rate_limited or unavailable",
		},
		[]string{"route", "outcome"},
	)
)

type outcomeKey struct{}

// SetOutcome labels the current request for the validation outcome metric.
// It does nothing outside Metrics.
func SetOutcome(ctx context.Context, outcome string) {
	if slot, ok := ctx.Value(outcomeKey{}).(*string); ok {
		*slot = outcome
	}
}

// Metrics counts requests per chi route and, for requests that set an
// outcome, validation results
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var outcome string
		r = r.WithContext(context.WithValue(r.Context(), outcomeKey{}, &outcome))

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		if outcome != "" {
			httpValidationOutcomes.WithLabelValues(route, outcome).Inc()
		}
	})
}

// routePattern keeps label cardinality bounded: unmatched paths share one label
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
