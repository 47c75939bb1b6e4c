// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repo_insights_analyses_total",
			Help: "Structured analyses by provider and outcome (ok or degraded)",
		},
		[]string{"provider", "outcome"},
	)

	GithubErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repo_insights_github_errors_total",
			Help: "Failed repository collections by error kind",
		},
		[]string{"kind"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repo_insights_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	CooldownRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repo_insights_cooldown_rejections_total",
			Help: "Submissions rejected because the same repository was requested within the cooldown window",
		},
	)

	HistorySaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repo_insights_history_save_failures_total",
			Help: "Insights that could not be written to history after the response was prepared",
		},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repo_insights_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "repo_insights_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)
)

// ObserveAnalysis records one structured-analysis outcome.
func ObserveAnalysis(provider string, degraded bool) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	AnalysesTotal.WithLabelValues(provider, outcome).Inc()
}

// Middleware records request counts and durations labelled by the matched chi route pattern,
// which keeps path parameters out of the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestCount.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
