// metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verif_rotation"

// Row outcome label values.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeDegraded   = "degraded"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// Imports counts completed trip imports.
	Imports = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "imports_total",
		Help: "Trip imports processed.",
	})
	// ImportRows counts rows by outcome: resolved, unresolved or degraded.
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "import_rows_total",
		Help: "Trip rows processed, by outcome.",
	}, []string{"outcome"})

	// RoutingRequests counts routing engine calls by result (ok or failed).
	RoutingRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "routing_requests_total",
		Help: "Routing engine calls, by result.",
	}, []string{"result"})
	// RoutingDuration records routing engine call latency in seconds.
	RoutingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "routing_request_duration_seconds",
		Help:    "Routing engine call duration in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// ReferencePoints is the size of the loaded reference index.
	ReferencePoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "reference_points",
		Help: "Points in the reference index.",
	})

	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route", "code"})
)

var regOnce sync.Once

// RegisterDefault registers the service collectors plus the Go and process
// collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Imports, ImportRows, RoutingRequests, RoutingDuration, ReferencePoints, HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRouting records one routing engine call.
func ObserveRouting(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	RoutingRequests.WithLabelValues(result).Inc()
	RoutingDuration.Observe(time.Since(start).Seconds())
}

// Middleware counts requests under their chi route pattern, so path
// parameters do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
