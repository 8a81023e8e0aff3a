package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	interactionsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_interactions_logged_total",
			Help: "Total number of interactions recorded",
		},
		[]string{"mode"},
	)

	summariesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_summaries_generated_total",
			Help: "Total number of insight bundles generated",
		},
		[]string{"real_ai"},
	)
)

// RecordInteractionLogged counts one persisted interaction by submission mode.
func RecordInteractionLogged(mode string) {
	if mode == "" {
		mode = "form"
	}
	interactionsLogged.WithLabelValues(mode).Inc()
}

// RecordSummaryGenerated counts one insight bundle by generator variant.
func RecordSummaryGenerated(isRealAI bool) {
	summariesGenerated.WithLabelValues(strconv.FormatBool(isRealAI)).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per method and path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
