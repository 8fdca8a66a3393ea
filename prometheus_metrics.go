package labelworker

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "label_in_flight_requests",
		Help: "Number of currently pending and processed requests.",
	})
	counter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "label_api_requests_total",
			Help: "A counter for requests to the wrapped handler.",
		},
		[]string{"code", "method"},
	)

	// duration is partitioned by the HTTP method and handler. It uses custom
	// buckets based on the expected request duration.
	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "label_request_duration_seconds",
			Help:    "A histogram of latencies for requests.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"handler", "method"},
	)

	// requestSize has no labels, making it a zero-dimensional ObserverVec.
	requestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "label_request_size_bytes",
			Help:    "A histogram of request sizes.",
			Buckets: []float64{100, 1500, 100000, 1000000, 5000000, 10485760},
		},
		[]string{},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "label_stage_duration_seconds",
			Help:    "A histogram of per-stage pipeline latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"stage"},
	)

	binarizerFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "label_binarizer_fallbacks_total",
		Help: "How often the binarizer fell back to adaptive tiling.",
	})

	batchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "label_batch_items_total",
			Help: "Batch items by final status.",
		},
		[]string{"status"},
	)

	registerMetricsOnce sync.Once
)

// InstrumentHTTPHandler wraps a handler with the prometheus middleware
// chain. The handler label tells the endpoints apart, registration runs
// once no matter how many handlers get wrapped.
func InstrumentHTTPHandler(next http.Handler, handlerName string) http.Handler {
	registerMetricsOnce.Do(func() {
		prometheus.MustRegister(inFlightGauge, counter, duration, requestSize,
			stageDuration, binarizerFallbacks, batchItems)
	})

	chain := promhttp.InstrumentHandlerInFlight(inFlightGauge,
		promhttp.InstrumentHandlerDuration(duration.MustCurryWith(prometheus.Labels{"handler": handlerName}),
			promhttp.InstrumentHandlerCounter(counter,
				promhttp.InstrumentHandlerRequestSize(requestSize, next),
			),
		),
	)
	return chain
}
