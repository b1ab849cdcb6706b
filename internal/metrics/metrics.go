// Package metrics exposes the prometheus instrumentation shared by the HTTP
// surface and the processing pipeline. Everything registers on a private
// registry so tests can build as many instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	imagesProcessed   *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	activeInferences  prometheus.Gauge
	batchItems        *prometheus.CounterVec
	cleanupRemoved    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bluswipe_http_requests_total",
			Help: "Total HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bluswipe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		imagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bluswipe_images_processed_total",
			Help: "Total background removals by model and final status.",
		}, []string{"model", "status"}),
		inferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bluswipe_inference_duration_seconds",
			Help:    "Segmentation time per image.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		activeInferences: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bluswipe_active_inferences",
			Help: "Background removals currently in flight.",
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bluswipe_batch_items_total",
			Help: "Total batch items by final status.",
		}, []string{"status"}),
		cleanupRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bluswipe_cleanup_files_removed_total",
			Help: "Files deleted by the retention sweep.",
		}),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.imagesProcessed,
		m.inferenceDuration,
		m.activeInferences,
		m.batchItems,
		m.cleanupRemoved,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records one observation per request, labeled with gin's
// route template so path params do not explode label cardinality.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.requestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveRemoval records one finished background removal. Duration is only
// meaningful for successes.
func (m *Metrics) ObserveRemoval(model, status string, seconds float64) {
	m.imagesProcessed.WithLabelValues(model, status).Inc()
	if status == "success" {
		m.inferenceDuration.WithLabelValues(model).Observe(seconds)
	}
}

func (m *Metrics) InferenceStarted() {
	m.activeInferences.Inc()
}

func (m *Metrics) InferenceDone() {
	m.activeInferences.Dec()
}

func (m *Metrics) ObserveBatchItem(status string) {
	m.batchItems.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCleanup(removed int) {
	m.cleanupRemoved.Add(float64(removed))
}
