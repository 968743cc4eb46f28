package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "upload_server"

// Metrics holds the collectors exported on /metrics. Each instance owns
// its registry, so servers built in tests do not share counters.
type Metrics struct {
	registry *prometheus.Registry

	info             *prometheus.GaugeVec
	requests         *prometheus.CounterVec // by status class
	uploads          prometheus.Counter
	uploadBytes      prometheus.Counter
	uploadRejections *prometheus.CounterVec // by error kind
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "info",
			Help:      "Application version info.",
		}, []string{"version", "commit"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "HTTP requests by status class.",
		}, []string{"class"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_total",
			Help:      "Stored uploads.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes of stored uploads.",
		}),
		uploadRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_rejections_total",
			Help:      "Uploads rejected, by reason.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.info,
		m.requests,
		m.uploads,
		m.uploadBytes,
		m.uploadRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// SetBuildInfo publishes the running version as upload_server_info.
func (m *Metrics) SetBuildInfo(build BuildInfo) {
	m.info.Reset()
	m.info.WithLabelValues(orDefault(build.Version, "dev"), orDefault(build.Commit, "unknown")).Set(1)
}

// RecordUpload records a stored upload.
func (m *Metrics) RecordUpload(bytes int64) {
	m.uploads.Inc()
	m.uploadBytes.Add(float64(bytes))
}

// RecordUploadRejected records an upload that did not end in 201.
func (m *Metrics) RecordUploadRejected(kind string) {
	m.uploadRejections.WithLabelValues(kind).Inc()
}

// RecordRequest records an HTTP request under its status class, e.g. "4xx".
func (m *Metrics) RecordRequest(statusCode int) {
	m.requests.WithLabelValues(statusClass(statusCode)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
