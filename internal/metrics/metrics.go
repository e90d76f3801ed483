// Package metrics holds the prometheus collectors for the engine and its
// transports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Update outcomes used as the "result" label of UpdatesTotal.
const (
	UpdateApplied   = "applied"
	UpdateIgnored   = "ignored"
	UpdateMalformed = "malformed"
	UpdateDropped   = "dropped"
)

// Registry holds all metrics for the process.
type Registry struct {
	// Engine
	FramesTotal        prometheus.Counter
	FrameFailuresTotal prometheus.Counter
	FrameDuration      prometheus.Histogram
	UpdatesTotal       *prometheus.CounterVec
	InboxDepth         prometheus.Gauge
	LayoutAlpha        prometheus.Gauge
	GraphNodes         prometheus.Gauge
	GraphLinks         prometheus.Gauge
	EventsEmitted      *prometheus.CounterVec

	// Transport
	FeedReconnects    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	StreamSubscribers prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every collector initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	r := &Registry{registry: reg}
	r.initEngineMetrics()
	r.initTransportMetrics()
	return r
}

func (r *Registry) initEngineMetrics() {
	f := promauto.With(r.registry)

	r.FramesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "beadgraph_frames_total",
		Help: "Total number of frames run",
	})
	r.FrameFailuresTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "beadgraph_frame_failures_total",
		Help: "Frames aborted by a recovered panic",
	})
	r.FrameDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "beadgraph_frame_duration_seconds",
		Help:    "Time spent inside one frame",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .016, .025, .05, .1},
	})
	r.UpdatesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "beadgraph_updates_total",
		Help: "Push messages by outcome",
	}, []string{"result"})
	r.InboxDepth = f.NewGauge(prometheus.GaugeOpts{
		Name: "beadgraph_inbox_depth",
		Help: "Push messages waiting for the next frame",
	})
	r.LayoutAlpha = f.NewGauge(prometheus.GaugeOpts{
		Name: "beadgraph_layout_alpha",
		Help: "Current layout temperature",
	})
	r.GraphNodes = f.NewGauge(prometheus.GaugeOpts{
		Name: "beadgraph_graph_nodes",
		Help: "Nodes in the graph model",
	})
	r.GraphLinks = f.NewGauge(prometheus.GaugeOpts{
		Name: "beadgraph_graph_links",
		Help: "Links in the graph model",
	})
	r.EventsEmitted = f.NewCounterVec(prometheus.CounterOpts{
		Name: "beadgraph_events_emitted_total",
		Help: "Outward interaction events by topic",
	}, []string{"topic"})
}

func (r *Registry) initTransportMetrics() {
	f := promauto.With(r.registry)

	r.FeedReconnects = f.NewCounterVec(prometheus.CounterOpts{
		Name: "beadgraph_feed_reconnects_total",
		Help: "Push channel reconnect attempts",
	}, []string{"channel"})
	r.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "beadgraph_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	r.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beadgraph_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	r.StreamSubscribers = f.NewGauge(prometheus.GaugeOpts{
		Name: "beadgraph_stream_subscribers",
		Help: "Connected event stream clients",
	})
}

// RecordFrame records one completed frame.
func (r *Registry) RecordFrame(d time.Duration) {
	r.FramesTotal.Inc()
	r.FrameDuration.Observe(d.Seconds())
}

// RecordUpdate counts a push message by outcome.
func (r *Registry) RecordUpdate(result string) {
	r.UpdatesTotal.WithLabelValues(result).Inc()
}

// SetGraphSize updates the node and link gauges.
func (r *Registry) SetGraphSize(nodes, links int) {
	r.GraphNodes.Set(float64(nodes))
	r.GraphLinks.Set(float64(links))
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, d time.Duration) {
	r.HTTPRequests.WithLabelValues(method, path, status).Inc()
	r.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying prometheus registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
