package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Editor metrics
	MapOperations    *prometheus.CounterVec
	AutoLinks        prometheus.Counter
	OpenWorkspaces   prometheus.Gauge
	LinkScanDuration prometheus.Histogram

	// Repository metrics
	RepositoryOperations *prometheus.CounterVec
	RepositoryDuration   *prometheus.HistogramVec

	// Messaging metrics
	EventsPublished *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so several
// collectors (one per test) never clash
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MapOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "map_operations_total",
				Help:      "Editor operations applied to concept maps",
			},
			[]string{"operation", "status"},
		),
		AutoLinks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auto_links_total",
				Help:      "Edges created by dropping a node near another",
			},
		),
		OpenWorkspaces: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_workspaces",
				Help:      "Concept maps currently held in memory",
			},
		),
		LinkScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "drag_step_duration_seconds",
				Help:      "Time spent applying one drag step including the link scan",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		RepositoryOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_operations_total",
				Help:      "Total number of repository operations",
			},
			[]string{"operation", "status"},
		),
		RepositoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repository_operation_duration_seconds",
				Help:      "Repository operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events handed to the event publisher",
			},
			[]string{"status"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_notifications_total",
				Help:      "Snapshots pushed to connected clients",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.MapOperations,
		c.AutoLinks,
		c.OpenWorkspaces,
		c.LinkScanDuration,
		c.RepositoryOperations,
		c.RepositoryDuration,
		c.EventsPublished,
		c.Notifications,
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveOperation counts an editor operation by outcome
func (c *Collector) ObserveOperation(operation string, err error) {
	c.MapOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

// ObserveRepository records a repository call
func (c *Collector) ObserveRepository(operation string, started time.Time, err error) {
	c.RepositoryOperations.WithLabelValues(operation, statusLabel(err)).Inc()
	c.RepositoryDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
