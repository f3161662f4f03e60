// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements services.Recorder and the HTTP request recorder used
// by the metrics middleware.
type Collector struct {
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	listingsCreated      prometheus.Counter
	listingsDeleted      prometheus.Counter
	filesUploaded        prometheus.Counter
	uploadsRejected      *prometheus.CounterVec
	notificationsCreated prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livestock_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "livestock_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livestock_listings_created_total",
			Help: "Listings created.",
		}),
		listingsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livestock_listings_deleted_total",
			Help: "Listings deleted.",
		}),
		filesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livestock_files_uploaded_total",
			Help: "Media files stored.",
		}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livestock_uploads_rejected_total",
			Help: "Upload batches rejected, by reason.",
		}, []string{"reason"}),
		notificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livestock_notifications_created_total",
			Help: "Notifications created.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.listingsCreated,
		c.listingsDeleted,
		c.filesUploaded,
		c.uploadsRejected,
		c.notificationsCreated,
	)

	return c
}

// RecordRequest records one finished HTTP request. route is the chi route
// pattern, so path parameters do not explode label cardinality.
func (c *Collector) RecordRequest(route, method string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (c *Collector) ListingCreated() {
	c.listingsCreated.Inc()
}

func (c *Collector) ListingDeleted() {
	c.listingsDeleted.Inc()
}

func (c *Collector) FilesUploaded(n int) {
	c.filesUploaded.Add(float64(n))
}

func (c *Collector) UploadRejected(reason string) {
	c.uploadsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) NotificationCreated() {
	c.notificationsCreated.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
