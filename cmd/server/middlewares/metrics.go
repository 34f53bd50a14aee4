package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// normalizeRoutePath returns the route template to prevent high cardinality
// in metrics labels. Returns the actual path for unmatched routes (404s).
func normalizeRoutePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// normalizeStatus returns the status code as a string for Prometheus metrics
// 2xx -> "2xx", 4xx -> "4xx", 5xx -> "5xx"
func normalizeStatus(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return strconv.Itoa(status)
}

// RuntimeStats exposes in-process state as gauges. Nil funcs are skipped.
type RuntimeStats struct {
	// Subscribers and Dropped read the websocket hub.
	Subscribers func() int
	Dropped     func() uint64
	// PendingReminders reads the reminder scheduler.
	PendingReminders func() int
	// BlobBreakerState reads the blob storage circuit breaker (0 closed, 1 half-open, 2 open).
	BlobBreakerState func() int
}

// Collectors turns the configured funcs into Prometheus collectors.
func (s RuntimeStats) Collectors() []prometheus.Collector {
	var out []prometheus.Collector
	if s.Subscribers != nil {
		out = append(out, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notes_ws_subscribers",
			Help: "Open websocket note streams",
		}, func() float64 { return float64(s.Subscribers()) }))
	}
	if s.Dropped != nil {
		out = append(out, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "notes_ws_dropped_events_total",
			Help: "Events dropped because a subscriber outbox was full",
		}, func() float64 { return float64(s.Dropped()) }))
	}
	if s.PendingReminders != nil {
		out = append(out, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notes_reminders_pending",
			Help: "Reminders armed and not yet fired",
		}, func() float64 { return float64(s.PendingReminders()) }))
	}
	if s.BlobBreakerState != nil {
		out = append(out, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notes_blob_breaker_state",
			Help: "Blob storage circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, func() float64 { return float64(s.BlobBreakerState()) }))
	}
	return out
}

// AttachMetrics gives the supplied Fiber app its **own** Prometheus registry
// and wires a /metrics endpoint plus request-timing middleware. Extra
// collectors are registered on the same registry.
func AttachMetrics(app *fiber.App, extra ...prometheus.Collector) {
	reg := prometheus.NewRegistry()

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqTotal)
	reg.MustRegister(extra...)

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start).Seconds()

		method := c.Method()
		path := normalizeRoutePath(c)
		status := normalizeStatus(c.Response().StatusCode())

		reqDuration.WithLabelValues(method, path, status).Observe(dur)
		reqTotal.WithLabelValues(method, path, status).Inc()
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
}
