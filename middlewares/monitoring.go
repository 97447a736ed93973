package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parampara_foods_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parampara_foods_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parampara_foods_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	stockRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parampara_foods_stock_rejections_total",
			Help: "Order lines rejected for insufficient stock",
		},
	)

	lowStockEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parampara_foods_low_stock_events_total",
			Help: "Foods found at or below their minimum stock level after an order",
		},
	)

	orderEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parampara_foods_order_events_consumed_total",
			Help: "Order events handled by the consumer",
		},
		[]string{"type", "status"},
	)
)

// PrometheusMiddleware records request count and latency per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordStockRejection(int64) {
	stockRejections.Inc()
}

func RecordLowStock(count int) {
	lowStockEvents.Add(float64(count))
}

func RecordOrderEvent(eventType string, success bool) {
	orderEvents.WithLabelValues(eventType, outcome(success)).Inc()
}
