package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "orders_created_total",
		Help:      "Orders created.",
	})
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "order_transitions_total",
		Help:      "Order status transitions by target status.",
	}, []string{"status"})
	OrderNumberSource = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "order_number_allocations_total",
		Help:      "Order numbers allocated by counter source.",
	}, []string{"source"})
	GraceWindows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "grace_windows_total",
		Help:      "Grace windows closed by kind and outcome.",
	}, []string{"kind", "outcome"})
	Escalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "escalations_total",
		Help:      "Escalations opened by type.",
	}, []string{"type"})
	PaymentEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "payment_events_total",
		Help:      "Payment callbacks by leg and outcome.",
	}, []string{"leg", "outcome"})
	CommissionsCredited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "commissions_credited_total",
		Help:      "Commissions credited to partner wallets.",
	})
	CommissionsReversed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "commissions_reversed_total",
		Help:      "Commissions reversed after cancellation.",
	})
	CreditRepayments = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "credit_repayments_total",
		Help:      "Credit cycle repayments recorded.",
	})
	ConsistencyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "consistency_failures_total",
		Help:      "Operations aborted by a failed invariant check.",
	}, []string{"operation"})
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "domain_events_total",
		Help:      "Domain events by name and delivery path.",
	}, []string{"event", "path"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordercore",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ordercore",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Register adds every collector to the default registry once
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OrdersCreated,
			OrderTransitions,
			OrderNumberSource,
			GraceWindows,
			Escalations,
			PaymentEvents,
			CommissionsCredited,
			CommissionsReversed,
			CreditRepayments,
			ConsistencyFailures,
			EventsPublished,
			httpRequests,
			httpDuration,
		)
	})
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request count and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
