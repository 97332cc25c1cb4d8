package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enrollment"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	Orders        *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	Enrollments   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Checkout order requests by result.",
		}, []string{"result"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verification attempts by result.",
		}, []string{"result"}),
		Enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "course_enrollments_total",
			Help:      "Per-course enrollment outcomes.",
		}, []string{"status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatches by kind and result.",
		}, []string{"kind", "result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}

	reg.MustRegister(m.Orders, m.Verifications, m.Enrollments, m.Notifications, m.Requests, m.LatencyMS)
	return m
}

func (m *Metrics) ObserveOrder(result string) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveVerification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveEnrollment(status string) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
