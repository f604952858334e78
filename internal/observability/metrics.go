package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_registrations_total",
			Help: "Participant registration attempts by result.",
		},
		[]string{"result"},
	)
	messagesStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_stored_total",
			Help: "Messages appended to the room log by type.",
		},
		[]string{"type"},
	)
	reaperSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reaper_sweeps_total",
			Help: "Presence sweeps by result.",
		},
		[]string{"result"},
	)
	participantsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_participants_evicted_total",
			Help: "Participants removed for inactivity.",
		},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		registrationsTotal,
		messagesStoredTotal,
		reaperSweepsTotal,
		participantsEvictedTotal,
		wsActiveConnections,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncRegistration(result string) {
	registrationsTotal.WithLabelValues(result).Inc()
}

func IncMessageStored(kind string) {
	messagesStoredTotal.WithLabelValues(kind).Inc()
}

func IncSweep(result string) {
	reaperSweepsTotal.WithLabelValues(result).Inc()
}

func AddEvicted(n int) {
	participantsEvictedTotal.Add(float64(n))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
