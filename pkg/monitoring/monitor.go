package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	WorkspacesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_workspaces_open",
			Help: "Number of open respondent workspaces",
		},
	)

	AnswersSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_answers_saved_total",
			Help: "Answers sent to the response store, by result",
		},
		[]string{"result"},
	)

	SettleEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_settle_events_total",
			Help: "Continuous edit bursts that settled",
		},
	)

	StaleSettles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_stale_settles_total",
			Help: "Settle callbacks dropped because the answer context changed",
		},
	)

	WSMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_ws_messages_total",
			Help: "Websocket messages by type and direction",
		},
		[]string{"type", "direction"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Calling it more
// than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			WorkspacesOpen,
			AnswersSaved,
			SettleEvents,
			StaleSettles,
			WSMessageCounter,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
