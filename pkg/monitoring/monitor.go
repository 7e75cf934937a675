package monitoring

import (
	"strconv"
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

	// GradingRequests 外部判分调用计数，outcome: ok/error/malformed
	GradingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_requests_total",
			Help: "Total number of grading service calls by outcome",
		},
		[]string{"outcome"},
	)

	GradingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grading_request_duration_seconds",
			Help:    "Duration of grading service calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// AnswerResults 提交结果计数，result: correct_fast/correct_graded/retry/failed/skipped
	AnswerResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_answers_total",
			Help: "Total number of answer submissions by result",
		},
		[]string{"result"},
	)

	DeckLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deck_loads_total",
			Help: "Total number of deck loads",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GradingRequests)
	prometheus.MustRegister(GradingDuration)
	prometheus.MustRegister(AnswerResults)
	prometheus.MustRegister(DeckLoads)
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
