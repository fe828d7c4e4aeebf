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
			Name: "memodeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memodeck_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	// SessionsCompleted 按会话类型统计完成数
	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memodeck_study_sessions_completed_total",
			Help: "Completed study sessions by type",
		},
		[]string{"type"},
	)

	QuizAccuracy = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memodeck_quiz_accuracy_percent",
			Help:    "Accuracy of saved quiz attempts",
			Buckets: []float64{20, 40, 60, 75, 90, 100},
		},
	)

	CardsImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memodeck_cards_imported_total",
			Help: "Imported card rows by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, SessionsCompleted, QuizAccuracy, CardsImported)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
