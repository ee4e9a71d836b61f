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

	SubmissionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_submissions_started_total",
			Help: "Exam submissions created",
		},
	)

	SubmissionsFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_submissions_finalized_total",
			Help: "Exam submissions scored and finalized",
		},
	)

	AnswersRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_answers_recorded_total",
			Help: "Answer upserts accepted",
		},
	)

	ScorePercent = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_score_percent",
			Help:    "Distribution of finalized score percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	PracticeTestsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_tests_generated_total",
			Help: "Generated practice tests by requested difficulty",
		},
		[]string{"difficulty"},
	)

	PracticeTestShortfall = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "practice_test_shortfall_total",
			Help: "Generated practice tests that returned fewer questions than requested",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SubmissionsStarted,
			SubmissionsFinalized,
			AnswersRecorded,
			ScorePercent,
			PracticeTestsGenerated,
			PracticeTestShortfall,
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
