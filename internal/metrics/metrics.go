package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "westend_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "westend_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Chat metrics
	chatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "westend_chat_messages_total",
		Help: "Bot replies by pipeline source",
	}, []string{"source"})

	completionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "westend_completion_requests_total",
		Help: "Remote completion requests",
	}, []string{"model", "status"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "westend_completion_request_duration_seconds",
		Help:    "Duration of remote completion requests",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
	}, []string{"model", "status"})

	completionTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "westend_completion_tokens_total",
		Help: "Tokens consumed by remote completion",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "westend_cache_lookups_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	mails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "westend_mail_total",
		Help: "Outbound notification mails",
	}, []string{"status"})
)

func RecordChatMessage(source string) {
	chatMessages.WithLabelValues(source).Inc()
}

func RecordCompletion(model, status string, d time.Duration) {
	completionRequests.WithLabelValues(model, status).Inc()
	completionDuration.WithLabelValues(model, status).Observe(d.Seconds())
}

func RecordTokens(n int) {
	if n > 0 {
		completionTokens.Add(float64(n))
	}
}

func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

func RecordMail(status string) {
	mails.WithLabelValues(status).Inc()
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
