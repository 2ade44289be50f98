package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP请求计数
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grants_http_requests_total",
		Help: "Total HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	// HTTP请求耗时
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grants_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// EscrowCallTotal 托管调用结果计数
	EscrowCallTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grants_escrow_calls_total",
		Help: "Escrow contract call outcomes by op and result.",
	}, []string{"op", "result"})
)

// Middleware 请求统计中间件
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
