// Package metrics 提供 Prometheus 指標與 /metrics 端點
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 專用 registry，避免測試間重複註冊 default registry
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	newsCacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_lookups_total",
			Help: "News cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	paginationRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_pagination_requests_total",
			Help: "News listing requests by page bucket",
		},
		[]string{"page_range"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Middleware 以路由樣板 (例如 /news/:id) 作為 path label
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler /metrics 端點
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// CacheLookup result 為 hit、miss 或 error
func CacheLookup(result string) {
	newsCacheLookups.WithLabelValues(result).Inc()
}

// PageRequested 依頁碼區間計數
func PageRequested(page int) {
	paginationRequests.WithLabelValues(pageRange(page)).Inc()
}

func pageRange(page int) string {
	switch {
	case page <= 1:
		return "1"
	case page <= 10:
		return "2-10"
	case page <= 50:
		return "11-50"
	default:
		return "51+"
	}
}
