// Package server exposes the calcsteps tools over HTTP and over the MCP
// stdio transport.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/calcsteps"
)

const maxBodyBytes = 1 << 20

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tools    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcsteps_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calcsteps_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		tools: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcsteps_tool_calls_total",
			Help: "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}
}

func (m *metrics) middleware(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	c.Next()
}

// NewRouter serves POST /tool, GET /schema, GET /health and GET /metrics.
// A nil registry gets a fresh one.
func NewRouter(calc *calcsteps.Calculator, logger *slog.Logger, reg *prometheus.Registry) *gin.Engine {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := newMetrics(reg)

	r := gin.New()
	r.Use(gin.Recovery(), m.middleware, limitBody)

	r.POST("/tool", func(c *gin.Context) {
		var req calcsteps.ToolRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp := calc.HandleToolCall(c.Request.Context(), req)
		outcome := "ok"
		if resp.Error != "" {
			outcome = "error"
		}
		m.tools.WithLabelValues(req.Tool, outcome).Inc()
		logger.Debug("tool call", "tool", req.Tool, "id", resp.ID, "outcome", outcome)
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/schema", func(c *gin.Context) {
		c.JSON(http.StatusOK, calcsteps.ToolSpec())
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"cache":  calc.CacheStats(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}

// NewHTTPServer wraps the router with the timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
