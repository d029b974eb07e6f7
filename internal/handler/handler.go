package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessFunc reports whether a dependency is able to serve traffic.
type ReadinessFunc func() error

// Handler serves the operational endpoints: liveness, readiness and metrics.
type Handler struct {
	registry *prometheus.Registry
	checks   map[string]ReadinessFunc
}

func NewHandler(registry *prometheus.Registry, checks map[string]ReadinessFunc) *Handler {
	if checks == nil {
		checks = map[string]ReadinessFunc{}
	}
	return &Handler{
		registry: registry,
		checks:   checks,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
	r.GET("/metrics", h.MetricsHandler)
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"time":   time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": failed,
			"time":   time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now(),
	})
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry}).ServeHTTP(c.Writer, c.Request)
}
