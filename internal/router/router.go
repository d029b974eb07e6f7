package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	authhandler "github.com/vamsi-krishn/EHR-system/internal/handler/auth"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
)

// Handler mounts its routes on the public and the session-protected groups.
type Handler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    *authhandler.Handler
	h        *handler.Handler
	handlers []Handler
	config   RouterConfig
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	Mode          string
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	Timeout       time.Duration
	MaxBodySize   int64
	PHIAudit      bool
	MetricsPrefix string
	Registry      *prometheus.Registry
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	h *handler.Handler,
	handlers []Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.MetricsPrefix == "" {
		config.MetricsPrefix = "ehr_http"
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		h:        h,
		handlers: handlers,
		config:   config,
		metrics:  initRouterMetrics(config.MetricsPrefix, config.Registry),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
		middleware.ErrorHandler(),
		middleware.Validation(middleware.DefaultValidationConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api")
	r.authH.RegisterLegacyRoutes(api)

	v1 := api.Group("/v1")
	v1.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.h.RegisterRoutes(v1)

	public := v1.Group("")
	protected := v1.Group("")
	protected.Use(
		r.auth.Authenticate(),
		middleware.PHI(middleware.PHIConfig{AuditEnabled: r.config.PHIAudit}),
	)

	r.authH.RegisterRoutes(public, protected)
	for _, h := range r.handlers {
		h.RegisterRoutes(public, protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case c.Writer.Status() >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case c.Writer.Status() >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
