package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mockmate/internal/services/health"
	"mockmate/internal/shared/metrics"
	"mockmate/internal/shared/server/middleware"
	"mockmate/internal/shared/server/respond"
)

const startGroup = "start"

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps are the pieces the HTTP layer needs.
type RouterDeps struct {
	Logger          *zap.Logger
	CORSAllowOrigin []string
	// StartRatePerMin limits interview starts per client. Zero disables the limit.
	StartRatePerMin int
	Gatherer        prometheus.Gatherer
	Metrics         *metrics.Metrics
	Health          *health.Service
	Handlers        []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Logger),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigin),
	)
	if limit, ok := middleware.PerMinute(deps.StartRatePerMin); ok {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Classify: classify,
			Limits:   map[string]middleware.Limit{startGroup: limit},
			OnReject: deps.Metrics.IncRateLimited,
		}))
	}

	r.GET("/health", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(deps.Gatherer))
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))
	for _, h := range deps.Handlers {
		h.RegisterRoutes(api)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
}

// classify puts interview starts in their own group; every other route is unlimited.
func classify(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/interviews" {
		return startGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
