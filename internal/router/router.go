package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medly/medly-api/internal/middleware"
	"github.com/medly/medly-api/pkg/metrics"
)

// Handler registers its routes on the shared /api group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	Mode      string
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
}

type Router struct {
	engine *gin.Engine
}

func New(cfg Config, m *metrics.Metrics, healthH Handler, handlers ...Handler) *Router {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(cfg.CORS))
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	healthH.RegisterRoutes(&engine.RouterGroup)

	api := engine.Group("/api")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
