package router

import (
	"net/http"
	"time"

	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/http/middleware"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ipRateLimit     = rate.Limit(20)
	ipBurst         = 60
	tenantRateLimit = rate.Limit(50)
	tenantBurst     = 150
)

// New builds the gin engine and mounts every module.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(metrics.Middleware())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(cors.New(corsConfig(app.Config)))

	ipLimiter := httpkit.NewRateLimiter(ipRateLimit, ipBurst, app.Logger)
	tenantLimiter := httpkit.NewRateLimiter(tenantRateLimit, tenantBurst, app.Logger)

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/api/v1")
	v1.Use(ipLimiter.ByIP())

	protected := v1.Group("")
	protected.Use(httpkit.AuthRequired(app.Verifier), tenantLimiter.ByTenant())

	admin := protected.Group("/admin")
	admin.Use(httpkit.RequireAdmin())

	routerCtx := &apphttp.RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
		Admin:     admin,
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("module routes registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.GetCORSOrigins()
	}
	return config
}
