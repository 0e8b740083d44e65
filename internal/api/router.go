package api

import (
	"context"
	"net/http"
	"time"

	"mealmind/internal/api/handlers/health"
	mealplanHandler "mealmind/internal/api/handlers/mealplan"
	"mealmind/internal/api/middleware"
	"mealmind/internal/app"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由依賴的服務
type Services struct {
	Generator    mealplanHandler.Generator
	Plans        mealplanHandler.PlanStore
	Dependencies []health.Dependency
}

// ServicesFromApp 由組裝完成的 App 取得路由依賴
func ServicesFromApp(a *app.App) Services {
	deps := []health.Dependency{{Name: "redis", Checker: a.Cache}}
	if pinger, ok := a.Store.(health.Checker); ok {
		deps = append(deps, health.Dependency{Name: "storage", Checker: pinger, Required: true})
	}
	return Services{
		Generator:    a.Planner,
		Plans:        a.Persister,
		Dependencies: deps,
	}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(requestTimeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, svc.Dependencies...)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api/v1")
	{
		group := api.Group("/meal-plan")
		group.Use(middleware.NewDeduplicator(cfg.RateLimit.DedupWindow).Middleware())
		mealplanHandler.NewHandler(svc.Generator, svc.Plans, cfg.App.Debug).Register(group)
	}

	common.LogInfo("Router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// requestTimeout 為請求設定期限；handler 尚未回應即逾時則回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "request timeout",
				Details: timeout.String(),
			})
		}
	}
}
