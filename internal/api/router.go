package api

import (
	"errors"
	"time"

	"recipe-finder/internal/api/handlers"
	"recipe-finder/internal/api/handlers/health"
	recipeHandler "recipe-finder/internal/api/handlers/recipe"
	recognitionHandler "recipe-finder/internal/api/handlers/recognition"
	"recipe-finder/internal/api/middleware"
	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/core/recognition"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services 路由所需的服務
type Services struct {
	Recipes   *recipeService.Service
	Queue     *recognition.Queue
	Validator *recognition.ImageValidator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if svc.Recipes == nil || svc.Queue == nil || svc.Validator == nil {
		return nil, errors.New("router requires recipe service, recognition queue and image validator")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID", "Retry-After"},
		MaxAge:          12 * time.Hour,
	}))

	// 請求體大小限制與逾時
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, common.ErrNotFound)
	})
	router.NoMethod(func(c *gin.Context) {
		handlers.RespondError(c, common.ErrMethodNotAllowed)
	})

	// 健康檢查與監控
	health.NewHandler(health.Dependencies{
		Version: cfg.App.Version,
		Store:   svc.Recipes,
		Queue:   svc.Queue,
		Cache:   svc.Recipes.CacheStats,
	}).Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		api.Use(middleware.Deduplication(cfg.DedupWindow))
	}

	recipeHandler.NewHandler(svc.Recipes).Register(api)
	recognitionHandler.NewHandler(svc.Queue, svc.Validator).Register(api)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Duration("dedup_window", cfg.DedupWindow),
	)

	return router, nil
}
