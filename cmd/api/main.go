package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-finder/internal/api"
	"recipe-finder/internal/core/cache"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/core/preference"
	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/core/recognition"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

// 關閉服務器的等待時間
const shutdownTimeout = 5 * time.Second

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Dir, cfg.Log.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := run(cfg); err != nil {
		common.LogError("Server exited with error", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
	common.LogInfo("Server exited")
}

func run(cfg *config.Config) error {
	common.LogInfo("載入設定",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("recognition_provider", cfg.Recognition.Provider),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("queue_workers", cfg.Queue.Workers),
	)

	// 載入食譜目錄
	recipes, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := preference.New(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			common.LogWarn("Failed to close preference store", zap.Error(err))
		}
	}()

	// 初始化快取，停用時為 nil
	searchCache := cache.NewManager[[]common.ScoredRecipe]("search", cfg.Cache)
	defer searchCache.Close()

	common.LogInfo("食譜目錄已載入", zap.Int("recipes", recipes.Len()))
	recipeSvc := recipeService.NewService(recipes, matching.DefaultMatcher(), store, searchCache)

	queue := recognition.NewQueue(recognition.New(cfg), cfg.Queue)
	defer queue.Close()

	router, err := api.SetupRouter(cfg, api.Services{
		Recipes:   recipeSvc,
		Queue:     queue,
		Validator: recognition.NewImageValidator(cfg.Image.MaxSizeBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
