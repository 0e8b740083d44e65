package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealmind/internal/core/ai/cache"
	"mealmind/internal/core/ai/openai"
	"mealmind/internal/core/ai/provider"
	"mealmind/internal/core/persist"
	"mealmind/internal/core/planner"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"
	"mealmind/internal/storage/postgres"
	"mealmind/internal/storage/sqlite"

	"go.uber.org/zap"
)

// App 組裝完成的服務
type App struct {
	Config    *config.Config
	Cache     *cache.Service
	LLM       provider.Provider
	Planner   *planner.Planner
	Store     persist.Store
	Persister *persist.Persister
}

// New 依設定建立所有元件；redis 於首次使用時才連線
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	cacheSvc, err := cache.NewService(&cfg.Cache, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	llm := openai.NewClient(&cfg.LLM)
	if cfg.LLM.APIKey == "" {
		common.LogWarn("OPENAI_API_KEY not set, generation will fail until configured")
	}

	store, err := OpenStore(ctx, &cfg.Storage)
	if err != nil {
		cacheSvc.Close()
		return nil, err
	}

	if llmOutlivesRequest(cfg.Server.RequestTimeout, llm.GetTimeout()) {
		common.LogWarn("llm timeout exceeds request timeout, slow generations will be cut off",
			zap.Duration("llm_timeout", llm.GetTimeout()),
			zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		)
	}

	common.LogInfo("services initialized",
		zap.String("model", llm.GetModel()),
		zap.Duration("llm_timeout", llm.GetTimeout()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	return &App{
		Config:    cfg,
		Cache:     cacheSvc,
		LLM:       llm,
		Planner:   planner.New(cfg, cacheSvc, llm),
		Store:     store,
		Persister: persist.New(store),
	}, nil
}

// llmOutlivesRequest 請求逾時先於 LLM 逾時觸發時回傳 true；任一值未設定時不比較
func llmOutlivesRequest(request, llm time.Duration) bool {
	return request > 0 && llm > 0 && llm >= request
}

// OpenStore 依 driver 開啟計畫儲存
func OpenStore(ctx context.Context, cfg *config.StorageConfig) (persist.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, &common.ConfigurationError{Setting: "STORAGE_DRIVER"}
	}
}

// Close 釋放連線
func (a *App) Close() error {
	return errors.Join(
		a.LLM.Close(),
		a.Cache.Close(),
		a.Store.Close(),
	)
}
