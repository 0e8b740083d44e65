package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealmind/internal/core/ai/cache"
	"mealmind/internal/core/ai/provider"
	"mealmind/internal/core/mealplan"
	"mealmind/internal/core/profile"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"

	"go.uber.org/zap"
)

// Cache 餐點計畫快取
type Cache interface {
	KeyForProfile(p profile.UserProfile) (string, error)
	Get(ctx context.Context, key string) (*cache.Entry, bool)
	Set(ctx context.Context, key string, entry *cache.Entry, ttl time.Duration) bool
	Delete(ctx context.Context, key string) (int64, error)
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
	Stats(ctx context.Context) (*cache.Stats, error)
}

// Result 產生結果
type Result struct {
	Document *mealplan.Document `json:"meal_plan"`
	CacheHit bool               `json:"cache_hit"`
	CacheKey string             `json:"cache_key"`
	Repaired bool               `json:"repaired"`
}

// Planner 以快取包住 LLM 呼叫的餐點計畫產生器
type Planner struct {
	cache       Cache
	llm         provider.Provider
	maxTokens   int
	temperature float64
	ttl         time.Duration
	now         func() time.Time
}

// New 創建產生器
func New(cfg *config.Config, c Cache, llm provider.Provider) *Planner {
	return &Planner{
		cache:       c,
		llm:         llm,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		ttl:         cfg.Cache.TTL,
		now:         time.Now,
	}
}

// Generate 產生七日餐點計畫；forceRefresh 略過快取讀取但仍寫回
func (p *Planner) Generate(ctx context.Context, prof profile.UserProfile, forceRefresh bool) (*Result, error) {
	key, err := p.cache.KeyForProfile(prof)
	if err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	fields := profile.Format(prof)

	if !forceRefresh {
		if entry, ok := p.cache.Get(ctx, key); ok {
			common.LogInfo("returning cached meal plan", zap.String("username", fields.Username))
			return &Result{Document: entry.MealPlan, CacheHit: true, CacheKey: key}, nil
		}
	}

	prompt, err := BuildPrompt(fields)
	if err != nil {
		return nil, &common.GenerationError{Stage: common.StageLLM, Err: err}
	}

	common.LogInfo("generating new meal plan",
		zap.String("username", fields.Username),
		zap.String("health_goals", fields.HealthGoals),
		zap.Bool("force_refresh", forceRefresh),
	)

	resp, err := p.llm.Generate(ctx, &provider.Request{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: prompt}},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		var cfgErr *common.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &common.GenerationError{Stage: common.StageLLM, Err: err}
	}

	doc, repaired, err := decode(resp.Content)
	if err != nil {
		common.LogError("unrepairable meal plan output",
			zap.Error(err),
			zap.String("output", common.Preview(resp.Content, 200)),
		)
		return nil, &common.GenerationError{Stage: common.StageParse, Err: err}
	}

	p.cache.Set(ctx, key, &cache.Entry{
		MealPlan:  doc,
		Timestamp: p.now().UTC(),
		CacheKey:  key,
	}, p.ttl)

	common.LogInfo("meal plan generated",
		zap.String("username", fields.Username),
		zap.Int("days", len(doc.MealPlan)),
		zap.Int("shopping_items", len(doc.ShoppingList)),
		zap.Bool("repaired", repaired),
	)

	return &Result{Document: doc, CacheKey: key, Repaired: repaired}, nil
}

// decode 先嚴格解析，失敗時嘗試修復
func decode(content string) (*mealplan.Document, bool, error) {
	doc, parseErr := mealplan.Parse(content)
	if parseErr == nil {
		return doc, false, nil
	}

	common.LogWarn("parsing error, trying to repair output", zap.Error(parseErr))
	doc, err := mealplan.Repair(content, parseErr)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// ClearCache 清除快取；prof 為 nil 時清除整個前綴
func (p *Planner) ClearCache(ctx context.Context, prof *profile.UserProfile) (int64, error) {
	if prof == nil {
		return p.cache.DeleteMatching(ctx, "")
	}

	key, err := p.cache.KeyForProfile(*prof)
	if err != nil {
		return 0, common.NewValidationError(err.Error())
	}
	n, err := p.cache.Delete(ctx, key)
	if err != nil {
		return 0, err
	}
	common.LogInfo("cleared cache for profile", zap.String("key", cache.Preview(key)), zap.Int64("deleted", n))
	return n, nil
}

// CacheStats 快取統計
func (p *Planner) CacheStats(ctx context.Context) (*cache.Stats, error) {
	stats, err := p.cache.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return stats, nil
}
