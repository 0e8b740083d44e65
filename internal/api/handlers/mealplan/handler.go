package mealplan

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"mealmind/internal/core/ai/cache"
	"mealmind/internal/core/mealplan"
	"mealmind/internal/core/persist"
	"mealmind/internal/core/planner"
	"mealmind/internal/core/profile"
	"mealmind/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generator 餐點計畫產生與快取管理
type Generator interface {
	Generate(ctx context.Context, prof profile.UserProfile, forceRefresh bool) (*planner.Result, error)
	ClearCache(ctx context.Context, prof *profile.UserProfile) (int64, error)
	CacheStats(ctx context.Context) (*cache.Stats, error)
}

// PlanStore 計畫持久化
type PlanStore interface {
	Persist(ctx context.Context, userID string, doc *mealplan.Document, startDate time.Time) (*persist.Result, error)
	Get(ctx context.Context, id string) (*persist.StoredPlan, error)
}

// GenerateRequest 產生請求
type GenerateRequest struct {
	Profile      *profile.UserProfile `json:"profile"`
	ForceRefresh bool                 `json:"force_refresh"`
}

// ClearCacheRequest 清除快取請求；未帶 profile 時清除全部
type ClearCacheRequest struct {
	Profile *profile.UserProfile `json:"profile"`
}

// PersistRequest 寫入請求
type PersistRequest struct {
	UserID    string             `json:"user_id"`
	StartDate string             `json:"start_date"` // YYYY-MM-DD，可省略
	MealPlan  *mealplan.Document `json:"meal_plan"`
}

// Handler 餐點計畫處理程序
type Handler struct {
	generator Generator
	plans     PlanStore
	debug     bool
}

// NewHandler 創建處理程序；debug 時錯誤回應帶上詳細原因
func NewHandler(generator Generator, plans PlanStore, debug bool) *Handler {
	return &Handler{generator: generator, plans: plans, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/generate", h.HandleGenerate)
	group.POST("/persist", h.HandlePersist)
	group.GET("/plans/:id", h.HandleGetPlan)
	group.POST("/cache/clear", h.HandleClearCache)
	group.GET("/cache/stats", h.HandleCacheStats)
}

// HandleGenerate 產生七日餐點計畫
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if req.Profile == nil {
		h.fail(c, common.NewValidationError("profile is required"))
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), *req.Profile, req.ForceRefresh)
	if err != nil {
		h.fail(c, err)
		return
	}

	common.LogInfo("meal plan served",
		zap.String("request_id", requestid.Get(c)),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Bool("repaired", result.Repaired),
	)
	c.JSON(http.StatusOK, result)
}

// HandlePersist 將計畫寫入儲存
func (h *Handler) HandlePersist(c *gin.Context) {
	var req PersistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	var start time.Time
	if s := strings.TrimSpace(req.StartDate); s != "" {
		var err error
		if start, err = time.Parse("2006-01-02", s); err != nil {
			h.fail(c, common.NewValidationError("start_date must be YYYY-MM-DD"))
			return
		}
	}

	result, err := h.plans.Persist(c.Request.Context(), req.UserID, req.MealPlan, start)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// HandleGetPlan 讀取已儲存的計畫
func (h *Handler) HandleGetPlan(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// HandleClearCache 清除快取
func (h *Handler) HandleClearCache(c *gin.Context) {
	var req ClearCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	deleted, err := h.generator.ClearCache(c.Request.Context(), req.Profile)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// HandleCacheStats 快取統計
func (h *Handler) HandleCacheStats(c *gin.Context) {
	stats, err := h.generator.CacheStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) fail(c *gin.Context, err error) {
	ce := common.ToCustomError(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("meal plan request failed", fields...)
	} else {
		common.LogWarn("meal plan request rejected", fields...)
	}

	resp := common.ErrorResponse{Code: ce.Code, Message: ce.Message}
	if h.debug || ce.Status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, resp)
}
