package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"mealmind/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker 依賴健康檢查
type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency 就緒檢查項目；Required 失敗時回傳 503
type Dependency struct {
	Name     string
	Checker  Checker
	Required bool
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理器
type Handler struct {
	version      string
	dependencies []Dependency
	timeout      time.Duration
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, deps ...Dependency) *Handler {
	return &Handler{version: version, dependencies: deps, timeout: 2 * time.Second}
}

// HealthCheck 回報版本與執行期資訊
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	})
}

// ReadinessCheck 檢查各依賴的連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]interface{}, len(h.dependencies))
	for _, dep := range h.dependencies {
		if err := dep.Checker.Ping(ctx); err != nil {
			common.LogWarn("Readiness check failed",
				zap.String("dependency", dep.Name),
				zap.Bool("required", dep.Required),
				zap.Error(err),
			)
			checks[dep.Name] = gin.H{"connected": false, "error": err.Error()}
			if dep.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[dep.Name] = gin.H{"connected": true}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
