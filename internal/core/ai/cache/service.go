package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"mealmind/internal/core/mealplan"
	"mealmind/internal/core/profile"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheType = "meal_plan"
	scanCount = 100
)

var (
	// ErrDisabled 快取已由設定關閉
	ErrDisabled = errors.New("cache is disabled")
	// ErrDegraded 先前連線失敗，快取暫停使用
	ErrDegraded = errors.New("cache is degraded after a connection failure")
)

// Entry 快取內容
type Entry struct {
	MealPlan  *mealplan.Document `json:"meal_plan"`
	Timestamp time.Time          `json:"timestamp"`
	CacheKey  string             `json:"cache_key"`
}

// Stats 快取統計
type Stats struct {
	TotalEntries   int64      `json:"total_entries"`
	SampledEntries int        `json:"sampled_entries"`
	TotalSizeMB    float64    `json:"total_size_mb"`
	OldestEntry    *time.Time `json:"oldest_entry"`
	NewestEntry    *time.Time `json:"newest_entry"`
	Connected      bool       `json:"redis_connected"`
}

// Service Redis 快取服務，首次使用時才建立連線
type Service struct {
	config *config.CacheConfig
	client *redis.Client
	now    func() time.Time

	mu       sync.Mutex
	verified bool
	degraded bool
	failedAt time.Time
}

// NewService 創建緩存服務
func NewService(cfg *config.CacheConfig, redisCfg *config.RedisConfig) (*Service, error) {
	s := &Service{config: cfg, now: time.Now}
	if !cfg.Enabled {
		common.LogInfo("cache disabled")
		return s, nil
	}

	opts, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if redisCfg.DialTimeout > 0 {
		opts.DialTimeout = redisCfg.DialTimeout
	}
	s.client = redis.NewClient(opts)

	return s, nil
}

// Namespace 快取鍵前綴
func (s *Service) Namespace() string {
	if s.config.Namespace == "" {
		return DefaultNamespace
	}
	return s.config.Namespace
}

// KeyForProfile 以服務的前綴計算快取鍵
func (s *Service) KeyForProfile(p profile.UserProfile) (string, error) {
	return keyForProfile(s.Namespace(), p)
}

// Enabled 是否啟用
func (s *Service) Enabled() bool {
	return s.config.Enabled && s.client != nil
}

// Connected 最近一次連線是否成功
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified && !s.degraded
}

// Connect 建立並驗證連線
func (s *Service) Connect(ctx context.Context) error {
	if _, err := s.acquire(ctx); err != nil {
		return &common.CacheUnavailableError{Op: "connect", Err: err}
	}
	return nil
}

// Reconnect 清除降級狀態後重新連線
func (s *Service) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.degraded = false
	s.verified = false
	s.mu.Unlock()

	return s.Connect(ctx)
}

// Ping 檢查連線；降級期間不會觸發重試
func (s *Service) Ping(ctx context.Context) error {
	client, err := s.acquire(ctx)
	if err != nil {
		return &common.CacheUnavailableError{Op: "ping", Err: err}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		s.fail("ping", err)
		return &common.CacheUnavailableError{Op: "ping", Err: err}
	}
	return nil
}

// Close 關閉連線
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	s.mu.Lock()
	s.verified = false
	s.mu.Unlock()
	return s.client.Close()
}

// acquire 回傳可用的客戶端；鎖只保護狀態欄位，Ping 在鎖外執行
func (s *Service) acquire(ctx context.Context) (*redis.Client, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	s.mu.Lock()
	if s.degraded {
		interval := s.config.ReconnectInterval
		if interval <= 0 || s.now().Sub(s.failedAt) < interval {
			s.mu.Unlock()
			return nil, ErrDegraded
		}
		s.degraded = false
	}
	verified := s.verified
	s.mu.Unlock()

	if verified {
		return s.client, nil
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		s.fail("connect", err)
		return nil, err
	}

	s.mu.Lock()
	s.verified = true
	s.mu.Unlock()
	common.LogInfo("connected to redis", zap.String("namespace", s.Namespace()))

	return s.client, nil
}

// fail 連線類錯誤使服務降級；伺服器回覆的錯誤與呼叫端取消不影響狀態
func (s *Service) fail(op string, err error) {
	if !isConnectivityError(err) {
		return
	}

	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.verified = false
	s.failedAt = s.now()
	s.mu.Unlock()

	if !already {
		common.LogWarn("redis unavailable, falling back to no caching",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func isConnectivityError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return false
	}
	return true
}

// Get 獲取緩存；任何失敗都視為未命中
func (s *Service) Get(ctx context.Context, key string) (*Entry, bool) {
	client, err := s.acquire(ctx)
	if err != nil {
		return nil, false
	}

	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss(cacheType, key)
		} else {
			s.fail("get", err)
			common.LogError("redis cache retrieval error", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.MealPlan == nil {
		common.LogWarn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(entry.MealPlan.MealPlan) == 0 {
		common.LogWarn("discarding empty cache entry", zap.String("key", key))
		return nil, false
	}

	common.LogCacheHit(cacheType, key)
	return &entry, true
}

// Set 設置緩存；ttl 非正數時使用設定值
func (s *Service) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) bool {
	client, err := s.acquire(ctx)
	if err != nil {
		return false
	}
	if ttl <= 0 {
		ttl = s.config.TTL
	}

	if entry.CacheKey == "" {
		entry.CacheKey = key
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		common.LogError("failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.fail("set", err)
		common.LogError("redis cache storage error", zap.String("key", key), zap.Error(err))
		return false
	}

	common.LogInfo("cached meal plan", zap.String("key", Preview(key)), zap.Duration("ttl", ttl))
	return true
}

// Delete 刪除單一鍵
func (s *Service) Delete(ctx context.Context, key string) (int64, error) {
	client, err := s.acquire(ctx)
	if err != nil {
		return 0, &common.CacheUnavailableError{Op: "delete", Err: err}
	}

	n, err := client.Del(ctx, key).Result()
	if err != nil {
		s.fail("delete", err)
		return 0, &common.CacheUnavailableError{Op: "delete", Err: err}
	}
	return n, nil
}

// DeleteMatching 以 SCAN 找出符合的鍵並分批刪除；pattern 為空時刪除整個前綴
func (s *Service) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	client, err := s.acquire(ctx)
	if err != nil {
		return 0, &common.CacheUnavailableError{Op: "delete_matching", Err: err}
	}
	if pattern == "" {
		pattern = s.Namespace() + ":*"
	}

	// SCAN 進行中不可刪除，否則游標會跳過部分鍵
	var (
		matched []string
		cursor  uint64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			s.fail("scan", err)
			return 0, &common.CacheUnavailableError{Op: "delete_matching", Err: err}
		}
		matched = append(matched, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	var deleted int64
	for start := 0; start < len(matched); start += scanCount {
		end := start + scanCount
		if end > len(matched) {
			end = len(matched)
		}
		n, err := client.Del(ctx, matched[start:end]...).Result()
		if err != nil {
			s.fail("delete", err)
			return deleted, &common.CacheUnavailableError{Op: "delete_matching", Err: err}
		}
		deleted += n
	}

	common.LogInfo("cleared meal plan cache entries", zap.String("pattern", pattern), zap.Int64("deleted", deleted))
	return deleted, nil
}

// Stats 統計快取：完整計算鍵數，抽樣讀取內容計算大小與時間範圍
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	client, err := s.acquire(ctx)
	if err != nil {
		return nil, &common.CacheUnavailableError{Op: "stats", Err: err}
	}

	limit := s.config.StatsSampleLimit
	if limit <= 0 {
		limit = 100
	}

	var (
		total  int64
		sample []string
		cursor uint64
	)
	pattern := s.Namespace() + ":*"
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			s.fail("scan", err)
			return nil, &common.CacheUnavailableError{Op: "stats", Err: err}
		}
		total += int64(len(keys))
		for _, k := range keys {
			if len(sample) < limit {
				sample = append(sample, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	stats := &Stats{TotalEntries: total, Connected: true}
	if len(sample) == 0 {
		return stats, nil
	}

	values, err := client.MGet(ctx, sample...).Result()
	if err != nil {
		s.fail("mget", err)
		return nil, &common.CacheUnavailableError{Op: "stats", Err: err}
	}

	var size int
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		size += len(data)
		stats.SampledEntries++

		ts, ok := entryTimestamp(data)
		if !ok {
			continue
		}
		if stats.OldestEntry == nil || ts.Before(*stats.OldestEntry) {
			t := ts
			stats.OldestEntry = &t
		}
		if stats.NewestEntry == nil || ts.After(*stats.NewestEntry) {
			t := ts
			stats.NewestEntry = &t
		}
	}
	stats.TotalSizeMB = math.Round(float64(size)/(1024*1024)*100) / 100

	return stats, nil
}

// 舊資料可能是不含時區的 ISO 格式
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

func entryTimestamp(data string) (time.Time, bool) {
	var meta struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(data), &meta); err != nil || meta.Timestamp == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, meta.Timestamp); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// Preview 截短快取鍵供日誌使用
func Preview(key string) string {
	return common.Preview(key, 20)
}
