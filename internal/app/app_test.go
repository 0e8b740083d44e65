package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 150 * time.Second},
		LLM: config.LLMConfig{
			APIKey:    "sk-test",
			BaseURL:   "http://127.0.0.1:1",
			Model:     "gpt-4o",
			MaxTokens: 4000,
			Timeout:   90 * time.Second,
		},
		Redis:   config.RedisConfig{URL: "redis://127.0.0.1:1"},
		Cache:   config.CacheConfig{Enabled: false},
		Storage: config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if got := a.LLM.GetTimeout(); got != 90*time.Second {
		t.Errorf("expected llm timeout 90s, got %v", got)
	}
	if got := a.LLM.GetModel(); got != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", got)
	}
	if a.Cache.Enabled() {
		t.Error("expected cache disabled")
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.StorageConfig{Driver: "mongo"})
	var cerr *common.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cerr.Setting != "STORAGE_DRIVER" {
		t.Errorf("unexpected setting %q", cerr.Setting)
	}
}

func TestLLMOutlivesRequest(t *testing.T) {
	tests := []struct {
		request, llm time.Duration
		want         bool
	}{
		{150 * time.Second, 120 * time.Second, false},
		{60 * time.Second, 120 * time.Second, true},
		{120 * time.Second, 120 * time.Second, true},
		{0, 120 * time.Second, false},
		{60 * time.Second, 0, false},
	}
	for _, tt := range tests {
		if got := llmOutlivesRequest(tt.request, tt.llm); got != tt.want {
			t.Errorf("llmOutlivesRequest(%v, %v): expected %v, got %v", tt.request, tt.llm, tt.want, got)
		}
	}
}
