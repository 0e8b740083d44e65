package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mealmind/internal/core/ai/provider"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"
)

func testConfig(url, key string) *config.LLMConfig {
	return &config.LLMConfig{
		APIKey:      key,
		BaseURL:     url,
		Model:       "gpt-4o",
		MaxTokens:   4000,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}
}

func TestGenerateSendsRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","model":"gpt-4o-2024","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL+"/", "sk-test"))
	resp, err := c.Generate(context.Background(), &provider.Request{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: "plan"}},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", got.Model)
	}
	if got.MaxTokens != 4000 {
		t.Errorf("expected max_tokens 4000, got %d", got.MaxTokens)
	}
	if got.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "plan" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Model != "gpt-4o-2024" || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected response metadata %+v", resp)
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, ""))
	_, err := c.Generate(context.Background(), &provider.Request{})

	var cfgErr *common.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Setting != APIKeySetting {
		t.Errorf("expected setting %q, got %q", APIKeySetting, cfgErr.Setting)
	}
	if called {
		t.Error("expected no request without an API key")
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`},
		{"empty choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(testConfig(srv.URL, "sk-test"))
			if _, err := c.Generate(context.Background(), &provider.Request{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
