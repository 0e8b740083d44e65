package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToCustomError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", NewValidationError("user_id is required"), http.StatusBadRequest, ErrCodeInvalidRequest},
		{"configuration", &ConfigurationError{Setting: "OPENAI_API_KEY"}, http.StatusInternalServerError, ErrCodeConfiguration},
		{"generation", &GenerationError{Stage: StageLLM, Err: errors.New("timeout")}, http.StatusBadGateway, ErrCodeGeneration},
		{"wrapped generation", fmt.Errorf("generate: %w", &GenerationError{Stage: StageParse}), http.StatusBadGateway, ErrCodeGeneration},
		{"persistence", NewPersistenceError("create_plan_item", KindConnectivity, errors.New("reset")), http.StatusInternalServerError, ErrCodePersistence},
		{"not found", NewPersistenceError("get_meal_plan", KindNotFound, errors.New("no rows")), http.StatusNotFound, ErrCodeNotFound},
		{"cache", &CacheUnavailableError{Op: "stats"}, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ToCustomError(tt.err)
			if ce.Status != tt.status || ce.Code != tt.code {
				t.Errorf("expected %d %s, got %d %s", tt.status, tt.code, ce.Status, ce.Code)
			}
		})
	}
}

func TestNewPersistenceErrorKeepsKind(t *testing.T) {
	inner := NewPersistenceError("find_recipe", KindNotFound, errors.New("no rows"))
	outer := NewPersistenceError("get_meal_plan", KindConnectivity, inner)
	if outer.Kind != KindNotFound || !IsNotFound(outer) {
		t.Errorf("expected inner kind kept, got %s", outer.Kind)
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := ExtractJSONObject("Here you go:\n```json\n{\"a\":{\"b\":1}}\n```")
	if !ok || got != `{"a":{"b":1}}` {
		t.Errorf("unexpected extraction %q %v", got, ok)
	}
	if _, ok := ExtractJSONObject("no braces"); ok {
		t.Error("expected no object")
	}
}
