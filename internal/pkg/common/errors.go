package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrorKind 儲存層錯誤分類
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConnectivity ErrorKind = "connectivity"
	KindSchema       ErrorKind = "schema"
)

// ConfigurationError 缺少必要的外部憑證或設定
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required setting: %s", e.Setting)
}

// CacheUnavailableError 快取後端無法連線
type CacheUnavailableError struct {
	Op  string
	Err error
}

func (e *CacheUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache unavailable during %s", e.Op)
	}
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Err
}

// 產生階段
const (
	StageLLM   = "llm"
	StageParse = "parse"
)

// GenerationError LLM 呼叫失敗或輸出無法修復
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate meal plan (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError 儲存層寫入或讀取失敗
type PersistenceError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError 建立儲存層錯誤；若 err 已是 PersistenceError 則沿用其分類
func NewPersistenceError(op string, kind ErrorKind, err error) *PersistenceError {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		kind = pe.Kind
	}
	return &PersistenceError{Op: op, Kind: kind, Err: err}
}

// IsNotFound 檢查錯誤是否為找不到資料
func IsNotFound(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Kind == KindNotFound
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeConfiguration      = "CONFIGURATION_ERROR" // 500
	ErrCodePersistence        = "PERSISTENCE_ERROR"   // 500
	ErrCodeGeneration         = "GENERATION_ERROR"    // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// ToCustomError 將領域錯誤轉換為帶 HTTP 狀態的錯誤
func ToCustomError(err error) *CustomError {
	var (
		custom  *CustomError
		cfgErr  *ConfigurationError
		genErr  *GenerationError
		perErr  *PersistenceError
		cacheEr *CacheUnavailableError
	)
	switch {
	case errors.As(err, &custom):
		return custom
	case IsValidationError(err):
		return NewError(ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
	case errors.As(err, &cfgErr):
		return NewError(ErrCodeConfiguration, "meal planner is not configured", http.StatusInternalServerError, err)
	case errors.As(err, &genErr):
		return NewError(ErrCodeGeneration, "failed to generate meal plan", http.StatusBadGateway, err)
	case errors.As(err, &perErr):
		if perErr.Kind == KindNotFound {
			return NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, err)
		}
		return NewError(ErrCodePersistence, "failed to store meal plan", http.StatusInternalServerError, err)
	case errors.As(err, &cacheEr):
		return NewError(ErrCodeServiceUnavailable, "cache not available", http.StatusServiceUnavailable, err)
	default:
		return NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, err)
	}
}
