package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"mealmind/internal/core/profile"
)

// DefaultNamespace 餐點計畫快取鍵前綴
const DefaultNamespace = "meal_plan"

// DeriveKey 由原始使用者資料計算快取鍵
// encoding/json 依鍵名排序輸出 map，相同語意的資料得到相同鍵
func DeriveKey(raw map[string]interface{}) (string, error) {
	return DeriveNamespacedKey(DefaultNamespace, raw)
}

// DeriveNamespacedKey 以指定前綴計算快取鍵
func DeriveNamespacedKey(namespace string, raw map[string]interface{}) (string, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	sum := md5.Sum(data)
	return namespace + ":" + hex.EncodeToString(sum[:]), nil
}

// KeyForProfile 由 UserProfile 計算快取鍵
func KeyForProfile(p profile.UserProfile) (string, error) {
	return keyForProfile(DefaultNamespace, p)
}

func keyForProfile(namespace string, p profile.UserProfile) (string, error) {
	raw, err := p.Canonical()
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	return DeriveNamespacedKey(namespace, raw)
}
