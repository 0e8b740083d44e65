package mealplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mealmind/internal/pkg/common"
)

// 修復時補上的預設值
const (
	DefaultTotalCost = "$50-80"
	DefaultCategory  = "Other"
	DefaultQuantity  = "1 item"
)

// DefaultNutritionalSummary 預設營養摘要
func DefaultNutritionalSummary() map[string]string {
	return map[string]string{
		"protein":  "Adequate",
		"fiber":    "Good",
		"vitamins": "Varied",
	}
}

// DefaultPreparationTips 預設備餐建議
func DefaultPreparationTips() []string {
	return []string{
		"Plan meals in advance",
		"Prep ingredients on weekends",
		"Cook in batches when possible",
	}
}

// Repair 從格式不正確的模型輸出中擷取 JSON 並補齊缺漏欄位
// 不會補造天數或餐點；修復失敗時回傳包裝過的原始解析錯誤
func Repair(raw string, parseErr error) (*Document, error) {
	doc, err := repair(raw)
	if err != nil {
		if parseErr == nil {
			return nil, err
		}
		return nil, fmt.Errorf("unrepairable model output: %w (repair: %w)", parseErr, err)
	}
	return doc, nil
}

func repair(raw string) (*Document, error) {
	body, ok := common.ExtractJSONObject(raw)
	if !ok {
		return nil, errors.New("no JSON object found")
	}

	var data map[string]interface{}
	if err := common.ParseJSON(body, &data); err != nil {
		return nil, fmt.Errorf("decode extracted object: %w", err)
	}

	patchDefaults(data)

	normalized, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("decode patched object: %w", err)
	}
	if err := Validate(&doc, false); err != nil {
		return nil, err
	}
	return &doc, nil
}

// patchDefaults 就地補上頂層與購物項目的預設值
func patchDefaults(data map[string]interface{}) {
	if isBlank(data["total_estimated_cost"]) {
		data["total_estimated_cost"] = DefaultTotalCost
	} else {
		data["total_estimated_cost"] = text(data["total_estimated_cost"])
	}

	if summary, ok := data["nutritional_summary"].(map[string]interface{}); ok {
		for k, v := range summary {
			summary[k] = text(v)
		}
	} else {
		data["nutritional_summary"] = DefaultNutritionalSummary()
	}

	switch tips := data["preparation_tips"].(type) {
	case []interface{}:
		for i, tip := range tips {
			tips[i] = text(tip)
		}
	case string:
		data["preparation_tips"] = []string{tips}
	default:
		data["preparation_tips"] = DefaultPreparationTips()
	}

	if items, ok := data["shopping_list"].([]interface{}); ok {
		for _, entry := range items {
			item, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if isBlank(item["category"]) {
				item["category"] = DefaultCategory
			}
			if isBlank(item["quantity"]) {
				item["quantity"] = DefaultQuantity
			} else {
				item["quantity"] = text(item["quantity"])
			}
			if isBlank(item["estimated_cost"]) {
				item["estimated_cost"] = nil
			} else {
				item["estimated_cost"] = text(item["estimated_cost"])
			}
		}
	}

	if days, ok := data["meal_plan"].([]interface{}); ok {
		for _, entry := range days {
			day, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			for _, slot := range []string{"breakfast", "lunch", "dinner"} {
				if meal, ok := day[slot].(map[string]interface{}); ok {
					patchMeal(meal)
				}
			}
			if snacks, ok := day["snacks"].([]interface{}); ok {
				for _, s := range snacks {
					if meal, ok := s.(map[string]interface{}); ok {
						patchMeal(meal)
					}
				}
			}
		}
	}
}

// patchMeal 將卡路里與烹調時間轉為文件型別
func patchMeal(meal map[string]interface{}) {
	meal["calories"] = calories(meal["calories"])
	if v, ok := meal["cooking_time"]; ok && v != nil {
		meal["cooking_time"] = text(v)
	}
}

func calories(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(math.Round(f))
		}
	case string:
		fields := strings.Fields(t)
		if len(fields) > 0 {
			if n, err := strconv.Atoi(strings.TrimSuffix(fields[0], "kcal")); err == nil {
				return n
			}
		}
	}
	return nil
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func text(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
