package mealplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mealmind/internal/pkg/common"
)

// ErrInvalidDocument 文件結構不符合餐點計畫格式
var ErrInvalidDocument = errors.New("invalid meal plan document")

// Parse 嚴格解析模型輸出：整段文字必須是單一 JSON 物件
func Parse(raw string) (*Document, error) {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "{") {
		return nil, fmt.Errorf("%w: output is not a JSON object", ErrInvalidDocument)
	}

	var keys map[string]json.RawMessage
	if err := common.ParseJSON(text, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidDocument, key)
		}
	}

	var doc Document
	if err := common.ParseJSON(text, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := Validate(&doc, true); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate 檢查文件結構；strict 時另要求七天依序與完整的購物項目
func Validate(doc *Document, strict bool) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	if len(doc.MealPlan) == 0 {
		return fmt.Errorf("%w: meal_plan is empty", ErrInvalidDocument)
	}
	if len(doc.ShoppingList) == 0 {
		return fmt.Errorf("%w: shopping_list is empty", ErrInvalidDocument)
	}
	if len(doc.MealPlan) > len(Weekdays) {
		return fmt.Errorf("%w: expected at most %d days, got %d", ErrInvalidDocument, len(Weekdays), len(doc.MealPlan))
	}

	if strict {
		if len(doc.MealPlan) != len(Weekdays) {
			return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidDocument, len(Weekdays), len(doc.MealPlan))
		}
		for i, day := range doc.MealPlan {
			if !strings.EqualFold(strings.TrimSpace(day.Day), Weekdays[i]) {
				return fmt.Errorf("%w: day %d is %q, expected %s", ErrInvalidDocument, i+1, day.Day, Weekdays[i])
			}
		}
	}

	for i, day := range doc.MealPlan {
		for _, slot := range day.Slots() {
			if err := validateMeal(slot.Meal); err != nil {
				return fmt.Errorf("%w: day %d %s: %v", ErrInvalidDocument, i+1, slot.MealType, err)
			}
		}
	}

	for i, item := range doc.ShoppingList {
		if strings.TrimSpace(item.Item) == "" {
			return fmt.Errorf("%w: shopping item %d has no name", ErrInvalidDocument, i+1)
		}
		if strict && (strings.TrimSpace(item.Quantity) == "" || strings.TrimSpace(item.Category) == "") {
			return fmt.Errorf("%w: shopping item %q is missing quantity or category", ErrInvalidDocument, item.Item)
		}
	}

	return nil
}

func validateMeal(m Meal) error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("meal has no title")
	}
	if len(m.Ingredients) == 0 {
		return fmt.Errorf("meal %q has no ingredients", m.Title)
	}
	return nil
}
