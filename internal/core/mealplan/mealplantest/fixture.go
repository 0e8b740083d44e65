// Package mealplantest 提供測試用的餐點計畫文件
package mealplantest

import (
	"encoding/json"
	"fmt"

	"mealmind/internal/core/mealplan"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func meal(day, slot string) *mealplan.Meal {
	return &mealplan.Meal{
		Title:       fmt.Sprintf("%s %s", day, slot),
		Description: "A balanced plate",
		Ingredients: []string{"oats", "milk"},
		CookingTime: "15 minutes",
		Calories:    intPtr(400),
		DietaryTags: []string{"vegetarian"},
	}
}

// Document 建立七日完整文件；snacks 為 false 時點心為 null
func Document(snacks bool) *mealplan.Document {
	doc := &mealplan.Document{
		ShoppingList: []mealplan.ShoppingItem{
			{Item: "Oats", Quantity: "1 lb", Category: "Pantry", EstimatedCost: strPtr("$4-5")},
			{Item: "Milk", Quantity: "1 gallon", Category: "Dairy", EstimatedCost: strPtr("$7")},
			{Item: "Apples", Quantity: "6", Category: "Produce", EstimatedCost: strPtr("free")},
		},
		TotalEstimatedCost: strPtr("$60-75"),
		NutritionalSummary: map[string]string{"protein": "High"},
		PreparationTips:    []string{"Soak oats overnight"},
	}
	for i, day := range mealplan.Weekdays {
		d := mealplan.DayPlan{
			Day:       day,
			Date:      fmt.Sprintf("2024-01-%02d", i+1),
			Breakfast: meal(day, "breakfast"),
			Lunch:     meal(day, "lunch"),
			Dinner:    meal(day, "dinner"),
		}
		if snacks {
			d.Snacks = []mealplan.Meal{*meal(day, "snack")}
		}
		doc.MealPlan = append(doc.MealPlan, d)
	}
	return doc
}

// JSON 將文件編碼為模型輸出格式
func JSON(doc *mealplan.Document) string {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}
