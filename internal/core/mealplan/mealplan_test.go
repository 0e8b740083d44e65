package mealplan_test

import (
	"errors"
	"strings"
	"testing"

	"mealmind/internal/core/mealplan"
	"mealmind/internal/core/mealplan/mealplantest"
)

func TestParseValidDocument(t *testing.T) {
	raw := mealplantest.JSON(mealplantest.Document(true))

	doc, err := mealplan.Parse("  \n" + raw + "\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.MealPlan) != 7 {
		t.Fatalf("expected 7 days, got %d", len(doc.MealPlan))
	}
	if doc.MealPlan[0].Day != "Monday" || doc.MealPlan[6].Day != "Sunday" {
		t.Errorf("unexpected day order %q..%q", doc.MealPlan[0].Day, doc.MealPlan[6].Day)
	}
	if got := len(doc.MealPlan[3].Slots()); got != 4 {
		t.Errorf("expected 4 slots with snacks, got %d", got)
	}
}

func TestParseRejects(t *testing.T) {
	valid := mealplantest.Document(false)

	sixDays := mealplantest.Document(false)
	sixDays.MealPlan = sixDays.MealPlan[:6]

	shuffled := mealplantest.Document(false)
	shuffled.MealPlan[0], shuffled.MealPlan[1] = shuffled.MealPlan[1], shuffled.MealPlan[0]

	noCategory := mealplantest.Document(false)
	noCategory.ShoppingList[0].Category = ""

	noIngredients := mealplantest.Document(false)
	noIngredients.MealPlan[2].Lunch.Ingredients = nil

	tests := []struct {
		name string
		raw  string
	}{
		{"prose prefix", "Here is your plan: " + mealplantest.JSON(valid)},
		{"fenced", "```json\n" + mealplantest.JSON(valid) + "\n```"},
		{"missing key", strings.Replace(mealplantest.JSON(valid), `"preparation_tips"`, `"tips"`, 1)},
		{"six days", mealplantest.JSON(sixDays)},
		{"wrong order", mealplantest.JSON(shuffled)},
		{"missing category", mealplantest.JSON(noCategory)},
		{"meal without ingredients", mealplantest.JSON(noIngredients)},
		{"not json", "I cannot help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mealplan.Parse(tt.raw)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !errors.Is(err, mealplan.ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestRepairExtractsEmbeddedObject(t *testing.T) {
	raw := "Sure! Here is the plan:\n```json\n" + mealplantest.JSON(mealplantest.Document(false)) + "\n```\nEnjoy."

	doc, err := mealplan.Repair(raw, errors.New("parse failed"))
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if len(doc.MealPlan) != 7 {
		t.Errorf("expected 7 days, got %d", len(doc.MealPlan))
	}
	if doc.MealPlan[0].Snacks != nil {
		t.Error("expected snacks to stay null")
	}
}

func TestRepairPatchesDefaults(t *testing.T) {
	raw := `{
		"meal_plan": [
			{"day": "Tuesday", "date": "2024-01-02", "breakfast": {"title": "Toast", "ingredients": ["bread"], "calories": 250.6, "cooking_time": 5}},
			{"day": "Monday", "date": "2024-01-01", "dinner": {"title": "Soup", "ingredients": ["leek"], "calories": "300 kcal"}}
		],
		"shopping_list": [
			{"item": "Bread"},
			{"item": "Leek", "quantity": 2, "category": "Produce", "estimated_cost": "$3"}
		]
	}`

	doc, err := mealplan.Repair(raw, errors.New("missing keys"))
	if err != nil {
		t.Fatalf("repair: %v", err)
	}

	if doc.TotalEstimatedCost == nil || *doc.TotalEstimatedCost != mealplan.DefaultTotalCost {
		t.Errorf("expected default total cost, got %v", doc.TotalEstimatedCost)
	}
	if doc.NutritionalSummary["protein"] != "Adequate" || doc.NutritionalSummary["fiber"] != "Good" || doc.NutritionalSummary["vitamins"] != "Varied" {
		t.Errorf("unexpected nutritional summary %v", doc.NutritionalSummary)
	}
	if len(doc.PreparationTips) != 3 || doc.PreparationTips[0] != "Plan meals in advance" {
		t.Errorf("unexpected tips %v", doc.PreparationTips)
	}

	bread := doc.ShoppingList[0]
	if bread.Category != "Other" || bread.Quantity != "1 item" || bread.EstimatedCost != nil {
		t.Errorf("unexpected patched item %+v", bread)
	}
	leek := doc.ShoppingList[1]
	if leek.Quantity != "2" || leek.Category != "Produce" || leek.EstimatedCost == nil || *leek.EstimatedCost != "$3" {
		t.Errorf("expected provided fields kept, got %+v", leek)
	}

	// 保持原本順序，不補天數
	if len(doc.MealPlan) != 2 || doc.MealPlan[0].Day != "Tuesday" {
		t.Errorf("expected days kept as given, got %d days starting %q", len(doc.MealPlan), doc.MealPlan[0].Day)
	}
	if c := doc.MealPlan[0].Breakfast.Calories; c == nil || *c != 251 {
		t.Errorf("expected rounded calories 251, got %v", c)
	}
	if doc.MealPlan[0].Breakfast.CookingTime != "5" {
		t.Errorf("expected cooking time as text, got %q", doc.MealPlan[0].Breakfast.CookingTime)
	}
	if c := doc.MealPlan[1].Dinner.Calories; c == nil || *c != 300 {
		t.Errorf("expected calories 300, got %v", c)
	}
}

func TestRepairFailures(t *testing.T) {
	parseErr := errors.New("original parse error")

	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "no json here"},
		{"broken json", `{"meal_plan": [`},
		{"invalid json between braces", `prefix {"meal_plan": [} suffix`},
		{"empty meal plan", `{"meal_plan": [], "shopping_list": [{"item": "x"}]}`},
		{"empty shopping list", `{"meal_plan": [{"day": "Monday", "lunch": {"title": "A", "ingredients": ["b"]}}], "shopping_list": []}`},
		{"more than seven days", `{"meal_plan": [` + strings.Repeat(`{"day": "X", "lunch": {"title": "A", "ingredients": ["b"]}},`, 8) + `{"day": "X", "lunch": {"title": "A", "ingredients": ["b"]}}], "shopping_list": [{"item": "x"}]}`},
		{"meal without title", `{"meal_plan": [{"day": "Monday", "lunch": {"title": "", "ingredients": ["b"]}}], "shopping_list": [{"item": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mealplan.Repair(tt.raw, parseErr)
			if err == nil {
				t.Fatal("expected repair error")
			}
			if !errors.Is(err, parseErr) {
				t.Errorf("expected original parse error to be wrapped, got %v", err)
			}
		})
	}
}

func TestDayOffset(t *testing.T) {
	tests := []struct {
		day      string
		position int
		want     int
	}{
		{"Monday", 3, 0},
		{" wednesday ", 1, 2},
		{"SUNDAY", 0, 6},
		{"Day 5", 4, 4},
		{"", 2, 2},
	}
	for _, tt := range tests {
		if got := mealplan.DayOffset(tt.day, tt.position); got != tt.want {
			t.Errorf("DayOffset(%q, %d): expected %d, got %d", tt.day, tt.position, tt.want, got)
		}
	}
}
