package mealplan

import "strings"

// Weekdays 餐點計畫必須依序涵蓋的七天
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayOffset 回傳該天相對於週一的天數；名稱不是星期時使用其在清單中的位置
func DayOffset(day string, position int) int {
	name := strings.TrimSpace(day)
	for i, w := range Weekdays {
		if strings.EqualFold(name, w) {
			return i
		}
	}
	return position
}

// 餐別
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
	MealTypeSnack     = "snack"
)

// Meal 單一餐點
type Meal struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	CookingTime string   `json:"cooking_time"`
	Calories    *int     `json:"calories"`
	DietaryTags []string `json:"dietary_tags"`
}

// DayPlan 一天的餐點；未要求的餐別為 null
type DayPlan struct {
	Day       string `json:"day"`
	Date      string `json:"date"`
	Breakfast *Meal  `json:"breakfast"`
	Lunch     *Meal  `json:"lunch"`
	Dinner    *Meal  `json:"dinner"`
	Snacks    []Meal `json:"snacks"`
}

// Slot 一個餐別與其餐點
type Slot struct {
	MealType string
	Meal     Meal
}

// Slots 依早餐、午餐、晚餐、點心順序回傳當天存在的餐點
func (d DayPlan) Slots() []Slot {
	var slots []Slot
	if d.Breakfast != nil {
		slots = append(slots, Slot{MealType: MealTypeBreakfast, Meal: *d.Breakfast})
	}
	if d.Lunch != nil {
		slots = append(slots, Slot{MealType: MealTypeLunch, Meal: *d.Lunch})
	}
	if d.Dinner != nil {
		slots = append(slots, Slot{MealType: MealTypeDinner, Meal: *d.Dinner})
	}
	for _, snack := range d.Snacks {
		slots = append(slots, Slot{MealType: MealTypeSnack, Meal: snack})
	}
	return slots
}

// ShoppingItem 購物清單項目
type ShoppingItem struct {
	Item          string  `json:"item"`
	Quantity      string  `json:"quantity"`
	Category      string  `json:"category"`
	EstimatedCost *string `json:"estimated_cost"`
}

// Document 七日餐點計畫與購物清單
type Document struct {
	MealPlan           []DayPlan         `json:"meal_plan"`
	ShoppingList       []ShoppingItem    `json:"shopping_list"`
	TotalEstimatedCost *string           `json:"total_estimated_cost"`
	NutritionalSummary map[string]string `json:"nutritional_summary"`
	PreparationTips    []string          `json:"preparation_tips"`
}

// requiredKeys 嚴格解析時頂層必須出現的欄位
var requiredKeys = []string{
	"meal_plan",
	"shopping_list",
	"total_estimated_cost",
	"nutritional_summary",
	"preparation_tips",
}
