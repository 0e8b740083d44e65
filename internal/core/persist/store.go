package persist

import (
	"context"
	"time"
)

// MealPlanRecord 已儲存的餐點計畫
type MealPlanRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// RecipeRecord 共用食譜，依名稱重複使用
type RecipeRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CookTimeMinutes int      `json:"cook_time_minutes"`
	Calories        *int     `json:"calories"`
	Tags            []string `json:"tags"`
	Ingredients     []string `json:"ingredients"`
}

// PlanItemRecord 計畫中某天某餐別對應的食譜
type PlanItemRecord struct {
	ID         string    `json:"id"`
	MealPlanID string    `json:"meal_plan_id"`
	DayDate    time.Time `json:"day_date"`
	MealType   string    `json:"meal_type"`
	RecipeID   string    `json:"recipe_id"`
}

// ShoppingItemRecord 購物清單項目
type ShoppingItemRecord struct {
	ID         string   `json:"id"`
	MealPlanID string   `json:"meal_plan_id"`
	Category   string   `json:"category"`
	ItemName   string   `json:"item_name"`
	Quantity   string   `json:"quantity"`
	PriceMin   *float64 `json:"price_min"`
	PriceMax   *float64 `json:"price_max"`
	Checked    bool     `json:"checked"`
}

// StoredPlan 計畫與其擁有的項目
type StoredPlan struct {
	Plan          MealPlanRecord       `json:"plan"`
	Items         []PlanItemRecord     `json:"items"`
	ShoppingItems []ShoppingItemRecord `json:"shopping_items"`
}

// Store 持久化儲存介面；Create 系列在 ID 為空時產生 ID
// 找不到資料時回傳 Kind 為 not_found 的 common.PersistenceError
type Store interface {
	FindRecipeByName(ctx context.Context, name string) (*RecipeRecord, error)
	CreateRecipe(ctx context.Context, r *RecipeRecord) error
	CreateMealPlan(ctx context.Context, p *MealPlanRecord) error
	CreatePlanItem(ctx context.Context, item *PlanItemRecord) error
	CreateShoppingItem(ctx context.Context, item *ShoppingItemRecord) error
	DeleteShoppingItems(ctx context.Context, ids []string) error
	DeletePlanItems(ctx context.Context, ids []string) error
	DeleteMealPlan(ctx context.Context, id string) error
	GetMealPlan(ctx context.Context, id string) (*StoredPlan, error)
	Close() error
}
