package persist

import (
	"context"
	"strings"
	"time"

	"mealmind/internal/core/mealplan"
	"mealmind/internal/pkg/common"

	"go.uber.org/zap"
)

// Result 寫入結果
type Result struct {
	PlanID               string    `json:"plan_id"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RecipesCreated       int       `json:"recipes_created"`
	PlanItemsCreated     int       `json:"plan_items_created"`
	ShoppingItemsCreated int       `json:"shopping_items_created"`
}

// Persister 將產生的計畫寫入正規化儲存；失敗時以補償刪除回復
type Persister struct {
	store Store
	now   func() time.Time
}

// New 創建寫入器
func New(store Store) *Persister {
	return &Persister{store: store, now: time.Now}
}

// written 已寫入、失敗時需刪除的紀錄
type written struct {
	planID        string
	planItems     []string
	shoppingItems []string
}

// Persist 寫入計畫、食譜、計畫項目與購物項目；startDate 為零值時使用今天（UTC）
func (p *Persister) Persist(ctx context.Context, userID string, doc *mealplan.Document, startDate time.Time) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user_id is required")
	}
	if doc == nil || len(doc.MealPlan) == 0 {
		return nil, common.NewValidationError("meal_plan is required")
	}
	if len(doc.MealPlan) > len(mealplan.Weekdays) {
		return nil, common.NewValidationError("meal_plan covers more than one week")
	}

	start := startDate
	if start.IsZero() {
		start = p.now()
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	plan := &MealPlanRecord{
		UserID:    userID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.CreateMealPlan(ctx, plan); err != nil {
		return nil, common.NewPersistenceError("create_meal_plan", common.KindConnectivity, err)
	}

	w := &written{planID: plan.ID}
	result := &Result{PlanID: plan.ID, StartDate: plan.StartDate, EndDate: plan.EndDate}
	recipeIDs := make(map[string]string)

	for i, day := range doc.MealPlan {
		date := start.AddDate(0, 0, mealplan.DayOffset(day.Day, i))
		for _, slot := range day.Slots() {
			recipeID, created, err := p.resolveRecipe(ctx, slot.Meal, recipeIDs)
			if err != nil {
				return nil, p.rollback(ctx, w, "resolve_recipe", err)
			}
			if created {
				result.RecipesCreated++
			}

			item := &PlanItemRecord{
				MealPlanID: plan.ID,
				DayDate:    date,
				MealType:   slot.MealType,
				RecipeID:   recipeID,
			}
			if err := p.store.CreatePlanItem(ctx, item); err != nil {
				return nil, p.rollback(ctx, w, "create_plan_item", err)
			}
			w.planItems = append(w.planItems, item.ID)
			result.PlanItemsCreated++
		}
	}

	for _, entry := range doc.ShoppingList {
		var cost string
		if entry.EstimatedCost != nil {
			cost = *entry.EstimatedCost
		}
		low, high := ParsePriceRange(cost)

		item := &ShoppingItemRecord{
			MealPlanID: plan.ID,
			Category:   entry.Category,
			ItemName:   entry.Item,
			Quantity:   entry.Quantity,
			PriceMin:   low,
			PriceMax:   high,
		}
		if err := p.store.CreateShoppingItem(ctx, item); err != nil {
			return nil, p.rollback(ctx, w, "create_shopping_item", err)
		}
		w.shoppingItems = append(w.shoppingItems, item.ID)
		result.ShoppingItemsCreated++
	}

	common.LogInfo("meal plan persisted",
		zap.String("plan_id", plan.ID),
		zap.String("user_id", userID),
		zap.Int("recipes_created", result.RecipesCreated),
		zap.Int("plan_items", result.PlanItemsCreated),
		zap.Int("shopping_items", result.ShoppingItemsCreated),
	)

	return result, nil
}

// resolveRecipe 依名稱精確比對食譜，找不到則建立
func (p *Persister) resolveRecipe(ctx context.Context, meal mealplan.Meal, ids map[string]string) (string, bool, error) {
	if id, ok := ids[meal.Title]; ok {
		return id, false, nil
	}

	existing, err := p.store.FindRecipeByName(ctx, meal.Title)
	switch {
	case err == nil && existing != nil:
		ids[meal.Title] = existing.ID
		return existing.ID, false, nil
	case err != nil && !common.IsNotFound(err):
		return "", false, err
	}

	recipe := &RecipeRecord{
		Name:            meal.Title,
		Description:     meal.Description,
		CookTimeMinutes: ParseCookTime(meal.CookingTime),
		Calories:        meal.Calories,
		Tags:            meal.DietaryTags,
		Ingredients:     meal.Ingredients,
	}
	if err := p.store.CreateRecipe(ctx, recipe); err != nil {
		return "", false, err
	}
	ids[meal.Title] = recipe.ID
	return recipe.ID, true, nil
}

// rollback 依建立的反向順序刪除：購物項目、計畫項目、計畫；食譜不回復
func (p *Persister) rollback(ctx context.Context, w *written, op string, cause error) error {
	// 呼叫端取消時仍需完成補償刪除
	cleanup := context.WithoutCancel(ctx)

	if len(w.shoppingItems) > 0 {
		if err := p.store.DeleteShoppingItems(cleanup, reversed(w.shoppingItems)); err != nil {
			common.LogError("rollback shopping items failed", zap.String("plan_id", w.planID), zap.Error(err))
		}
	}
	if len(w.planItems) > 0 {
		if err := p.store.DeletePlanItems(cleanup, reversed(w.planItems)); err != nil {
			common.LogError("rollback plan items failed", zap.String("plan_id", w.planID), zap.Error(err))
		}
	}
	if err := p.store.DeleteMealPlan(cleanup, w.planID); err != nil {
		common.LogError("rollback meal plan failed", zap.String("plan_id", w.planID), zap.Error(err))
	}

	common.LogWarn("meal plan persistence rolled back",
		zap.String("plan_id", w.planID),
		zap.String("op", op),
		zap.Int("plan_items", len(w.planItems)),
		zap.Int("shopping_items", len(w.shoppingItems)),
		zap.Error(cause),
	)
	return common.NewPersistenceError(op, common.KindConnectivity, cause)
}

func reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// Get 讀取已儲存的計畫
func (p *Persister) Get(ctx context.Context, id string) (*StoredPlan, error) {
	plan, err := p.store.GetMealPlan(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get_meal_plan", common.KindConnectivity, err)
	}
	return plan, nil
}
