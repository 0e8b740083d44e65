package persist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mealmind/internal/core/mealplan"
	"mealmind/internal/core/mealplan/mealplantest"
	"mealmind/internal/pkg/common"
)

// memoryStore 記憶體儲存，可在第 N 次建立計畫項目時失敗
type memoryStore struct {
	seq int

	plans         map[string]*MealPlanRecord
	recipes       map[string]*RecipeRecord
	planItems     map[string]*PlanItemRecord
	shoppingItems map[string]*ShoppingItemRecord

	failPlanItemAt int
	failShoppingAt int
	planItemCalls  int
	shoppingCalls  int
	findCalls      int

	deletedPlanItems []string
	deletedShopping  []string
	deletedPlans     []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		plans:         make(map[string]*MealPlanRecord),
		recipes:       make(map[string]*RecipeRecord),
		planItems:     make(map[string]*PlanItemRecord),
		shoppingItems: make(map[string]*ShoppingItemRecord),
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) FindRecipeByName(_ context.Context, name string) (*RecipeRecord, error) {
	m.findCalls++
	for _, r := range m.recipes {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, common.NewPersistenceError("find_recipe", common.KindNotFound, errors.New("no rows"))
}

func (m *memoryStore) CreateRecipe(_ context.Context, r *RecipeRecord) error {
	r.ID = m.nextID("recipe")
	m.recipes[r.ID] = r
	return nil
}

func (m *memoryStore) CreateMealPlan(_ context.Context, p *MealPlanRecord) error {
	p.ID = m.nextID("plan")
	m.plans[p.ID] = p
	return nil
}

func (m *memoryStore) CreatePlanItem(_ context.Context, item *PlanItemRecord) error {
	m.planItemCalls++
	if m.failPlanItemAt > 0 && m.planItemCalls == m.failPlanItemAt {
		return errors.New("disk full")
	}
	item.ID = m.nextID("item")
	m.planItems[item.ID] = item
	return nil
}

func (m *memoryStore) CreateShoppingItem(_ context.Context, item *ShoppingItemRecord) error {
	m.shoppingCalls++
	if m.failShoppingAt > 0 && m.shoppingCalls == m.failShoppingAt {
		return errors.New("connection reset")
	}
	item.ID = m.nextID("shop")
	m.shoppingItems[item.ID] = item
	return nil
}

func (m *memoryStore) DeleteShoppingItems(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.shoppingItems, id)
	}
	m.deletedShopping = append(m.deletedShopping, ids...)
	return nil
}

func (m *memoryStore) DeletePlanItems(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.planItems, id)
	}
	m.deletedPlanItems = append(m.deletedPlanItems, ids...)
	return nil
}

func (m *memoryStore) DeleteMealPlan(_ context.Context, id string) error {
	delete(m.plans, id)
	m.deletedPlans = append(m.deletedPlans, id)
	return nil
}

func (m *memoryStore) GetMealPlan(_ context.Context, id string) (*StoredPlan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, common.NewPersistenceError("get_meal_plan", common.KindNotFound, errors.New("no rows"))
	}
	return &StoredPlan{Plan: *p}, nil
}

func (m *memoryStore) Close() error { return nil }

func TestPersist(t *testing.T) {
	store := newMemoryStore()
	p := New(store)
	doc := mealplantest.Document(true)
	start := time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)

	res, err := p.Persist(context.Background(), "user-1", doc, start)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	if res.PlanItemsCreated != 28 {
		t.Errorf("expected 28 plan items, got %d", res.PlanItemsCreated)
	}
	if res.RecipesCreated != 28 {
		t.Errorf("expected 28 distinct recipes, got %d", res.RecipesCreated)
	}
	if res.ShoppingItemsCreated != 3 {
		t.Errorf("expected 3 shopping items, got %d", res.ShoppingItemsCreated)
	}

	plan := store.plans[res.PlanID]
	wantStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	if !plan.StartDate.Equal(wantStart) || !plan.EndDate.Equal(wantStart.AddDate(0, 0, 6)) {
		t.Errorf("unexpected plan dates %v - %v", plan.StartDate, plan.EndDate)
	}

	types := map[string]int{}
	for _, item := range store.planItems {
		types[item.MealType]++
		if item.MealType == mealplan.MealTypeSnack && item.DayDate.Equal(wantStart.AddDate(0, 0, 6)) {
			recipe := store.recipes[item.RecipeID]
			if recipe.Name != "Sunday snack" {
				t.Errorf("expected Sunday snack on the last day, got %q", recipe.Name)
			}
		}
	}
	for _, mt := range []string{"breakfast", "lunch", "dinner", "snack"} {
		if types[mt] != 7 {
			t.Errorf("expected 7 %s items, got %d", mt, types[mt])
		}
	}

	for _, item := range store.shoppingItems {
		if item.Checked {
			t.Errorf("expected %q unchecked", item.ItemName)
		}
		switch item.ItemName {
		case "Oats":
			if item.PriceMin == nil || *item.PriceMin != 4 || *item.PriceMax != 5 {
				t.Errorf("unexpected oats price %v-%v", item.PriceMin, item.PriceMax)
			}
		case "Apples":
			if item.PriceMin != nil || item.PriceMax != nil {
				t.Error("expected no price for apples")
			}
		}
	}

	for _, r := range store.recipes {
		if r.CookTimeMinutes != 15 {
			t.Errorf("expected 15 minute cook time, got %d", r.CookTimeMinutes)
		}
	}
}

func TestPersistReusesRecipes(t *testing.T) {
	store := newMemoryStore()
	p := New(store)

	doc := mealplantest.Document(false)
	for i := range doc.MealPlan {
		doc.MealPlan[i].Breakfast.Title = "Overnight oats"
	}
	store.recipes["existing"] = &RecipeRecord{ID: "existing", Name: "Monday lunch"}

	res, err := p.Persist(context.Background(), "user-1", doc, time.Time{})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	// 1 份燕麥 + 13 份午晚餐（Monday lunch 已存在）
	if res.RecipesCreated != 14 {
		t.Errorf("expected 14 recipes created, got %d", res.RecipesCreated)
	}
	if res.PlanItemsCreated != 21 {
		t.Errorf("expected 21 plan items, got %d", res.PlanItemsCreated)
	}
	// 同一次寫入中重複的名稱不再查詢
	if store.findCalls != 15 {
		t.Errorf("expected 15 lookups, got %d", store.findCalls)
	}
	for _, item := range store.planItems {
		if item.MealType == mealplan.MealTypeLunch && item.DayDate.Equal(res.StartDate) && item.RecipeID != "existing" {
			t.Errorf("expected existing recipe to be reused, got %q", item.RecipeID)
		}
	}
}

func TestPersistDefaultsStartToToday(t *testing.T) {
	store := newMemoryStore()
	p := New(store)
	p.now = func() time.Time { return time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC) }

	res, err := p.Persist(context.Background(), "u", mealplantest.Document(false), time.Time{})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if want := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC); !res.StartDate.Equal(want) {
		t.Errorf("expected start %v, got %v", want, res.StartDate)
	}
	if want := time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC); !res.EndDate.Equal(want) {
		t.Errorf("expected end %v, got %v", want, res.EndDate)
	}
}

func TestPersistRollsBackPlanItems(t *testing.T) {
	store := newMemoryStore()
	store.failPlanItemAt = 3
	p := New(store)

	_, err := p.Persist(context.Background(), "user-1", mealplantest.Document(false), time.Time{})
	var perr *common.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if perr.Op != "create_plan_item" {
		t.Errorf("unexpected op %q", perr.Op)
	}

	if len(store.deletedPlanItems) != 2 {
		t.Errorf("expected exactly 2 plan items deleted, got %v", store.deletedPlanItems)
	}
	if len(store.deletedPlans) != 1 {
		t.Errorf("expected the plan record deleted, got %v", store.deletedPlans)
	}
	if store.shoppingCalls != 0 || len(store.shoppingItems) != 0 {
		t.Errorf("expected no shopping items, got %d calls", store.shoppingCalls)
	}
	if len(store.plans) != 0 || len(store.planItems) != 0 {
		t.Error("expected no plan rows left behind")
	}
	if len(store.recipes) == 0 {
		t.Error("expected recipes to be kept")
	}
}

func TestPersistRollsBackShoppingItems(t *testing.T) {
	store := newMemoryStore()
	store.failShoppingAt = 2
	p := New(store)

	_, err := p.Persist(context.Background(), "user-1", mealplantest.Document(false), time.Time{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.deletedShopping) != 1 {
		t.Errorf("expected 1 shopping item deleted, got %v", store.deletedShopping)
	}
	if len(store.deletedPlanItems) != 21 {
		t.Errorf("expected 21 plan items deleted, got %d", len(store.deletedPlanItems))
	}
	if len(store.plans) != 0 {
		t.Error("expected plan deleted")
	}
}

func TestPersistDatesFollowWeekdayNames(t *testing.T) {
	store := newMemoryStore()
	p := New(store)

	full := mealplantest.Document(false)
	doc := &mealplan.Document{
		MealPlan:     []mealplan.DayPlan{full.MealPlan[0], full.MealPlan[2]},
		ShoppingList: full.ShoppingList,
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := p.Persist(context.Background(), "user-1", doc, start); err != nil {
		t.Fatalf("persist: %v", err)
	}

	for _, item := range store.planItems {
		name := store.recipes[item.RecipeID].Name
		if name == "Wednesday lunch" && !item.DayDate.Equal(start.AddDate(0, 0, 2)) {
			t.Errorf("expected Wednesday meals on %v, got %v", start.AddDate(0, 0, 2), item.DayDate)
		}
		if item.DayDate.Equal(start.AddDate(0, 0, 1)) {
			t.Errorf("expected nothing on Tuesday, got %q", name)
		}
	}
}

func TestPersistUnnamedDaysUsePosition(t *testing.T) {
	store := newMemoryStore()
	p := New(store)

	doc := mealplantest.Document(false)
	doc.MealPlan[3].Day = "Day 4"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := p.Persist(context.Background(), "user-1", doc, start); err != nil {
		t.Fatalf("persist: %v", err)
	}
	for _, item := range store.planItems {
		if store.recipes[item.RecipeID].Name == "Thursday dinner" && !item.DayDate.Equal(start.AddDate(0, 0, 3)) {
			t.Errorf("expected fourth day on %v, got %v", start.AddDate(0, 0, 3), item.DayDate)
		}
	}
}

func TestPersistValidation(t *testing.T) {
	p := New(newMemoryStore())
	if _, err := p.Persist(context.Background(), "", mealplantest.Document(false), time.Time{}); !common.IsValidationError(err) {
		t.Errorf("expected validation error for missing user, got %v", err)
	}
	if _, err := p.Persist(context.Background(), "u", &mealplan.Document{}, time.Time{}); !common.IsValidationError(err) {
		t.Errorf("expected validation error for empty plan, got %v", err)
	}

	long := mealplantest.Document(false)
	long.MealPlan = append(long.MealPlan, long.MealPlan[0], long.MealPlan[1])
	if _, err := p.Persist(context.Background(), "u", long, time.Time{}); !common.IsValidationError(err) {
		t.Errorf("expected validation error for a nine day plan, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	p := New(newMemoryStore())
	_, err := p.Get(context.Background(), "missing")
	if !common.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
