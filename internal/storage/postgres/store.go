package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealmind/internal/core/persist"
	"mealmind/internal/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Store PostgreSQL 實作的 persist.Store
type Store struct {
	pool *pgxpool.Pool
}

var _ persist.Store = (*Store)(nil)

// Open 建立連線池並套用 schema
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recipes (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			cook_time_minutes INTEGER NOT NULL DEFAULT 0,
			calories          INTEGER,
			tags              TEXT[] NOT NULL DEFAULT '{}',
			ingredients       TEXT[] NOT NULL DEFAULT '{}',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);

		CREATE TABLE IF NOT EXISTS meal_plans (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_meal_plans_user ON meal_plans(user_id);

		CREATE TABLE IF NOT EXISTS meal_plan_items (
			id           TEXT PRIMARY KEY,
			meal_plan_id TEXT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
			day_date     DATE NOT NULL,
			meal_type    VARCHAR(20) NOT NULL CHECK (meal_type IN ('breakfast', 'lunch', 'dinner', 'snack')),
			recipe_id    TEXT NOT NULL REFERENCES recipes(id)
		);
		CREATE INDEX IF NOT EXISTS idx_plan_items_plan ON meal_plan_items(meal_plan_id);

		CREATE TABLE IF NOT EXISTS shopping_items (
			id           TEXT PRIMARY KEY,
			meal_plan_id TEXT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
			category     TEXT NOT NULL DEFAULT '',
			item_name    TEXT NOT NULL,
			quantity     TEXT NOT NULL DEFAULT '',
			price_min    NUMERIC(10,2),
			price_max    NUMERIC(10,2),
			checked      BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_shopping_items_plan ON shopping_items(meal_plan_id);
	`)
	return err
}

func newID() string {
	return ulid.Make().String()
}

// classify 依 SQLSTATE 將錯誤分類
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NewPersistenceError(op, common.KindNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "23", "42":
			// 23 integrity constraint, 42 syntax/undefined object
			return common.NewPersistenceError(op, common.KindSchema, err)
		}
	}
	return common.NewPersistenceError(op, common.KindConnectivity, err)
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// FindRecipeByName 依名稱精確比對
func (s *Store) FindRecipeByName(ctx context.Context, name string) (*persist.RecipeRecord, error) {
	var r persist.RecipeRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, cook_time_minutes, calories, tags, ingredients
		 FROM recipes WHERE name = $1 ORDER BY created_at, id LIMIT 1`, name).
		Scan(&r.ID, &r.Name, &r.Description, &r.CookTimeMinutes, &r.Calories, &r.Tags, &r.Ingredients)
	if err != nil {
		return nil, classify("find_recipe", err)
	}
	return &r, nil
}

// CreateRecipe 建立食譜
func (s *Store) CreateRecipe(ctx context.Context, r *persist.RecipeRecord) error {
	if r.ID == "" {
		r.ID = newID()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO recipes (id, name, description, cook_time_minutes, calories, tags, ingredients)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Name, r.Description, r.CookTimeMinutes, r.Calories, emptyIfNil(r.Tags), emptyIfNil(r.Ingredients))
	if err != nil {
		return classify("create_recipe", err)
	}
	return nil
}

// CreateMealPlan 建立計畫
func (s *Store) CreateMealPlan(ctx context.Context, p *persist.MealPlanRecord) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO meal_plans (id, user_id, start_date, end_date, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.StartDate, p.EndDate, p.CreatedAt)
	if err != nil {
		return classify("create_meal_plan", err)
	}
	return nil
}

// CreatePlanItem 建立計畫項目
func (s *Store) CreatePlanItem(ctx context.Context, item *persist.PlanItemRecord) error {
	if item.ID == "" {
		item.ID = newID()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO meal_plan_items (id, meal_plan_id, day_date, meal_type, recipe_id) VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.MealPlanID, item.DayDate, item.MealType, item.RecipeID)
	if err != nil {
		return classify("create_plan_item", err)
	}
	return nil
}

// CreateShoppingItem 建立購物項目
func (s *Store) CreateShoppingItem(ctx context.Context, item *persist.ShoppingItemRecord) error {
	if item.ID == "" {
		item.ID = newID()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shopping_items (id, meal_plan_id, category, item_name, quantity, price_min, price_max, checked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.MealPlanID, item.Category, item.ItemName, item.Quantity, item.PriceMin, item.PriceMax, item.Checked)
	if err != nil {
		return classify("create_shopping_item", err)
	}
	return nil
}

// DeleteShoppingItems 刪除購物項目
func (s *Store) DeleteShoppingItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM shopping_items WHERE id = ANY($1)`, ids); err != nil {
		return classify("delete_shopping_items", err)
	}
	return nil
}

// DeletePlanItems 刪除計畫項目
func (s *Store) DeletePlanItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM meal_plan_items WHERE id = ANY($1)`, ids); err != nil {
		return classify("delete_plan_items", err)
	}
	return nil
}

// DeleteMealPlan 刪除計畫
func (s *Store) DeleteMealPlan(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM meal_plans WHERE id = $1`, id); err != nil {
		return classify("delete_meal_plan", err)
	}
	return nil
}

// GetMealPlan 讀取計畫與其項目
func (s *Store) GetMealPlan(ctx context.Context, id string) (*persist.StoredPlan, error) {
	var out persist.StoredPlan
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, start_date, end_date, created_at FROM meal_plans WHERE id = $1`, id).
		Scan(&out.Plan.ID, &out.Plan.UserID, &out.Plan.StartDate, &out.Plan.EndDate, &out.Plan.CreatedAt)
	if err != nil {
		return nil, classify("get_meal_plan", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, meal_plan_id, day_date, meal_type, recipe_id FROM meal_plan_items
		 WHERE meal_plan_id = $1
		 ORDER BY day_date, CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END, id`, id)
	if err != nil {
		return nil, classify("get_plan_items", err)
	}
	out.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (persist.PlanItemRecord, error) {
		var item persist.PlanItemRecord
		err := row.Scan(&item.ID, &item.MealPlanID, &item.DayDate, &item.MealType, &item.RecipeID)
		return item, err
	})
	if err != nil {
		return nil, classify("get_plan_items", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT id, meal_plan_id, category, item_name, quantity, price_min::float8, price_max::float8, checked
		 FROM shopping_items WHERE meal_plan_id = $1 ORDER BY category, item_name`, id)
	if err != nil {
		return nil, classify("get_shopping_items", err)
	}
	out.ShoppingItems, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (persist.ShoppingItemRecord, error) {
		var item persist.ShoppingItemRecord
		err := row.Scan(&item.ID, &item.MealPlanID, &item.Category, &item.ItemName, &item.Quantity, &item.PriceMin, &item.PriceMax, &item.Checked)
		return item, err
	})
	if err != nil {
		return nil, classify("get_shopping_items", err)
	}

	return &out, nil
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close 關閉連線池
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
