package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mealmind/internal/core/persist"
	"mealmind/internal/pkg/common"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"

	// 固定寬度，字串排序即時間排序
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store SQLite 實作的 persist.Store
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ persist.Store = (*Store)(nil)

// Open 開啟或建立資料庫並套用 schema；":memory:" 使用記憶體資料庫
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func newID() string {
	return ulid.Make().String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		cook_time_minutes INTEGER NOT NULL DEFAULT 0,
		calories          INTEGER,
		tags              TEXT NOT NULL DEFAULT '[]',
		ingredients       TEXT NOT NULL DEFAULT '[]',
		created_at        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);

	CREATE TABLE IF NOT EXISTS meal_plans (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meal_plans_user ON meal_plans(user_id);

	CREATE TABLE IF NOT EXISTS meal_plan_items (
		id           TEXT PRIMARY KEY,
		meal_plan_id TEXT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
		day_date     TEXT NOT NULL,
		meal_type    TEXT NOT NULL CHECK (meal_type IN ('breakfast', 'lunch', 'dinner', 'snack')),
		recipe_id    TEXT NOT NULL REFERENCES recipes(id)
	);
	CREATE INDEX IF NOT EXISTS idx_plan_items_plan ON meal_plan_items(meal_plan_id);

	CREATE TABLE IF NOT EXISTS shopping_items (
		id           TEXT PRIMARY KEY,
		meal_plan_id TEXT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
		category     TEXT NOT NULL DEFAULT '',
		item_name    TEXT NOT NULL,
		quantity     TEXT NOT NULL DEFAULT '',
		price_min    REAL,
		price_max    REAL,
		checked      INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_shopping_items_plan ON shopping_items(meal_plan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// classify 將 SQLite 錯誤分類
func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewPersistenceError(op, common.KindNotFound, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") || strings.Contains(msg, "constraint") {
		return common.NewPersistenceError(op, common.KindSchema, err)
	}
	return common.NewPersistenceError(op, common.KindConnectivity, err)
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func decodeList(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

// FindRecipeByName 依名稱精確比對，取最早建立的一筆
func (s *Store) FindRecipeByName(ctx context.Context, name string) (*persist.RecipeRecord, error) {
	var (
		r           persist.RecipeRecord
		calories    sql.NullInt64
		tags, ingrs string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, cook_time_minutes, calories, tags, ingredients
		 FROM recipes WHERE name = ? ORDER BY created_at, id LIMIT 1`, name).
		Scan(&r.ID, &r.Name, &r.Description, &r.CookTimeMinutes, &calories, &tags, &ingrs)
	if err != nil {
		return nil, classify("find_recipe", err)
	}
	if calories.Valid {
		c := int(calories.Int64)
		r.Calories = &c
	}
	r.Tags = decodeList(tags)
	r.Ingredients = decodeList(ingrs)
	return &r, nil
}

// CreateRecipe 建立食譜
func (s *Store) CreateRecipe(ctx context.Context, r *persist.RecipeRecord) error {
	if r.ID == "" {
		r.ID = newID()
	}
	var calories interface{}
	if r.Calories != nil {
		calories = *r.Calories
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (id, name, description, cook_time_minutes, calories, tags, ingredients, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, r.CookTimeMinutes, calories,
		encodeList(r.Tags), encodeList(r.Ingredients), s.now().UTC().Format(timestampLayout))
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
		p.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout),
		p.CreatedAt.UTC().Format(timestampLayout))
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_plan_items (id, meal_plan_id, day_date, meal_type, recipe_id) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.MealPlanID, item.DayDate.Format(dateLayout), item.MealType, item.RecipeID)
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (id, meal_plan_id, category, item_name, quantity, price_min, price_max, checked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.MealPlanID, item.Category, item.ItemName, item.Quantity,
		nullFloat(item.PriceMin), nullFloat(item.PriceMax), item.Checked)
	if err != nil {
		return classify("create_shopping_item", err)
	}
	return nil
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func (s *Store) deleteIDs(ctx context.Context, op, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id IN ("+placeholders+")", args...); err != nil {
		return classify(op, err)
	}
	return nil
}

// DeleteShoppingItems 刪除購物項目
func (s *Store) DeleteShoppingItems(ctx context.Context, ids []string) error {
	return s.deleteIDs(ctx, "delete_shopping_items", "shopping_items", ids)
}

// DeletePlanItems 刪除計畫項目
func (s *Store) DeletePlanItems(ctx context.Context, ids []string) error {
	return s.deleteIDs(ctx, "delete_plan_items", "meal_plan_items", ids)
}

// DeleteMealPlan 刪除計畫；項目由外鍵串聯刪除
func (s *Store) DeleteMealPlan(ctx context.Context, id string) error {
	return s.deleteIDs(ctx, "delete_meal_plan", "meal_plans", []string{id})
}

// GetMealPlan 讀取計畫與其項目
func (s *Store) GetMealPlan(ctx context.Context, id string) (*persist.StoredPlan, error) {
	var (
		out                   persist.StoredPlan
		start, end, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, start_date, end_date, created_at FROM meal_plans WHERE id = ?`, id).
		Scan(&out.Plan.ID, &out.Plan.UserID, &start, &end, &createdAt)
	if err != nil {
		return nil, classify("get_meal_plan", err)
	}
	out.Plan.StartDate, _ = time.Parse(dateLayout, start)
	out.Plan.EndDate, _ = time.Parse(dateLayout, end)
	out.Plan.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meal_plan_id, day_date, meal_type, recipe_id FROM meal_plan_items
		 WHERE meal_plan_id = ?
		 ORDER BY day_date, CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END, id`, id)
	if err != nil {
		return nil, classify("get_plan_items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item persist.PlanItemRecord
			day  string
		)
		if err := rows.Scan(&item.ID, &item.MealPlanID, &day, &item.MealType, &item.RecipeID); err != nil {
			return nil, classify("get_plan_items", err)
		}
		item.DayDate, _ = time.Parse(dateLayout, day)
		out.Items = append(out.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get_plan_items", err)
	}

	shopRows, err := s.db.QueryContext(ctx,
		`SELECT id, meal_plan_id, category, item_name, quantity, price_min, price_max, checked
		 FROM shopping_items WHERE meal_plan_id = ? ORDER BY category, item_name`, id)
	if err != nil {
		return nil, classify("get_shopping_items", err)
	}
	defer shopRows.Close()
	for shopRows.Next() {
		var (
			item   persist.ShoppingItemRecord
			lo, hi sql.NullFloat64
		)
		if err := shopRows.Scan(&item.ID, &item.MealPlanID, &item.Category, &item.ItemName, &item.Quantity, &lo, &hi, &item.Checked); err != nil {
			return nil, classify("get_shopping_items", err)
		}
		if lo.Valid {
			v := lo.Float64
			item.PriceMin = &v
		}
		if hi.Valid {
			v := hi.Float64
			item.PriceMax = &v
		}
		out.ShoppingItems = append(out.ShoppingItems, item)
	}
	if err := shopRows.Err(); err != nil {
		return nil, classify("get_shopping_items", err)
	}

	return &out, nil
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 關閉資料庫
func (s *Store) Close() error {
	return s.db.Close()
}
