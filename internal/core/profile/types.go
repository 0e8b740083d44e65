package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mealmind/internal/pkg/common"
)

// Value 可接受字串、數字、布林或陣列的欄位，統一保存為顯示文字
type Value string

// UnmarshalJSON 接受任意 JSON 純量；陣列以 ", " 串接
func (v *Value) UnmarshalJSON(data []byte) error {
	var x interface{}
	if err := common.ParseJSONBytes(data, &x); err != nil {
		return err
	}
	*v = Value(scalarText(x))
	return nil
}

// String 回傳去除空白後的文字
func (v Value) String() string {
	return strings.TrimSpace(string(v))
}

// Flag 以寬鬆規則判斷真假值
func (v Value) Flag() bool {
	s := strings.ToLower(v.String())
	switch s {
	case "", "false", "no", "n", "off", "none", "null":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0
	}
	return true
}

// List 可接受 JSON 陣列或逗號分隔字串
type List []string

// UnmarshalJSON 解析陣列或逗號分隔字串
func (l *List) UnmarshalJSON(data []byte) error {
	var x interface{}
	if err := common.ParseJSONBytes(data, &x); err != nil {
		return err
	}

	var items []string
	switch t := x.(type) {
	case nil:
	case []interface{}:
		for _, elem := range t {
			if s := scalarText(elem); s != "" {
				items = append(items, s)
			}
		}
	default:
		for _, part := range strings.Split(scalarText(t), ",") {
			if s := strings.TrimSpace(part); s != "" {
				items = append(items, s)
			}
		}
	}
	*l = items
	return nil
}

func scalarText(x interface{}) string {
	switch t := x.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, elem := range t {
			if s := scalarText(elem); s != "" {
				parts = append(parts, s)
			}
		}
		return common.StringSliceToString(parts)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// BasicInformation 基本資料
type BasicInformation struct {
	Username      Value `json:"username,omitempty"`
	Name          Value `json:"name,omitempty"`
	Height        Value `json:"height,omitempty"`
	Weight        Value `json:"weight,omitempty"`
	ActivityLevel Value `json:"activityLevel,omitempty"`
}

// MedicalConditions 病史
type MedicalConditions struct {
	Conditions      List  `json:"conditions,omitempty"`
	DiabetesInsulin Value `json:"diabetesInsulin,omitempty"`
	PCOSHormonal    Value `json:"pcosHormonal,omitempty"`
	HBPSaltIntake   Value `json:"hbpSaltIntake,omitempty"`
	IBDType         Value `json:"ibdType,omitempty"`
	UCCondition     Value `json:"ucCondition,omitempty"`
	OtherCondition  Value `json:"otherCondition,omitempty"`
}

// HealthGoal 健康目標
type HealthGoal struct {
	Goal       Value `json:"goal,omitempty"`
	CustomGoal Value `json:"customGoal,omitempty"`
}

// DietaryPreferences 飲食偏好
type DietaryPreferences struct {
	Preferences      List  `json:"preferences,omitempty"`
	CustomPreference Value `json:"customPreference,omitempty"`
	LikedFoods       Value `json:"likedFoods,omitempty"`
}

// AllergiesIntolerances 過敏與不耐
type AllergiesIntolerances struct {
	Allergies    List  `json:"allergies,omitempty"`
	OtherAllergy Value `json:"otherAllergy,omitempty"`
}

// MealHabits 用餐習慣
type MealHabits struct {
	MealsPerDay        Value `json:"mealsPerDay,omitempty"`
	Snacks             Value `json:"snacks,omitempty"`
	SnacksBetweenMeals Value `json:"snacksBetweenMeals,omitempty"`
	CooksOften         Value `json:"cooksOften,omitempty"`
	CookAtHome         Value `json:"cookAtHome,omitempty"`
	FoodsDisliked      Value `json:"foodsDisliked,omitempty"`
	DislikedFoods      Value `json:"dislikedFoods,omitempty"`
}

// Location 所在地
type Location struct {
	ZipCodeOrCity Value `json:"zipCodeOrCity,omitempty"`
}

// UserProfile 使用者飲食與健康資料；所有欄位皆可省略
type UserProfile struct {
	BasicInformation      BasicInformation      `json:"basicInformation"`
	MedicalConditions     MedicalConditions     `json:"medicalConditions"`
	HealthGoal            HealthGoal            `json:"healthGoal"`
	DietaryPreferences    DietaryPreferences    `json:"dietaryPreferences"`
	AllergiesIntolerances AllergiesIntolerances `json:"allergiesIntolerances"`
	MealHabits            MealHabits            `json:"mealHabits"`
	Location              Location              `json:"location"`

	raw map[string]interface{}
}

// UnmarshalJSON 解析資料並保留原始 JSON 物件供指紋計算
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	var raw map[string]interface{}
	if err := common.ParseJSONBytes(data, &raw); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	*p = UserProfile(typed)
	p.raw = raw
	return nil
}

// FromMap 由已解碼的 JSON 物件建立 UserProfile
func FromMap(m map[string]interface{}) (UserProfile, error) {
	var p UserProfile
	data, err := json.Marshal(m)
	if err != nil {
		return p, fmt.Errorf("invalid profile: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	return p, nil
}

// Raw 回傳解碼時的原始物件；非解碼建立者回傳 nil
func (p UserProfile) Raw() map[string]interface{} {
	return p.raw
}

// Canonical 回傳計算指紋用的物件：優先使用原始物件，否則由型別欄位產生
func (p UserProfile) Canonical() (map[string]interface{}, error) {
	if p.raw != nil {
		return p.raw, nil
	}

	type plain UserProfile
	data, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := common.ParseJSONBytes(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
