package profile

import (
	"fmt"
	"strings"
)

// 預設顯示文字
const (
	DefaultUsername          = "User"
	DefaultHeight            = "5.5"
	DefaultWeight            = "150"
	DefaultActivityLevel     = "Moderate"
	DefaultMedicalConditions = "None reported"
	DefaultHealthGoals       = "General health maintenance"
	DefaultPreferences       = "No specific preferences"
	DefaultAllergies         = "No known allergies"
	DefaultMealsPerDay       = "3"
	DefaultFoodsDisliked     = "None specified"
	DefaultLocation          = "United States"
)

// Fields 填入提示模板的顯示字串，每個欄位皆有值
type Fields struct {
	Username           string
	HeightFt           string
	WeightLbs          string
	ActivityLevel      string
	MedicalConditions  string
	HealthGoals        string
	DietaryPreferences string
	Allergies          string
	MealsPerDay        string
	Snacks             string
	CooksOften         string
	FoodsDisliked      string
	Location           string
}

// Map 以模板變數名稱輸出
func (f Fields) Map() map[string]string {
	return map[string]string{
		"username":            f.Username,
		"height_ft":           f.HeightFt,
		"weight_lbs":          f.WeightLbs,
		"activity_level":      f.ActivityLevel,
		"medical_conditions":  f.MedicalConditions,
		"health_goals":        f.HealthGoals,
		"dietary_preferences": f.DietaryPreferences,
		"allergies":           f.Allergies,
		"meals_per_day":       f.MealsPerDay,
		"snacks":              f.Snacks,
		"cooks_often":         f.CooksOften,
		"foods_disliked":      f.FoodsDisliked,
		"location":            f.Location,
	}
}

// Format 將使用者資料轉換為提示用的顯示字串
func Format(p UserProfile) Fields {
	basic := p.BasicInformation
	habits := p.MealHabits

	return Fields{
		Username:           firstOr(DefaultUsername, basic.Username, basic.Name),
		HeightFt:           firstOr(DefaultHeight, basic.Height),
		WeightLbs:          firstOr(DefaultWeight, basic.Weight),
		ActivityLevel:      firstOr(DefaultActivityLevel, basic.ActivityLevel),
		MedicalConditions:  joinOr(DefaultMedicalConditions, "; ", medicalDetails(p.MedicalConditions)),
		HealthGoals:        joinOr(DefaultHealthGoals, ", ", healthGoals(p.HealthGoal)),
		DietaryPreferences: joinOr(DefaultPreferences, ", ", preferences(p.DietaryPreferences)),
		Allergies:          joinOr(DefaultAllergies, ", ", allergies(p.AllergiesIntolerances)),
		MealsPerDay:        firstOr(DefaultMealsPerDay, habits.MealsPerDay),
		Snacks:             yesNo(habits.Snacks, habits.SnacksBetweenMeals),
		CooksOften:         yesNo(habits.CooksOften, habits.CookAtHome),
		FoodsDisliked:      firstOr(DefaultFoodsDisliked, habits.FoodsDisliked, habits.DislikedFoods),
		Location:           firstOr(DefaultLocation, p.Location.ZipCodeOrCity),
	}
}

// 病名分類
const (
	conditionDiabetes = "diabetes"
	conditionPCOS     = "pcos"
	conditionHBP      = "hbp"
	conditionIBD      = "ibd"
	conditionUC       = "uc"
)

// classifyCondition 將表單病名對應到內部分類，無法辨識回傳空字串
func classifyCondition(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, "diabetes"):
		return conditionDiabetes
	case n == "pcos":
		return conditionPCOS
	case n == "high blood pressure" || n == "hypertension":
		return conditionHBP
	case n == "ibd":
		return conditionIBD
	case n == "ulcerative colitis":
		return conditionUC
	}
	return ""
}

func medicalDetails(m MedicalConditions) []string {
	seen := make(map[string]bool)
	var others []string
	for _, c := range m.Conditions {
		kind := classifyCondition(c)
		switch {
		case kind != "":
			seen[kind] = true
		case strings.EqualFold(c, "none"):
		case strings.EqualFold(c, "other") && m.OtherCondition.String() != "":
		default:
			others = append(others, c)
		}
	}

	var details []string
	if seen[conditionDiabetes] {
		status := "manages without insulin"
		if m.DiabetesInsulin.Flag() {
			status = "takes insulin"
		}
		details = append(details, fmt.Sprintf("Diabetes (%s)", status))
	}
	if seen[conditionPCOS] {
		status := "not on hormonal treatment"
		if m.PCOSHormonal.Flag() {
			status = "on hormonal treatment"
		}
		details = append(details, fmt.Sprintf("PCOS (%s)", status))
	}
	if seen[conditionHBP] {
		status := "standard salt intake"
		if m.HBPSaltIntake.Flag() {
			status = "monitors salt intake"
		}
		details = append(details, fmt.Sprintf("High Blood Pressure (%s)", status))
	}
	if seen[conditionIBD] || seen[conditionUC] {
		ibdType := m.IBDType.String()
		if ibdType == "" && seen[conditionUC] {
			ibdType = "Ulcerative Colitis"
		}
		if strings.EqualFold(ibdType, "Ulcerative Colitis") {
			details = append(details, fmt.Sprintf("Ulcerative Colitis (%s condition)", firstOr("stable", m.UCCondition)))
		} else {
			details = append(details, fmt.Sprintf("IBD (%s)", firstOr("unspecified", m.IBDType)))
		}
	}

	details = append(details, others...)
	if other := m.OtherCondition.String(); other != "" {
		details = append(details, other)
	}
	return details
}

func healthGoals(g HealthGoal) []string {
	var parts []string
	if goal := g.Goal.String(); goal != "" && !(strings.EqualFold(goal, "custom") && g.CustomGoal.String() != "") {
		parts = append(parts, goal)
	}
	if custom := g.CustomGoal.String(); custom != "" {
		parts = append(parts, custom)
	}
	return parts
}

func preferences(d DietaryPreferences) []string {
	custom := d.CustomPreference.String()
	var parts []string
	for _, p := range d.Preferences {
		if strings.EqualFold(p, "custom") && custom != "" {
			continue
		}
		parts = append(parts, p)
	}
	if custom != "" {
		parts = append(parts, custom)
	}
	if liked := d.LikedFoods.String(); liked != "" {
		parts = append(parts, "likes "+liked)
	}
	return parts
}

func allergies(a AllergiesIntolerances) []string {
	other := a.OtherAllergy.String()
	var parts []string
	for _, item := range a.Allergies {
		if strings.EqualFold(item, "other") && other != "" {
			continue
		}
		parts = append(parts, item)
	}
	if other != "" {
		parts = append(parts, other)
	}
	return parts
}

// firstOr 回傳第一個非空值，否則回傳預設值
func firstOr(def string, values ...Value) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return def
}

func joinOr(def, sep string, parts []string) string {
	if len(parts) == 0 {
		return def
	}
	return strings.Join(parts, sep)
}

// yesNo 第一個有設定的欄位決定結果
func yesNo(values ...Value) string {
	for _, v := range values {
		if v.String() != "" {
			if v.Flag() {
				return "Yes"
			}
			return "No"
		}
	}
	return "No"
}
