package planner

import (
	"fmt"
	"strings"
	"text/template"

	"mealmind/internal/core/profile"
)

// formatInstructions 放在提示最後的輸出格式說明
const formatInstructions = `The output must be a JSON object with exactly these top-level keys:

{
  "meal_plan": [
    {
      "day": "Monday",
      "date": "2024-01-01",
      "breakfast": {"title": string, "description": string, "ingredients": [string], "cooking_time": string, "calories": integer or null, "dietary_tags": [string]} or null,
      "lunch": same shape as breakfast or null,
      "dinner": same shape as breakfast or null,
      "snacks": [same shape as breakfast] or null
    }
  ],
  "shopping_list": [
    {"item": string, "quantity": string, "category": string, "estimated_cost": string or null}
  ],
  "total_estimated_cost": string,
  "nutritional_summary": {string: string},
  "preparation_tips": [string]
}

"meal_plan" must contain exactly 7 entries, Monday through Sunday, in that order.
Every meal that is not null must have a non-empty "title" and a non-empty "ingredients" list.
Estimated costs use the form "$5" or "$5-7".`

const promptText = `You are a professional nutritionist and certified meal planning expert with over 15 years of experience.
Your expertise includes:
- Clinical nutrition and dietary therapy
- Sports nutrition and performance optimization
- Medical nutrition therapy for chronic conditions
- Sustainable and ethical food choices
- International cuisine and cultural dietary preferences

Your goal is to create personalized, nutritionally balanced, and delicious meal plans that meet the user's health goals,
accommodate their medical conditions, and fit their lifestyle, cooking habits and budget.

## USER PROFILE:

**Basic Information:**
- Username: {{.Username}}
- Height: {{.HeightFt}} feet
- Weight: {{.WeightLbs}} lbs
- Activity Level: {{.ActivityLevel}}

**Medical Conditions & Considerations:**
{{.MedicalConditions}}

**Health Goals:**
{{.HealthGoals}}

**Dietary Preferences:**
{{.DietaryPreferences}}

**Allergies & Intolerances:**
{{.Allergies}}

**Meal Habits:**
- Meals per day: {{.MealsPerDay}}
- Includes snacks: {{.Snacks}}
- Cooks often: {{.CooksOften}}
- Foods disliked: {{.FoodsDisliked}}

**Location:** {{.Location}}

## INSTRUCTIONS:

Create a comprehensive 7-day meal plan that:

1. **Respects all dietary restrictions and medical conditions**
2. **Includes {{.MealsPerDay}} main meals per day** (breakfast, lunch, dinner as appropriate)
3. **Adds healthy snacks if user wants them** ({{.Snacks}})
4. **Matches the user's cooking skill level** (cooks often: {{.CooksOften}})
5. **Avoids all disliked foods**: {{.FoodsDisliked}}
6. **Supports their health goals**: {{.HealthGoals}}
7. **Accommodates their activity level**: {{.ActivityLevel}}

## SPECIAL CONSIDERATIONS:
{{range .Considerations}}
- {{.}}{{end}}
- Account for any food allergies and intolerances strictly
- Consider seasonal availability for location: {{.Location}}

## OUTPUT REQUIREMENTS:

Provide exactly 7 days of meals starting from Monday. For each day:
- Use day names: "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"
- Use dates in YYYY-MM-DD format starting from 2024-01-01 (Monday)
- Include meals based on their preference ({{.MealsPerDay}} meals/day)
- Each meal should have: title, description, ingredients list, cooking time, estimated calories, dietary tags
- If they want snacks ({{.Snacks}}), include 1-2 healthy snack options per day
- Use null for any meals not requested (e.g., if no snacks wanted, set snacks to null)

Create a consolidated shopping list that:
- Groups ingredients by category (Produce, Dairy, Meat, Pantry, etc.)
- Includes realistic quantities for one person for the week
- Estimates cost ranges where possible
- Minimizes food waste by using ingredients across multiple meals

Include:
- Total estimated weekly cost
- Nutritional summary highlighting key nutrients
- 3-5 meal prep tips for the week

## CRITICAL OUTPUT REQUIREMENT:

You MUST respond with valid JSON only. Do not include any text outside the JSON object.
Your response must be ONLY a JSON object that conforms to the provided schema.
Do not include explanations, comments, or markdown formatting.
Start your response directly with the opening brace.

{{.FormatInstructions}}
`

var promptTemplate = template.Must(template.New("meal_plan").Parse(promptText))

// 各病症的飲食提醒
var conditionConsiderations = []struct {
	marker string
	text   string
}{
	{"Diabetes", "The user has diabetes: focus on low glycemic index foods and balanced carbohydrates"},
	{"PCOS", "The user has PCOS: emphasize anti-inflammatory foods and stable blood sugar"},
	{"High Blood Pressure", "The user has high blood pressure: minimize sodium and emphasize potassium-rich foods"},
	{"Ulcerative Colitis", "The user has IBD: choose easily digestible, low-FODMAP options when appropriate"},
	{"IBD", "The user has IBD: choose easily digestible, low-FODMAP options when appropriate"},
	{"IBS", "The user has IBS: choose easily digestible, low-FODMAP options when appropriate"},
}

// genericConsiderations 未回報相關病症時使用的通用提醒
var genericConsiderations = []string{
	"If user has diabetes, focus on low glycemic index foods and balanced carbohydrates",
	"If user has PCOS, emphasize anti-inflammatory foods and stable blood sugar",
	"If user has high blood pressure, minimize sodium and emphasize potassium-rich foods",
	"If user has IBD/IBS, choose easily digestible, low-FODMAP options when appropriate",
}

type promptData struct {
	profile.Fields
	Considerations     []string
	FormatInstructions string
}

// considerations 依病史挑選飲食提醒
func considerations(medical string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range conditionConsiderations {
		if strings.Contains(medical, c.marker) && !seen[c.text] {
			seen[c.text] = true
			out = append(out, c.text)
		}
	}
	if len(out) == 0 {
		return genericConsiderations
	}
	return out
}

// BuildPrompt 以使用者顯示欄位產生完整提示
func BuildPrompt(f profile.Fields) (string, error) {
	var b strings.Builder
	data := promptData{
		Fields:             f,
		Considerations:     considerations(f.MedicalConditions),
		FormatInstructions: formatInstructions,
	}
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
