package mealplan

import "encoding/json"

// GenerateRequest describes the plan to generate.
type GenerateRequest struct {
	DietType            string   `json:"dietType" binding:"required"`
	CalorieTarget       int      `json:"calorieTarget" binding:"required,gt=0"`
	Allergies           []string `json:"allergies"`
	ExcludedIngredients []string `json:"excludedIngredients"`
	Days                int      `json:"days" binding:"required,gte=1,lte=7"`
}

// UsageInfo reports generation usage after a successful request. Limit is
// null for subscribed users.
type UsageInfo struct {
	Count        int  `json:"count"`
	Limit        *int `json:"limit"`
	IsSubscribed bool `json:"isSubscribed"`
}

// GenerateResponse carries the generated plan and updated usage.
type GenerateResponse struct {
	MealPlan Plan      `json:"mealPlan"`
	Usage    UsageInfo `json:"usage"`
}

// SavePlanRequest stores a generated plan under a name.
type SavePlanRequest struct {
	Name         string          `json:"name"`
	MealPlanData json.RawMessage `json:"mealPlanData"`
}
