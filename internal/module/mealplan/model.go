package mealplan

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Meal is a single meal within a generated plan.
type Meal struct {
	Ingredients string  `json:"ingredients"`
	Calories    float64 `json:"calories"`
}

// Plan maps day names to meal names to meals.
type Plan map[string]map[string]Meal

// SavedMealPlan is a meal plan the user chose to keep. Plans are created
// and deleted whole, never edited.
type SavedMealPlan struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProfileID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Name         string          `gorm:"not null" json:"name"`
	MealPlanData json.RawMessage `gorm:"type:jsonb;not null" json:"mealPlanData"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TableName returns the table name.
func (SavedMealPlan) TableName() string {
	return "saved_meal_plans"
}
