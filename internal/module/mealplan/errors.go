package mealplan

import "errors"

// Module errors.
var (
	ErrLimitReached      = errors.New("free trial limit reached")
	ErrInvalidAIResponse = errors.New("invalid JSON response from AI")
	ErrPlanNotFound      = errors.New("meal plan not found")
	ErrNotPlanOwner      = errors.New("meal plan belongs to another user")
	ErrMissingFields     = errors.New("name and meal plan data are required")
)
