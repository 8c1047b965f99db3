package mealplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plateful/server/internal/module/ai"
	"github.com/plateful/server/internal/module/profile"
	"github.com/plateful/server/internal/shared/metrics"
)

const systemPrompt = "You are a professional nutritionist."

// ProfileStore is the slice of the profile repository the meal plan
// service needs.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*profile.Profile, error)
	IncrementUsage(ctx context.Context, userID string) (int, error)
}

// Service generates meal plans and manages saved ones.
type Service struct {
	profiles ProfileStore
	plans    Repository
	ai       ai.Client
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a meal plan service. Metrics may be nil.
func NewService(profiles ProfileStore, plans Repository, client ai.Client, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		plans:    plans,
		ai:       client,
		metrics:  m,
		logger:   logger,
	}
}

// Generate produces a meal plan for the caller. The usage counter is
// incremented only after the AI response parses successfully, so failed
// generations never consume trial quota.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResponse, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := CanGenerate(prof.SubscriptionActive, prof.Usage)
	if !decision.Allow {
		if s.metrics != nil {
			s.metrics.GenerationDenialsTotal.Inc()
		}
		s.logger.Info("generation denied by usage gate",
			zap.String("user_id", userID),
			zap.Int("usage", prof.Usage))
		return nil, ErrLimitReached
	}

	start := time.Now()
	content, err := s.ai.Complete(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		s.recordGeneration("error", start)
		return nil, fmt.Errorf("generate meal plan: %w", err)
	}

	plan, err := parsePlan(content)
	if err != nil {
		s.recordGeneration("invalid_response", start)
		s.logger.Warn("unparseable meal plan response",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, ErrInvalidAIResponse
	}

	count, err := s.profiles.IncrementUsage(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.recordGeneration("success", start)

	usage := UsageInfo{Count: count, IsSubscribed: prof.SubscriptionActive}
	if !prof.SubscriptionActive {
		limit := profile.FreeTrialLimit
		usage.Limit = &limit
	}

	s.logger.Info("meal plan generated",
		zap.String("user_id", userID),
		zap.Int("days", req.Days),
		zap.Int("usage", count))

	return &GenerateResponse{MealPlan: plan, Usage: usage}, nil
}

// List returns the caller's saved plans, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]SavedMealPlan, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.plans.ListByProfile(ctx, prof.ID)
}

// Get returns one saved plan, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID string, planID uuid.UUID) (*SavedMealPlan, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.ProfileID != prof.ID {
		return nil, ErrNotPlanOwner
	}
	return plan, nil
}

// Save stores a plan under a name.
func (s *Service) Save(ctx context.Context, userID string, req SavePlanRequest) (*SavedMealPlan, error) {
	if req.Name == "" || len(req.MealPlanData) == 0 {
		return nil, ErrMissingFields
	}

	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan := &SavedMealPlan{
		ProfileID:    prof.ID,
		Name:         req.Name,
		MealPlanData: req.MealPlanData,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a saved plan, enforcing ownership.
func (s *Service) Delete(ctx context.Context, userID string, planID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, planID); err != nil {
		return err
	}
	return s.plans.Delete(ctx, planID)
}

func (s *Service) recordGeneration(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(status, time.Since(start))
	}
}

// buildPrompt renders the generation instructions. The model is told to
// answer with bare JSON keyed by day then meal.
func buildPrompt(req GenerateRequest) string {
	restrictions := "none"
	if len(req.Allergies) > 0 {
		restrictions = strings.Join(req.Allergies, ", ")
	}
	excluded := "none"
	if len(req.ExcludedIngredients) > 0 {
		excluded = strings.Join(req.ExcludedIngredients, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day meal plan for an individual following a %s diet aiming for %d calories per day.\n\n",
		req.Days, req.DietType, req.CalorieTarget)
	fmt.Fprintf(&b, "Allergies or restrictions: %s and %s.\n\n", restrictions, excluded)
	b.WriteString(`For each day, provide:
  - Breakfast
  - Lunch
  - Dinner

Use simple ingredients and provide brief instructions. Include approximate calorie counts for each meal.

Structure the response as a JSON object where each day is a key, and each meal (breakfast, lunch, dinner) is a sub-key with the ingredients and calories. Example:

{
  "Monday": {
    "Breakfast": { "ingredients": "Oatmeal with fruits", "calories": 350 },
    "Lunch": { "ingredients": "Grilled chicken salad", "calories": 500 },
    "Dinner": { "ingredients": "Steamed vegetables with quinoa", "calories": 600 }
  }
}

Return just the JSON with no extra text, comments, or backticks.`)
	return b.String()
}

// parsePlan decodes the model output into a plan, tolerating surrounding
// whitespace and markdown code fences.
func parsePlan(content string) (Plan, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var plan Plan
	if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("empty meal plan")
	}
	return plan, nil
}
