package mealplan

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for saved meal plan data access.
type Repository interface {
	Create(ctx context.Context, plan *SavedMealPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*SavedMealPlan, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]SavedMealPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new saved meal plan repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, plan *SavedMealPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*SavedMealPlan, error) {
	var plan SavedMealPlan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]SavedMealPlan, error) {
	var plans []SavedMealPlan
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&SavedMealPlan{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}
