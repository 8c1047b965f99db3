package profile

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository defines the interface for profile data access.
type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*Profile, error)

	// UpdateSubscription overwrites the full set of subscription fields for
	// the given user. Writing all fields at once keeps webhook redelivery
	// idempotent.
	UpdateSubscription(ctx context.Context, userID string, sub Subscription) error

	SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error

	// IncrementUsage atomically increments the usage counter and returns the
	// new value. A single SQL statement avoids the lost-update race between
	// concurrent generations for the same user.
	IncrementUsage(ctx context.Context, userID string) (int, error)

	UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new profile repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, profile *Profile) error {
	err := r.db.WithContext(ctx).Create(profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateSubscription(ctx context.Context, userID string, sub Subscription) error {
	result := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_active":    sub.Active,
			"subscription_tier":      sub.Tier,
			"subscription_interval":  sub.Interval,
			"stripe_subscription_id": sub.SubscriptionID,
			"cancel_at_period_end":   sub.CancelAtPeriodEnd,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *repository) SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error {
	result := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("user_id = ?", userID).
		Update("cancel_at_period_end", cancel)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// pqArray converts a slice to a pq.StringArray, normalizing nil to an empty
// array so the column never holds SQL NULL.
func pqArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

func (r *repository) IncrementUsage(ctx context.Context, userID string) (int, error) {
	var usage int
	result := r.db.WithContext(ctx).
		Raw("UPDATE profiles SET usage = usage + 1, updated_at = NOW() WHERE user_id = ? RETURNING usage", userID).
		Scan(&usage)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrProfileNotFound
	}
	return usage, nil
}

func (r *repository) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error {
	result := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"diet_type":            prefs.DietType,
			"calorie_target":       prefs.CalorieTarget,
			"allergies":            pqArray(prefs.Allergies),
			"excluded_ingredients": pqArray(prefs.ExcludedIngredients),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
