package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Tier and interval vocabulary. Tier and interval are always both set or
// both nil; they are nil exactly when the user has no active subscription
// record at the billing provider.
const (
	TierPremium = "premium"
	TierFamily  = "family"

	IntervalMonth = "month"
	IntervalYear  = "year"
)

// FreeTrialLimit is the number of AI generations granted before a
// subscription is required.
const FreeTrialLimit = 5

// Profile is the application's per-user record, keyed by the external
// identity provider's user id.
type Profile struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID string    `json:"user_id" gorm:"uniqueIndex;not null"`

	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	UserName string `json:"user_name" gorm:"not null"`

	// Subscription state, kept in sync with the billing provider by the
	// billing module's webhook reconciler.
	SubscriptionActive   bool    `json:"subscription_active" gorm:"not null;default:false"`
	SubscriptionTier     *string `json:"subscription_tier" gorm:"column:subscription_tier"`
	SubscriptionInterval *string `json:"subscription_interval" gorm:"column:subscription_interval"`
	StripeSubscriptionID *string `json:"-" gorm:"column:stripe_subscription_id;uniqueIndex"`
	CancelAtPeriodEnd    bool    `json:"cancel_at_period_end" gorm:"not null;default:false"`

	// Usage counts successful AI generations since account creation.
	// It only ever grows; it is not reset per billing period.
	Usage int `json:"usage" gorm:"not null;default:0"`

	// Dietary preferences used to pre-fill generation requests.
	DietType            string         `json:"diet_type"`
	CalorieTarget       int            `json:"calorie_target"`
	Allergies           pq.StringArray `json:"allergies" gorm:"type:text[]"`
	ExcludedIngredients pq.StringArray `json:"excluded_ingredients" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Profile) TableName() string {
	return "profiles"
}

// Subscription is the full set of provider-synchronized subscription fields.
// The webhook reconciler computes a Subscription and the repository writes it
// as a whole, so redelivered events overwrite rather than accumulate.
type Subscription struct {
	Active            bool
	Tier              *string
	Interval          *string
	SubscriptionID    *string
	CancelAtPeriodEnd bool
}

// Subscription returns the profile's current subscription fields.
func (p *Profile) Subscription() Subscription {
	return Subscription{
		Active:            p.SubscriptionActive,
		Tier:              p.SubscriptionTier,
		Interval:          p.SubscriptionInterval,
		SubscriptionID:    p.StripeSubscriptionID,
		CancelAtPeriodEnd: p.CancelAtPeriodEnd,
	}
}

// ApplySubscription overwrites the profile's subscription fields.
func (p *Profile) ApplySubscription(s Subscription) {
	p.SubscriptionActive = s.Active
	p.SubscriptionTier = s.Tier
	p.SubscriptionInterval = s.Interval
	p.StripeSubscriptionID = s.SubscriptionID
	p.CancelAtPeriodEnd = s.CancelAtPeriodEnd
}

// Preferences are the persisted dietary preferences.
type Preferences struct {
	DietType            string   `json:"dietType"`
	CalorieTarget       int      `json:"calorieTarget"`
	Allergies           []string `json:"allergies"`
	ExcludedIngredients []string `json:"excludedIngredients"`
}

// Preferences returns the profile's stored dietary preferences.
func (p *Profile) Preferences() Preferences {
	return Preferences{
		DietType:            p.DietType,
		CalorieTarget:       p.CalorieTarget,
		Allergies:           p.Allergies,
		ExcludedIngredients: p.ExcludedIngredients,
	}
}
