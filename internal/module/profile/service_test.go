package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepository struct {
	byUserID map[string]*Profile
	byEmail  map[string]*Profile
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byUserID: make(map[string]*Profile),
		byEmail:  make(map[string]*Profile),
	}
}

func (r *fakeRepository) Create(_ context.Context, p *Profile) error {
	if _, ok := r.byUserID[p.UserID]; ok {
		return ErrProfileExists
	}
	if _, ok := r.byEmail[p.Email]; ok {
		return ErrProfileExists
	}
	r.byUserID[p.UserID] = p
	r.byEmail[p.Email] = p
	return nil
}

func (r *fakeRepository) GetByUserID(_ context.Context, userID string) (*Profile, error) {
	p, ok := r.byUserID[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeRepository) GetByEmail(_ context.Context, email string) (*Profile, error) {
	p, ok := r.byEmail[email]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeRepository) GetByStripeSubscriptionID(_ context.Context, subscriptionID string) (*Profile, error) {
	for _, p := range r.byUserID {
		if p.StripeSubscriptionID != nil && *p.StripeSubscriptionID == subscriptionID {
			return p, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *fakeRepository) UpdateSubscription(_ context.Context, userID string, sub Subscription) error {
	p, ok := r.byUserID[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.ApplySubscription(sub)
	return nil
}

func (r *fakeRepository) SetCancelAtPeriodEnd(_ context.Context, userID string, cancel bool) error {
	p, ok := r.byUserID[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.CancelAtPeriodEnd = cancel
	return nil
}

func (r *fakeRepository) IncrementUsage(_ context.Context, userID string) (int, error) {
	p, ok := r.byUserID[userID]
	if !ok {
		return 0, ErrProfileNotFound
	}
	p.Usage++
	return p.Usage, nil
}

func (r *fakeRepository) UpdatePreferences(_ context.Context, userID string, prefs Preferences) error {
	p, ok := r.byUserID[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.DietType = prefs.DietType
	p.CalorieTarget = prefs.CalorieTarget
	p.Allergies = prefs.Allergies
	p.ExcludedIngredients = prefs.ExcludedIngredients
	return nil
}

func newTestService() (*Service, *fakeRepository) {
	repo := newFakeRepository()
	return NewService(repo, zap.NewNop()), repo
}

func TestProvision(t *testing.T) {
	t.Run("creates a fresh profile", func(t *testing.T) {
		svc, _ := newTestService()

		p, err := svc.Provision(context.Background(), "u1", "u1@example.com", "alice")

		require.NoError(t, err)
		assert.Equal(t, "u1", p.UserID)
		assert.Equal(t, "u1@example.com", p.Email)
		assert.False(t, p.SubscriptionActive)
		assert.Zero(t, p.Usage)
	})

	t.Run("rejects duplicate user id", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Provision(context.Background(), "u1", "u1@example.com", "alice")
		require.NoError(t, err)

		_, err = svc.Provision(context.Background(), "u1", "other@example.com", "alice")
		assert.ErrorIs(t, err, ErrProfileExists)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Provision(context.Background(), "u1", "shared@example.com", "alice")
		require.NoError(t, err)

		_, err = svc.Provision(context.Background(), "u2", "shared@example.com", "bob")
		assert.ErrorIs(t, err, ErrProfileExists)
	})

	t.Run("requires email and username", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Provision(context.Background(), "u1", "", "alice")
		assert.ErrorIs(t, err, ErrMissingIdentity)

		_, err = svc.Provision(context.Background(), "u1", "u1@example.com", "")
		assert.ErrorIs(t, err, ErrMissingIdentity)
	})
}

func TestPreferences(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Provision(context.Background(), "u1", "u1@example.com", "alice")
	require.NoError(t, err)

	err = svc.UpdatePreferences(context.Background(), "u1", Preferences{
		DietType:      "keto",
		CalorieTarget: 1800,
		Allergies:     []string{"shellfish"},
	})
	require.NoError(t, err)

	prefs, err := svc.GetPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "keto", prefs.DietType)
	assert.Equal(t, 1800, prefs.CalorieTarget)
	assert.Equal(t, []string{"shellfish"}, prefs.Allergies)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	p := &Profile{UserID: "u1"}

	sub := Subscription{
		Active:            true,
		Tier:              strPtr("premium"),
		Interval:          strPtr("month"),
		SubscriptionID:    strPtr("sub_1"),
		CancelAtPeriodEnd: true,
	}
	p.ApplySubscription(sub)

	assert.Equal(t, sub, p.Subscription())
}

func strPtr(s string) *string { return &s }
