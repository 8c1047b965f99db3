package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/plateful/server/internal/module/billing/provider"
	"github.com/plateful/server/internal/module/profile"
	"github.com/plateful/server/internal/shared/config"
)

type fakeProfileStore struct {
	profiles map[string]*profile.Profile

	updates        []profile.Subscription
	cancelAtPeriod []bool
	updateErr      error
}

func newFakeProfileStore(profiles ...*profile.Profile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *fakeProfileStore) GetByUserID(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeProfileStore) GetByStripeSubscriptionID(_ context.Context, subscriptionID string) (*profile.Profile, error) {
	for _, p := range s.profiles {
		if p.StripeSubscriptionID != nil && *p.StripeSubscriptionID == subscriptionID {
			return p, nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

func (s *fakeProfileStore) UpdateSubscription(_ context.Context, userID string, sub profile.Subscription) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	p.ApplySubscription(sub)
	s.updates = append(s.updates, sub)
	return nil
}

func (s *fakeProfileStore) SetCancelAtPeriodEnd(_ context.Context, userID string, cancel bool) error {
	p, ok := s.profiles[userID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	p.CancelAtPeriodEnd = cancel
	s.cancelAtPeriod = append(s.cancelAtPeriod, cancel)
	return nil
}

type fakeProvider struct {
	customer     *provider.Customer
	subscription *provider.Subscription
	plan         *provider.Plan
	session      *provider.CheckoutSession

	changeErr   error
	sessionErr  error
	lastParams  *provider.CheckoutParams
	priceChange string

	verifyEvent *stripe.Event
	verifyErr   error
}

func (f *fakeProvider) FindOrCreateCustomer(context.Context, string, string) (*provider.Customer, error) {
	if f.customer == nil {
		return &provider.Customer{ID: "cus_1", Email: "a@b.c"}, nil
	}
	return f.customer, nil
}

func (f *fakeProvider) GetSubscription(context.Context, string) (*provider.Subscription, error) {
	if f.subscription == nil {
		return nil, errors.New("no subscription")
	}
	return f.subscription, nil
}

func (f *fakeProvider) ChangeSubscriptionPrice(_ context.Context, _, _, priceID string) (*provider.Subscription, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	f.priceChange = priceID
	return f.subscription, nil
}

func (f *fakeProvider) SetCancelAtPeriodEnd(context.Context, string, bool) (*provider.Subscription, error) {
	return f.subscription, nil
}

func (f *fakeProvider) ResolvePlan(context.Context, string) (*provider.Plan, error) {
	if f.plan == nil {
		return &provider.Plan{Tier: "premium", Interval: "month"}, nil
	}
	return f.plan, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params *provider.CheckoutParams) (*provider.CheckoutSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.lastParams = params
	if f.session == nil {
		return &provider.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
	}
	return f.session, nil
}

func (f *fakeProvider) VerifyWebhook([]byte, string) (*stripe.Event, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyEvent == nil {
		return nil, errors.New("no event configured")
	}
	return f.verifyEvent, nil
}

func testCatalog() *Catalog {
	return NewCatalog(config.StripePricesConfig{
		PremiumMonthly: "price_pm",
		PremiumYearly:  "price_py",
		FamilyMonthly:  "price_fm",
		FamilyYearly:   "price_fy",
	})
}

func newTestService(store *fakeProfileStore, p provider.Provider) *Service {
	return NewService(store, p, testCatalog(), "https://plateful.app", zap.NewNop())
}

func freeProfile(userID string) *profile.Profile {
	return &profile.Profile{UserID: userID, Email: userID + "@example.com", UserName: userID}
}

func subscribedProfile(userID, subID string) *profile.Profile {
	p := freeProfile(userID)
	p.SubscriptionActive = true
	p.SubscriptionTier = str("premium")
	p.SubscriptionInterval = str("month")
	p.StripeSubscriptionID = str(subID)
	return p
}

func TestCheckout(t *testing.T) {
	t.Run("creates session with correlation metadata", func(t *testing.T) {
		prov := &fakeProvider{plan: &provider.Plan{Tier: "family", Interval: "year"}}
		svc := newTestService(newFakeProfileStore(freeProfile("u1")), prov)

		resp, err := svc.Checkout(context.Background(), "u1", "u1@example.com", "u1", CheckoutRequest{
			Name:            "Family",
			BillingInterval: "year",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/cs_1", resp.URL)
		require.NotNil(t, prov.lastParams)
		assert.Equal(t, "price_fy", prov.lastParams.PriceID)
		assert.Equal(t, "u1", prov.lastParams.Metadata["userId"])
		assert.Equal(t, "family", prov.lastParams.Metadata["tier"])
		assert.Equal(t, "year", prov.lastParams.Metadata["interval"])
	})

	t.Run("requires a billing interval", func(t *testing.T) {
		prov := &fakeProvider{}
		svc := newTestService(newFakeProfileStore(freeProfile("u1")), prov)

		_, err := svc.Checkout(context.Background(), "u1", "u1@example.com", "u1", CheckoutRequest{
			Name: "Premium",
		})

		assert.ErrorIs(t, err, ErrMissingBillingInterval)
		assert.Nil(t, prov.lastParams)
	})

	t.Run("rejects unknown plan name", func(t *testing.T) {
		svc := newTestService(newFakeProfileStore(freeProfile("u1")), &fakeProvider{})

		_, err := svc.Checkout(context.Background(), "u1", "u1@example.com", "u1", CheckoutRequest{
			Name:            "Enterprise",
			BillingInterval: "month",
		})

		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("rejects free plan", func(t *testing.T) {
		svc := newTestService(newFakeProfileStore(freeProfile("u1")), &fakeProvider{})

		_, err := svc.Checkout(context.Background(), "u1", "u1@example.com", "u1", CheckoutRequest{
			Name:            "Free",
			BillingInterval: "month",
		})

		assert.ErrorIs(t, err, ErrPlanNotPurchasable)
	})
}

func TestChangePlan(t *testing.T) {
	t.Run("no subscription redirects to checkout without touching the profile", func(t *testing.T) {
		store := newFakeProfileStore(freeProfile("u1"))
		prov := &fakeProvider{}
		svc := newTestService(store, prov)

		result, err := svc.ChangePlan(context.Background(), "u1", "u1@example.com", "u1", ChangePlanRequest{
			NewPlanID: "premium",
		})

		require.NoError(t, err)
		assert.Equal(t, ModeRedirect, result.Mode)
		assert.NotEmpty(t, result.URL)
		assert.Empty(t, store.updates)
		assert.Equal(t, "u1", prov.lastParams.Metadata["userId"])
	})

	t.Run("existing subscription is updated in place", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		prov := &fakeProvider{
			subscription: &provider.Subscription{
				ID:               "sub_1",
				Status:           "active",
				CurrentPeriodEnd: 1700000000,
				Items:            []provider.SubscriptionItem{{ID: "si_1", PriceID: "price_pm"}},
			},
			plan: &provider.Plan{Tier: "family", Interval: "month"},
		}
		svc := newTestService(store, prov)

		result, err := svc.ChangePlan(context.Background(), "u1", "u1@example.com", "u1", ChangePlanRequest{
			NewPlanID: "family",
		})

		require.NoError(t, err)
		assert.Equal(t, ModeUpdated, result.Mode)
		assert.True(t, result.Success)
		require.NotNil(t, result.Subscription)
		assert.Equal(t, "sub_1", result.Subscription.ID)
		assert.Equal(t, "price_fm", prov.priceChange)

		require.Len(t, store.updates, 1)
		applied := store.updates[0]
		assert.True(t, applied.Active)
		assert.Equal(t, "family", *applied.Tier)
		assert.Equal(t, "month", *applied.Interval)
		assert.Equal(t, "sub_1", *applied.SubscriptionID)
		assert.False(t, applied.CancelAtPeriodEnd)
	})

	t.Run("provider failure leaves the profile unchanged", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		prov := &fakeProvider{
			subscription: &provider.Subscription{
				ID:    "sub_1",
				Items: []provider.SubscriptionItem{{ID: "si_1"}},
			},
			changeErr: errors.New("provider down"),
		}
		svc := newTestService(store, prov)

		_, err := svc.ChangePlan(context.Background(), "u1", "u1@example.com", "u1", ChangePlanRequest{
			NewPlanID: "family",
		})

		require.Error(t, err)
		assert.Empty(t, store.updates)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newTestService(newFakeProfileStore(), &fakeProvider{})

		_, err := svc.ChangePlan(context.Background(), "nobody", "n@example.com", "n", ChangePlanRequest{
			NewPlanID: "premium",
		})

		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("schedules cancellation and keeps subscription active", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{subscription: &provider.Subscription{ID: "sub_1"}})

		resp, err := svc.Unsubscribe(context.Background(), "u1")

		require.NoError(t, err)
		assert.True(t, resp.Success)
		p := store.profiles["u1"]
		assert.True(t, p.SubscriptionActive)
		assert.True(t, p.CancelAtPeriodEnd)
	})

	t.Run("requires an active subscription", func(t *testing.T) {
		store := newFakeProfileStore(freeProfile("u1"))
		svc := newTestService(store, &fakeProvider{})

		_, err := svc.Unsubscribe(context.Background(), "u1")

		assert.ErrorIs(t, err, ErrNoActiveSubscription)
	})
}

func TestReactivate(t *testing.T) {
	t.Run("clears pending cancellation", func(t *testing.T) {
		p := subscribedProfile("u1", "sub_1")
		p.CancelAtPeriodEnd = true
		store := newFakeProfileStore(p)
		svc := newTestService(store, &fakeProvider{subscription: &provider.Subscription{ID: "sub_1"}})

		resp, err := svc.Reactivate(context.Background(), "u1")

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.False(t, store.profiles["u1"].CancelAtPeriodEnd)
	})

	t.Run("requires a pending cancellation", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{})

		_, err := svc.Reactivate(context.Background(), "u1")

		assert.ErrorIs(t, err, ErrNoPendingCancellation)
	})
}

func TestStatus(t *testing.T) {
	t.Run("free user sees the trial limit", func(t *testing.T) {
		p := freeProfile("u1")
		p.Usage = 3
		svc := newTestService(newFakeProfileStore(p), &fakeProvider{})

		resp, err := svc.Status(context.Background(), "u1")

		require.NoError(t, err)
		assert.False(t, resp.IsSubscribed)
		assert.Equal(t, 3, resp.Usage)
		require.NotNil(t, resp.Limit)
		assert.Equal(t, profile.FreeTrialLimit, *resp.Limit)
	})

	t.Run("subscribed user has no limit", func(t *testing.T) {
		svc := newTestService(newFakeProfileStore(subscribedProfile("u1", "sub_1")), &fakeProvider{})

		resp, err := svc.Status(context.Background(), "u1")

		require.NoError(t, err)
		assert.True(t, resp.IsSubscribed)
		assert.Nil(t, resp.Limit)
		assert.Equal(t, "premium", *resp.SubscriptionTier)
	})
}

func TestProcessCheckoutCompleted(t *testing.T) {
	t.Run("applies metadata to the profile", func(t *testing.T) {
		store := newFakeProfileStore(freeProfile("u1"))
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessCheckoutCompleted(context.Background(), "u1", "sub_9", "premium", "month")

		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, outcome)
		p := store.profiles["u1"]
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, "premium", *p.SubscriptionTier)
		assert.Equal(t, "month", *p.SubscriptionInterval)
		assert.Equal(t, "sub_9", *p.StripeSubscriptionID)
	})

	t.Run("missing user id is acknowledged without mutation", func(t *testing.T) {
		store := newFakeProfileStore(freeProfile("u1"))
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessCheckoutCompleted(context.Background(), "", "sub_9", "premium", "month")

		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
		assert.Empty(t, store.updates)
	})

	t.Run("unknown user is acknowledged without mutation", func(t *testing.T) {
		store := newFakeProfileStore()
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessCheckoutCompleted(context.Background(), "ghost", "sub_9", "premium", "month")

		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
	})
}

func TestProcessSubscriptionEvents(t *testing.T) {
	t.Run("payment failed marks inactive only", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessPaymentFailed(context.Background(), "sub_1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, outcome)
		p := store.profiles["u1"]
		assert.False(t, p.SubscriptionActive)
		assert.Equal(t, "premium", *p.SubscriptionTier)
		assert.Equal(t, "sub_1", *p.StripeSubscriptionID)
	})

	t.Run("deletion resets the profile", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessSubscriptionDeleted(context.Background(), "sub_1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, outcome)
		p := store.profiles["u1"]
		assert.False(t, p.SubscriptionActive)
		assert.Nil(t, p.SubscriptionTier)
		assert.Nil(t, p.SubscriptionInterval)
		assert.Nil(t, p.StripeSubscriptionID)
		assert.False(t, p.CancelAtPeriodEnd)
	})

	t.Run("update recomputes from the current price", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{plan: &provider.Plan{Tier: "family", Interval: "year"}})

		outcome, err := svc.ProcessSubscriptionUpdated(context.Background(), "sub_1", "active", "price_fy", true)

		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, outcome)
		p := store.profiles["u1"]
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, "family", *p.SubscriptionTier)
		assert.Equal(t, "year", *p.SubscriptionInterval)
		assert.True(t, p.CancelAtPeriodEnd)
	})

	t.Run("update without line items is ignored", func(t *testing.T) {
		store := newFakeProfileStore(subscribedProfile("u1", "sub_1"))
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessSubscriptionUpdated(context.Background(), "sub_1", "active", "", false)

		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
		assert.Empty(t, store.updates)
	})

	t.Run("unknown subscription is acknowledged", func(t *testing.T) {
		store := newFakeProfileStore()
		svc := newTestService(store, &fakeProvider{})

		outcome, err := svc.ProcessSubscriptionDeleted(context.Background(), "sub_unknown")

		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
	})
}

// Creating a checkout session and replaying its metadata through checkout
// completion must land the same tier and interval on the profile.
func TestCheckoutMetadataRoundTrip(t *testing.T) {
	store := newFakeProfileStore(freeProfile("u1"))
	prov := &fakeProvider{plan: &provider.Plan{Tier: "family", Interval: "year"}}
	svc := newTestService(store, prov)

	_, err := svc.Checkout(context.Background(), "u1", "u1@example.com", "u1", CheckoutRequest{
		Name:            "Family",
		BillingInterval: "year",
	})
	require.NoError(t, err)

	md := prov.lastParams.Metadata
	outcome, err := svc.ProcessCheckoutCompleted(context.Background(), md["userId"], "sub_rt", md["tier"], md["interval"])
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	p := store.profiles["u1"]
	assert.True(t, p.SubscriptionActive)
	assert.Equal(t, "family", *p.SubscriptionTier)
	assert.Equal(t, "year", *p.SubscriptionInterval)
}
