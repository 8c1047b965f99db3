package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/plateful/server/internal/module/billing/provider"
	"github.com/plateful/server/internal/module/profile"
)

// ProfileStore is the slice of the profile repository the billing
// service reads and mutates.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*profile.Profile, error)
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*profile.Profile, error)
	UpdateSubscription(ctx context.Context, userID string, sub profile.Subscription) error
	SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error
}

// Service orchestrates checkout, plan changes and webhook reconciliation.
type Service struct {
	profiles ProfileStore
	provider provider.Provider
	catalog  *Catalog
	baseURL  string
	logger   *zap.Logger
}

// NewService creates a billing service.
func NewService(profiles ProfileStore, p provider.Provider, catalog *Catalog, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		provider: p,
		catalog:  catalog,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Checkout creates a hosted checkout session for a purchasable plan and
// returns its redirect URL. The plan name and interval are resolved
// against the catalog, which is the only source of price ids.
func (s *Service) Checkout(ctx context.Context, userID, email, userName string, req CheckoutRequest) (*CheckoutResponse, error) {
	if req.BillingInterval == "" {
		return nil, ErrMissingBillingInterval
	}

	plan, err := s.catalog.ByName(req.Name)
	if err != nil {
		return nil, err
	}
	if !plan.Purchasable() {
		return nil, ErrPlanNotPurchasable
	}

	priceID, err := plan.PriceFor(req.BillingInterval)
	if err != nil {
		return nil, err
	}

	cust, err := s.provider.FindOrCreateCustomer(ctx, email, userName)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	resolved, err := s.provider.ResolvePlan(ctx, priceID)
	if err != nil {
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		CustomerID: cust.ID,
		PriceID:    priceID,
		Metadata:   checkoutMetadata(userID, resolved),
		SuccessURL: s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/plans",
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("user_id", userID),
		zap.String("session_id", sess.ID),
		zap.String("price_id", priceID))

	return &CheckoutResponse{URL: sess.URL}, nil
}

// ChangePlan moves the caller to a new price. With an existing
// subscription the price is swapped in place and the profile updated
// immediately; without one a checkout session is created and the profile
// is left untouched until the completion webhook arrives.
func (s *Service) ChangePlan(ctx context.Context, userID, email, userName string, req ChangePlanRequest) (*ChangePlanResult, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	priceID, err := s.resolvePriceID(req.NewPlanID, req.BillingIntervalOrDefault())
	if err != nil {
		return nil, err
	}

	cust, err := s.provider.FindOrCreateCustomer(ctx, email, userName)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	if prof.StripeSubscriptionID != nil && *prof.StripeSubscriptionID != "" {
		return s.updateExistingSubscription(ctx, prof, *prof.StripeSubscriptionID, priceID)
	}

	return s.redirectToCheckout(ctx, userID, cust.ID, priceID, req.ReturnURL)
}

func (s *Service) updateExistingSubscription(ctx context.Context, prof *profile.Profile, subscriptionID, priceID string) (*ChangePlanResult, error) {
	sub, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if len(sub.Items) == 0 {
		return nil, ErrNoActiveSubscription
	}

	updated, err := s.provider.ChangeSubscriptionPrice(ctx, subscriptionID, sub.Items[0].ID, priceID)
	if err != nil {
		return nil, fmt.Errorf("change subscription price: %w", err)
	}

	resolved, err := s.provider.ResolvePlan(ctx, priceID)
	if err != nil {
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	next := profile.Subscription{
		Active:            true,
		Tier:              &resolved.Tier,
		Interval:          &resolved.Interval,
		SubscriptionID:    &subscriptionID,
		CancelAtPeriodEnd: false,
	}
	if err := s.profiles.UpdateSubscription(ctx, prof.UserID, next); err != nil {
		return nil, err
	}

	s.logger.Info("subscription price updated",
		zap.String("user_id", prof.UserID),
		zap.String("subscription_id", subscriptionID),
		zap.String("tier", resolved.Tier),
		zap.String("interval", resolved.Interval))

	return &ChangePlanResult{
		Mode:    ModeUpdated,
		Success: true,
		Subscription: &SubscriptionSummary{
			ID:               updated.ID,
			Status:           updated.Status,
			CurrentPeriodEnd: updated.CurrentPeriodEnd,
		},
	}, nil
}

func (s *Service) redirectToCheckout(ctx context.Context, userID, customerID, priceID, returnURL string) (*ChangePlanResult, error) {
	resolved, err := s.provider.ResolvePlan(ctx, priceID)
	if err != nil {
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	successURL := returnURL
	if successURL == "" {
		successURL = s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Metadata:   checkoutMetadata(userID, resolved),
		SuccessURL: successURL,
		CancelURL:  s.baseURL + "/plans",
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("plan change redirected to checkout",
		zap.String("user_id", userID),
		zap.String("session_id", sess.ID),
		zap.String("price_id", priceID))

	return &ChangePlanResult{Mode: ModeRedirect, URL: sess.URL}, nil
}

// Unsubscribe schedules cancellation at period end. The subscription stays
// active until the provider finishes the period and sends the deletion event.
func (s *Service) Unsubscribe(ctx context.Context, userID string) (*ActionResponse, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prof.StripeSubscriptionID == nil || !prof.SubscriptionActive {
		return nil, ErrNoActiveSubscription
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, *prof.StripeSubscriptionID, true); err != nil {
		return nil, fmt.Errorf("schedule cancellation: %w", err)
	}
	if err := s.profiles.SetCancelAtPeriodEnd(ctx, userID, true); err != nil {
		return nil, err
	}

	s.logger.Info("subscription cancellation scheduled",
		zap.String("user_id", userID),
		zap.String("subscription_id", *prof.StripeSubscriptionID))

	return &ActionResponse{
		Success: true,
		Message: "Subscription will be cancelled at the end of the billing period.",
	}, nil
}

// Reactivate clears a pending cancellation.
func (s *Service) Reactivate(ctx context.Context, userID string) (*ActionResponse, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prof.StripeSubscriptionID == nil {
		return nil, ErrNoActiveSubscription
	}
	if !prof.CancelAtPeriodEnd {
		return nil, ErrNoPendingCancellation
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, *prof.StripeSubscriptionID, false); err != nil {
		return nil, fmt.Errorf("clear cancellation: %w", err)
	}
	if err := s.profiles.SetCancelAtPeriodEnd(ctx, userID, false); err != nil {
		return nil, err
	}

	s.logger.Info("subscription reactivated",
		zap.String("user_id", userID),
		zap.String("subscription_id", *prof.StripeSubscriptionID))

	return &ActionResponse{
		Success: true,
		Message: "Subscription reactivated.",
	}, nil
}

// Status reports the caller's subscription and usage state.
func (s *Service) Status(ctx context.Context, userID string) (*StatusResponse, error) {
	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{
		IsSubscribed:         prof.SubscriptionActive,
		SubscriptionTier:     prof.SubscriptionTier,
		SubscriptionInterval: prof.SubscriptionInterval,
		CancelAtPeriodEnd:    prof.CancelAtPeriodEnd,
		Usage:                prof.Usage,
	}
	if !prof.SubscriptionActive {
		limit := profile.FreeTrialLimit
		resp.Limit = &limit
	}
	return resp, nil
}

// Plans returns the purchasable catalog.
func (s *Service) Plans() []CatalogPlan {
	return s.catalog.List()
}

// Webhook processing outcomes, used for logging and metrics.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
)

// ProcessCheckoutCompleted applies a completed checkout to the profile
// named in the session metadata. Missing correlation data is logged and
// acknowledged so the provider does not retry.
func (s *Service) ProcessCheckoutCompleted(ctx context.Context, userID, subscriptionID, tier, interval string) (string, error) {
	if userID == "" || subscriptionID == "" {
		s.logger.Warn("checkout completion missing correlation data",
			zap.String("user_id", userID),
			zap.String("subscription_id", subscriptionID))
		return OutcomeIgnored, nil
	}

	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			s.logger.Warn("checkout completion for unknown user", zap.String("user_id", userID))
			return OutcomeIgnored, nil
		}
		return "", err
	}

	next := Reconcile(prof.Subscription(), CheckoutCompleted{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Tier:           tier,
		Interval:       interval,
	})
	if err := s.profiles.UpdateSubscription(ctx, userID, next); err != nil {
		return "", err
	}

	s.logger.Info("checkout completion applied",
		zap.String("user_id", userID),
		zap.String("subscription_id", subscriptionID),
		zap.String("tier", tier),
		zap.String("interval", interval))
	return OutcomeApplied, nil
}

// ProcessPaymentFailed marks the owning profile inactive. Tier, interval
// and the subscription id are kept for recovery after payment is fixed.
func (s *Service) ProcessPaymentFailed(ctx context.Context, subscriptionID string) (string, error) {
	return s.applyBySubscriptionID(ctx, subscriptionID, PaymentFailed{SubscriptionID: subscriptionID})
}

// ProcessSubscriptionDeleted resets the owning profile to the
// unsubscribed state.
func (s *Service) ProcessSubscriptionDeleted(ctx context.Context, subscriptionID string) (string, error) {
	return s.applyBySubscriptionID(ctx, subscriptionID, SubscriptionDeleted{SubscriptionID: subscriptionID})
}

// ProcessSubscriptionUpdated recomputes the profile's subscription fields
// from the remote subscription. The price id must come from the
// subscription's first line item; updates without items are ignored.
func (s *Service) ProcessSubscriptionUpdated(ctx context.Context, subscriptionID, status, priceID string, cancelAtPeriodEnd bool) (string, error) {
	if priceID == "" {
		s.logger.Warn("subscription update without line items",
			zap.String("subscription_id", subscriptionID))
		return OutcomeIgnored, nil
	}

	resolved, err := s.provider.ResolvePlan(ctx, priceID)
	if err != nil {
		return "", fmt.Errorf("resolve plan: %w", err)
	}

	return s.applyBySubscriptionID(ctx, subscriptionID, SubscriptionUpdated{
		SubscriptionID:    subscriptionID,
		Status:            status,
		Tier:              resolved.Tier,
		Interval:          resolved.Interval,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
	})
}

func (s *Service) applyBySubscriptionID(ctx context.Context, subscriptionID string, ev Event) (string, error) {
	if subscriptionID == "" {
		s.logger.Warn("event without subscription id")
		return OutcomeIgnored, nil
	}

	prof, err := s.profiles.GetByStripeSubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			s.logger.Warn("event for unknown subscription",
				zap.String("subscription_id", subscriptionID))
			return OutcomeIgnored, nil
		}
		return "", err
	}

	next := Reconcile(prof.Subscription(), ev)
	if err := s.profiles.UpdateSubscription(ctx, prof.UserID, next); err != nil {
		return "", err
	}

	s.logger.Info("subscription event applied",
		zap.String("user_id", prof.UserID),
		zap.String("subscription_id", subscriptionID))
	return OutcomeApplied, nil
}

// resolvePriceID accepts either a catalog plan id or a raw provider price id.
func (s *Service) resolvePriceID(planID, interval string) (string, error) {
	if planID == "" {
		return "", ErrMissingPriceID
	}
	if plan, err := s.catalog.ByID(planID); err == nil {
		return plan.PriceFor(interval)
	}
	return planID, nil
}

func checkoutMetadata(userID string, plan *provider.Plan) map[string]string {
	return map[string]string{
		"userId":   userID,
		"tier":     plan.Tier,
		"interval": plan.Interval,
	}
}
