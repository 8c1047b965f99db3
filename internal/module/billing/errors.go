package billing

import "errors"

// Module errors.
var (
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPlanNotPurchasable      = errors.New("plan is not purchasable")
	ErrNoActiveSubscription    = errors.New("no active subscription")
	ErrNoPendingCancellation   = errors.New("subscription is not scheduled for cancellation")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrMissingPriceID          = errors.New("price id is required")
	ErrMissingBillingInterval  = errors.New("billing interval is required")
)
