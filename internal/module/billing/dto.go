package billing

// CheckoutRequest starts a hosted checkout flow for a purchasable plan.
// The name is resolved against the server-side catalog, which is the
// only source of price ids.
type CheckoutRequest struct {
	BillingInterval string `json:"billingInterval"`
	Name            string `json:"name" binding:"required"`
}

// CheckoutResponse carries the hosted checkout redirect target.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// ChangePlanRequest switches the caller to a new plan. NewPlanID may be a
// catalog plan id or a provider price id.
type ChangePlanRequest struct {
	NewPlanID       string `json:"newPlanId" binding:"required"`
	BillingInterval string `json:"billingInterval"`
	ReturnURL       string `json:"returnUrl"`
}

// BillingIntervalOrDefault returns the requested interval, defaulting to
// monthly when the client did not pick one.
func (r ChangePlanRequest) BillingIntervalOrDefault() string {
	if r.BillingInterval == "" {
		return "month"
	}
	return r.BillingInterval
}

// SubscriptionSummary is the client-facing view of a provider subscription.
type SubscriptionSummary struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd"`
}

// ChangePlanResult is either an in-place update or a checkout redirect.
type ChangePlanResult struct {
	Mode         string               `json:"-"`
	Success      bool                 `json:"success,omitempty"`
	Message      string               `json:"message,omitempty"`
	Subscription *SubscriptionSummary `json:"subscription,omitempty"`
	URL          string               `json:"url,omitempty"`
}

// Change-plan result modes.
const (
	ModeUpdated  = "updated"
	ModeRedirect = "redirect"
)

// ActionResponse acknowledges unsubscribe/reactivate requests.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse is the caller's current subscription and usage state.
// Limit is null for subscribed users, who have no generation cap.
type StatusResponse struct {
	IsSubscribed         bool    `json:"isSubscribed"`
	SubscriptionTier     *string `json:"subscriptionTier"`
	SubscriptionInterval *string `json:"subscriptionInterval"`
	CancelAtPeriodEnd    bool    `json:"cancelAtPeriodEnd"`
	Usage                int     `json:"usage"`
	Limit                *int    `json:"limit"`
}
