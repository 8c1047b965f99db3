package provider

import (
	"context"

	"github.com/stripe/stripe-go/v76"
)

// Customer is a billing-provider customer.
type Customer struct {
	ID    string
	Email string
}

// SubscriptionItem is a single line item on a subscription.
type SubscriptionItem struct {
	ID      string
	PriceID string
}

// Subscription is a billing-provider subscription.
type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	CurrentPeriodEnd  int64
	CancelAtPeriodEnd bool
	Items             []SubscriptionItem
}

// Plan is the tier/interval vocabulary resolved from a provider price.
type Plan struct {
	Tier     string
	Interval string
}

// CheckoutSession is a provider-hosted checkout flow.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutParams configures a new checkout session. Metadata carries the
// application user id plus tier/interval; the provider's checkout-completion
// event is the only one that cannot be correlated via a locally stored
// subscription id.
type CheckoutParams struct {
	CustomerID    string
	CustomerEmail string
	PriceID       string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// Provider wraps the hosted subscription-billing API.
type Provider interface {
	// FindOrCreateCustomer looks up a customer by email and creates one if
	// none exists. At most one customer is created per call.
	FindOrCreateCustomer(ctx context.Context, email, name string) (*Customer, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ChangeSubscriptionPrice replaces the given item's price in place,
	// clears any pending cancellation and requests prorated billing.
	ChangeSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*Subscription, error)

	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)

	// ResolvePlan maps a price id to the application's tier/interval
	// vocabulary via the price's product metadata. Tier defaults to
	// "premium" and interval to "month" when the provider data is unset.
	ResolvePlan(ctx context.Context, priceID string) (*Plan, error)

	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)

	// VerifyWebhook checks the payload signature and returns the parsed
	// event. An invalid signature fails the whole delivery.
	VerifyWebhook(payload []byte, signature string) (*stripe.Event, error)
}
