package billing

import "github.com/plateful/server/internal/module/profile"

// Subscription statuses that count as active locally.
const (
	statusActive   = "active"
	statusTrialing = "trialing"
)

// Event is a verified billing-provider lifecycle event, reduced to the
// fields the reconciler needs.
type Event interface {
	isEvent()
}

// CheckoutCompleted signals a finished hosted checkout. Tier and interval
// come from the checkout-session metadata written at session creation.
type CheckoutCompleted struct {
	UserID         string
	SubscriptionID string
	Tier           string
	Interval       string
}

// PaymentFailed signals a failed invoice payment for a subscription.
type PaymentFailed struct {
	SubscriptionID string
}

// SubscriptionDeleted signals a fully cancelled subscription.
type SubscriptionDeleted struct {
	SubscriptionID string
}

// SubscriptionUpdated signals any remote subscription change. Tier and
// interval are recomputed from the subscription's first line item.
type SubscriptionUpdated struct {
	SubscriptionID    string
	Status            string
	Tier              string
	Interval          string
	CancelAtPeriodEnd bool
}

func (CheckoutCompleted) isEvent()   {}
func (PaymentFailed) isEvent()       {}
func (SubscriptionDeleted) isEvent() {}
func (SubscriptionUpdated) isEvent() {}

// Reconcile maps a lifecycle event onto the subscription state that should
// be stored. Every branch writes complete values rather than deltas, so
// redelivered events converge on the same state.
func Reconcile(cur profile.Subscription, ev Event) profile.Subscription {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return profile.Subscription{
			Active:            true,
			Tier:              strPtr(e.Tier),
			Interval:          strPtr(e.Interval),
			SubscriptionID:    strPtr(e.SubscriptionID),
			CancelAtPeriodEnd: cur.CancelAtPeriodEnd,
		}
	case PaymentFailed:
		next := cur
		next.Active = false
		return next
	case SubscriptionDeleted:
		return profile.Subscription{}
	case SubscriptionUpdated:
		return profile.Subscription{
			Active:            e.Status == statusActive || e.Status == statusTrialing,
			Tier:              strPtr(e.Tier),
			Interval:          strPtr(e.Interval),
			SubscriptionID:    strPtr(e.SubscriptionID),
			CancelAtPeriodEnd: e.CancelAtPeriodEnd,
		}
	default:
		return cur
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
