package mealplan

import "github.com/plateful/server/internal/module/profile"

// Decision is the usage gate's verdict on a generation request.
type Decision struct {
	Allow        bool
	LimitReached bool
	Remaining    int
}

// CanGenerate decides whether a generation is permitted. Subscribed users
// are always allowed; free-tier users are allowed while their usage count
// is below the trial limit. Remaining is meaningful only for free-tier
// users.
func CanGenerate(subscriptionActive bool, usage int) Decision {
	if subscriptionActive {
		return Decision{Allow: true}
	}
	if usage >= profile.FreeTrialLimit {
		return Decision{LimitReached: true}
	}
	return Decision{Allow: true, Remaining: profile.FreeTrialLimit - usage}
}
