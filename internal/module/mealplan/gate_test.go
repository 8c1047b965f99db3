package mealplan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plateful/server/internal/module/profile"
)

func TestCanGenerate(t *testing.T) {
	tests := []struct {
		name             string
		subscribed       bool
		usage            int
		wantAllow        bool
		wantLimitReached bool
		wantRemaining    int
	}{
		{"fresh free user", false, 0, true, false, profile.FreeTrialLimit},
		{"one below limit", false, profile.FreeTrialLimit - 1, true, false, 1},
		{"at limit", false, profile.FreeTrialLimit, false, true, 0},
		{"over limit", false, profile.FreeTrialLimit + 3, false, true, 0},
		{"subscribed fresh", true, 0, true, false, 0},
		{"subscribed over limit", true, 100, true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanGenerate(tt.subscribed, tt.usage)
			assert.Equal(t, tt.wantAllow, d.Allow)
			assert.Equal(t, tt.wantLimitReached, d.LimitReached)
			assert.Equal(t, tt.wantRemaining, d.Remaining)
		})
	}
}

func TestCanGenerate_AllowAndLimitReachedExclusive(t *testing.T) {
	for usage := 0; usage <= profile.FreeTrialLimit+1; usage++ {
		d := CanGenerate(false, usage)
		assert.NotEqual(t, d.Allow, d.LimitReached, fmt.Sprintf("usage=%d", usage))
	}
}
