package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestConditionAbove(t *testing.T) {
	alert := &AlertView{Condition: ConditionAbove, TargetPrice: 49500}

	assert.True(t, alert.ConditionMet(50000, fp(49000)))
	assert.True(t, alert.ConditionMet(49500, nil), "above is boundary-inclusive")
	assert.False(t, alert.ConditionMet(49499.99, nil))
}

func TestConditionBelow(t *testing.T) {
	alert := &AlertView{Condition: ConditionBelow, TargetPrice: 100}

	assert.True(t, alert.ConditionMet(99, nil))
	assert.True(t, alert.ConditionMet(100, nil), "below is boundary-inclusive")
	assert.False(t, alert.ConditionMet(100.01, nil))
}

// Raising the current price can only turn above from false to true and
// below from true to false, never the reverse.
func TestAboveBelowMonotonic(t *testing.T) {
	above := &AlertView{Condition: ConditionAbove, TargetPrice: 500}
	below := &AlertView{Condition: ConditionBelow, TargetPrice: 500}

	prices := []float64{100, 250, 499.99, 500, 500.01, 750, 1000}

	prevAbove := false
	for _, p := range prices {
		got := above.ConditionMet(p, nil)
		if prevAbove && !got {
			t.Fatalf("above flipped true->false as price rose to %v", p)
		}
		prevAbove = got
	}

	prevBelow := true
	for _, p := range prices {
		got := below.ConditionMet(p, nil)
		if !prevBelow && got {
			t.Fatalf("below flipped false->true as price rose to %v", p)
		}
		prevBelow = got
	}
}

func TestConditionCrosses(t *testing.T) {
	alert := &AlertView{Condition: ConditionCrosses, TargetPrice: 49500}

	// Upward: previous < target <= current
	assert.True(t, alert.ConditionMet(50000, fp(49000)))
	assert.True(t, alert.ConditionMet(49500, fp(49000)), "landing exactly on target counts")

	// Downward: previous > target >= current
	assert.True(t, alert.ConditionMet(49000, fp(50000)))

	// Both sides above target: no crossing
	assert.False(t, alert.ConditionMet(50100, fp(50000)))
	// Both sides below target: no crossing
	assert.False(t, alert.ConditionMet(49100, fp(49000)))
}

func TestCrossesNeverFiresWithoutPreviousPrice(t *testing.T) {
	alert := &AlertView{Condition: ConditionCrosses, TargetPrice: 100}

	for _, price := range []float64{0, 50, 100, 150, 1e9} {
		assert.False(t, alert.ConditionMet(price, nil),
			"crosses must not fire without a previous price (current=%v)", price)
	}
}

// Repeated quotes above an already-crossed target, with the previous price
// also above it, must not re-fire at the condition layer.
func TestCrossesRepeatedQuotesDoNotRefire(t *testing.T) {
	alert := &AlertView{Condition: ConditionCrosses, TargetPrice: 49500}

	assert.True(t, alert.ConditionMet(50000, fp(49000)))
	assert.False(t, alert.ConditionMet(50100, fp(50000)))
	assert.False(t, alert.ConditionMet(50200, fp(50100)))
}

func TestConditionRange(t *testing.T) {
	alert := &AlertView{Condition: ConditionRange, TargetPrice: 1850, TargetPriceHigh: fp(1950)}

	assert.True(t, alert.ConditionMet(1900, nil))
	assert.True(t, alert.ConditionMet(1850, nil), "lower bound inclusive")
	assert.True(t, alert.ConditionMet(1950, nil), "upper bound inclusive")
	assert.False(t, alert.ConditionMet(1960, nil))
	assert.False(t, alert.ConditionMet(1849.99, nil))
}

func TestRangeRequiresUpperBound(t *testing.T) {
	alert := &AlertView{Condition: ConditionRange, TargetPrice: 1850}
	assert.False(t, alert.ConditionMet(1900, nil))
}

func TestUnknownConditionNeverFires(t *testing.T) {
	alert := &AlertView{Condition: Condition("percent_change"), TargetPrice: 10}
	assert.False(t, alert.ConditionMet(100, fp(50)))
}

func TestCanTriggerCooldown(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	never := &AlertView{CooldownMinutes: 60}
	assert.True(t, never.CanTrigger(now), "no prior trigger means no cooldown")

	halfIn := now.Add(-30 * time.Minute)
	blocked := &AlertView{CooldownMinutes: 60, LastTriggeredAt: &halfIn}
	assert.False(t, blocked.CanTrigger(now), "30min into a 60min cooldown must not fire")

	elapsed := now.Add(-61 * time.Minute)
	open := &AlertView{CooldownMinutes: 60, LastTriggeredAt: &elapsed}
	assert.True(t, open.CanTrigger(now), "61min after trigger must fire again")

	exact := now.Add(-60 * time.Minute)
	boundary := &AlertView{CooldownMinutes: 60, LastTriggeredAt: &exact}
	assert.True(t, boundary.CanTrigger(now), "cooldown boundary is inclusive")
}
