package models

import "time"

// Condition is the kind of price rule an alert evaluates.
type Condition string

const (
	ConditionAbove   Condition = "above"
	ConditionBelow   Condition = "below"
	ConditionCrosses Condition = "crosses"
	ConditionRange   Condition = "range"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
)

// AlertView is the denormalized projection of one active alert joined with
// its owner's contact info. This is what the evaluator caches per symbol
// (key alerts:{symbol}, short TTL) and matches quotes against.
type AlertView struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	UserEmail       string     `json:"user_email"`
	UserPhone       string     `json:"user_phone,omitempty"`
	Symbol          string     `json:"symbol"`
	Condition       Condition  `json:"condition"`
	TargetPrice     float64    `json:"target_price"`
	TargetPriceHigh *float64   `json:"target_price_high,omitempty"`
	Channels        []Channel  `json:"notification_types"`
	CooldownMinutes int        `json:"cooldown_minutes"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

// CanTrigger reports whether the alert is past its cooldown at the given
// instant. This is the single authoritative cooldown evaluator; matching
// and any audit path must both go through it.
func (a *AlertView) CanTrigger(now time.Time) bool {
	if a.LastTriggeredAt == nil {
		return true
	}
	cooldown := time.Duration(a.CooldownMinutes) * time.Minute
	return now.Sub(*a.LastTriggeredAt) >= cooldown
}

// ConditionMet evaluates the alert's rule against the current price and the
// optional previous price.
//
// above/below are boundary-inclusive. crosses needs a previous price and
// fires on a directional crossing in either direction; without a previous
// price it never fires. range needs an upper bound and is inclusive at
// both ends.
func (a *AlertView) ConditionMet(current float64, previous *float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return current >= a.TargetPrice

	case ConditionBelow:
		return current <= a.TargetPrice

	case ConditionCrosses:
		if previous == nil {
			return false
		}
		crossedUp := *previous < a.TargetPrice && a.TargetPrice <= current
		crossedDown := *previous > a.TargetPrice && a.TargetPrice >= current
		return crossedUp || crossedDown

	case ConditionRange:
		if a.TargetPriceHigh == nil {
			return false
		}
		return a.TargetPrice <= current && current <= *a.TargetPriceHigh
	}

	return false
}
