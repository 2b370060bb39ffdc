package models

import "time"

// NotificationIntent is produced once per firing alert and published on the
// notifications topic, keyed by user id. Transport is at-least-once, so
// the notifier may see the same intent twice.
type NotificationIntent struct {
	AlertID      int64     `json:"alert_id"`
	UserID       int64     `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	UserPhone    string    `json:"user_phone,omitempty"`
	Symbol       string    `json:"symbol"`
	Condition    Condition `json:"condition"`
	TargetPrice  float64   `json:"target_price"`
	CurrentPrice float64   `json:"current_price"`
	Channels     []Channel `json:"notification_types"`
	Timestamp    time.Time `json:"timestamp"`
}
