package models

import "time"

// PriceQuote is one market tick for an instrument, as published on the
// price-events topic. PreviousPrice is the last price the same source saw
// for the symbol; it powers edge-crossing detection and may be absent on
// the first tick after a source starts.
type PriceQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousPrice *float64  `json:"previous_price,omitempty"`
	Currency      string    `json:"currency"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}
