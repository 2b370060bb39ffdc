package protocol

import (
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

const (
	TypeSnapshot  = "snapshot"
	TypeHeartbeat = "heartbeat"
	TypePing      = "ping"
	TypePong      = "pong"
)

// ClientMessage is what subscribers send us; only ping carries meaning
type ClientMessage struct {
	Type string `json:"type"`
}

// Snapshot is the full price table pushed to a subscriber on connect
type Snapshot struct {
	Type      string                       `json:"type"`
	Prices    map[string]models.PriceQuote `json:"prices"`
	Timestamp time.Time                    `json:"timestamp"`
}

// Heartbeat is sent when a subscriber has been idle past the ping timeout
type Heartbeat struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Pong answers a client ping
type Pong struct {
	Type string `json:"type"`
}

// Quote updates themselves are sent as bare models.PriceQuote JSON,
// matching the wire format of the price-events topic.
