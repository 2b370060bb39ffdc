package hub

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/protocol"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// Subscriber is one connected broadcast receiver. Send reports a dead
// connection with an error; slow consumers are the subscriber's problem,
// not the hub's.
type Subscriber interface {
	ID() string
	Send(b []byte) error
	Close()
}

// Hub owns the live price table and the subscriber set. Both are
// process-local: the table is rebuilt from the stream after a restart and
// subscribers simply reconnect. All access goes through the hub's API;
// nothing else touches this state.
type Hub struct {
	prices map[string]models.PriceQuote
	subs   map[Subscriber]bool

	logger *zap.Logger
	mu     sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		prices: make(map[string]models.PriceQuote),
		subs:   make(map[Subscriber]bool),
		logger: logger,
	}
}

// Register adds a subscriber and immediately queues a snapshot of the
// price table. The snapshot is built and enqueued under the same lock that
// admits the subscriber, so it reflects exactly the table at connect time
// and no broadcast can slip in ahead of it.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[sub] = true

	snap := protocol.Snapshot{
		Type:      protocol.TypeSnapshot,
		Prices:    make(map[string]models.PriceQuote, len(h.prices)),
		Timestamp: time.Now().UTC(),
	}
	for sym, q := range h.prices {
		snap.Prices[sym] = q
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to marshal snapshot", zap.Error(err))
		return
	}
	if err := sub.Send(payload); err != nil {
		delete(h.subs, sub)
		sub.Close()
		return
	}

	h.logger.Info("Subscriber connected",
		zap.String("id", sub.ID()),
		zap.Int("active", len(h.subs)))
}

// Unregister removes a subscriber (normal disconnect path).
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[sub] {
		delete(h.subs, sub)
		sub.Close()
		h.logger.Info("Subscriber disconnected",
			zap.String("id", sub.ID()),
			zap.Int("active", len(h.subs)))
	}
}

// Broadcast records the quote in the price table and pushes it to every
// subscriber. Failed pushes mark the subscriber for removal, applied after
// the pass completes: the set is never mutated while iterating it.
func (h *Hub) Broadcast(quote models.PriceQuote) {
	payload, err := json.Marshal(quote)
	if err != nil {
		h.logger.Error("Failed to marshal quote", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.prices[quote.Symbol] = quote

	var dead []Subscriber
	for sub := range h.subs {
		if err := sub.Send(payload); err != nil {
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		delete(h.subs, sub)
		sub.Close()
		h.logger.Info("Removed dead subscriber", zap.String("id", sub.ID()))
	}
}

// Snapshot returns a copy of the live price table.
func (h *Hub) Snapshot() map[string]models.PriceQuote {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]models.PriceQuote, len(h.prices))
	for sym, q := range h.prices {
		out[sym] = q
	}
	return out
}

// Price returns the latest quote for a symbol, if any has been seen.
func (h *Hub) Price(symbol string) (models.PriceQuote, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	q, ok := h.prices[symbol]
	return q, ok
}

// SubscriberCount reports the number of live connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Shutdown closes every subscriber connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		sub.Close()
		delete(h.subs, sub)
	}
}
