package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/evaluator/internal/store"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

const alertCacheKeyPrefix = "alerts:"

// IntentPublisher abstracts the notifications-topic producer
type IntentPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Matcher evaluates price quotes against the active alert set for the
// symbol, using a cache-aside view over Redis with the backing store as the
// source of truth. One Matcher serves one consumer loop; its cache reads
// and writes are never concurrent.
type Matcher struct {
	rdb      *redis.Client
	store    store.Store
	intents  IntentPublisher
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func New(rdb *redis.Client, st store.Store, intents IntentPublisher, logger *zap.Logger, cacheTTL time.Duration) *Matcher {
	return &Matcher{
		rdb:      rdb,
		store:    st,
		intents:  intents,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// HandlePriceQuote is the transport handler for the price-events topic.
// Publish failures are returned so the consumer loop logs them loudly;
// everything downstream of a successful publish is the notifier's problem.
func (m *Matcher) HandlePriceQuote(ctx context.Context, msg kafka.Message) error {
	var quote models.PriceQuote
	if err := json.Unmarshal(msg.Value, &quote); err != nil {
		return fmt.Errorf("matcher: decode quote: %w", err)
	}

	intents, err := m.Match(ctx, quote)
	if err != nil {
		return err
	}

	for _, intent := range intents {
		key := strconv.FormatInt(intent.UserID, 10)
		if err := m.intents.Publish(ctx, key, intent); err != nil {
			return err
		}
	}

	if len(intents) > 0 {
		m.logger.Info("Alerts triggered",
			zap.String("symbol", quote.Symbol),
			zap.Float64("price", quote.Price),
			zap.Int("count", len(intents)))
	}
	return nil
}

// Match returns one NotificationIntent per firing alert. Firing updates the
// alert's trigger bookkeeping synchronously and invalidates the symbol's
// cached view, so the next tick re-reads the fresh cooldown state. That
// trades one guaranteed cache miss per firing symbol for trigger-time
// accuracy.
func (m *Matcher) Match(ctx context.Context, quote models.PriceQuote) ([]models.NotificationIntent, error) {
	alerts, err := m.alertsFor(ctx, quote.Symbol)
	if err != nil {
		return nil, err
	}

	var intents []models.NotificationIntent
	fired := false

	for i := range alerts {
		alert := &alerts[i]

		if !alert.CanTrigger(m.now()) {
			continue
		}
		if !alert.ConditionMet(quote.Price, quote.PreviousPrice) {
			continue
		}

		channels := alert.Channels
		if len(channels) == 0 {
			channels = []models.Channel{models.ChannelEmail}
		}

		intents = append(intents, models.NotificationIntent{
			AlertID:      alert.ID,
			UserID:       alert.UserID,
			UserEmail:    alert.UserEmail,
			UserPhone:    alert.UserPhone,
			Symbol:       quote.Symbol,
			Condition:    alert.Condition,
			TargetPrice:  alert.TargetPrice,
			CurrentPrice: quote.Price,
			Channels:     channels,
			Timestamp:    m.now(),
		})

		if err := m.store.MarkTriggered(ctx, alert.ID, m.now()); err != nil {
			m.logger.Error("Failed to record trigger",
				zap.Int64("alert_id", alert.ID),
				zap.Error(err))
		}
		fired = true

		m.logger.Info("Alert triggered",
			zap.Int64("alert_id", alert.ID),
			zap.String("symbol", quote.Symbol),
			zap.String("condition", string(alert.Condition)),
			zap.Float64("target", alert.TargetPrice),
			zap.Float64("price", quote.Price))
	}

	if fired {
		m.Invalidate(ctx, quote.Symbol)
	}
	return intents, nil
}

// alertsFor resolves the active alert view for a symbol: cache hit if
// present and unexpired, otherwise the backing store, populating the cache
// on the way out. Empty result sets are not cached. If Redis is
// unreachable the store is read directly with no caching.
func (m *Matcher) alertsFor(ctx context.Context, symbol string) ([]models.AlertView, error) {
	key := alertCacheKeyPrefix + symbol

	cached, err := m.rdb.Get(ctx, key).Result()
	if err == nil {
		var views []models.AlertView
		if jerr := json.Unmarshal([]byte(cached), &views); jerr == nil {
			return views, nil
		}
		m.logger.Warn("Dropping corrupt cache entry", zap.String("key", key))
		m.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		m.logger.Error("Alert cache unavailable, reading through", zap.Error(err))
		return m.store.FindActiveAlerts(ctx, symbol)
	}

	views, err := m.store.FindActiveAlerts(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if len(views) > 0 {
		payload, err := json.Marshal(views)
		if err == nil {
			if err := m.rdb.Set(ctx, key, payload, m.cacheTTL).Err(); err != nil {
				m.logger.Warn("Failed to populate alert cache", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return views, nil
}

// Invalidate drops the cached alert view for a symbol. The CRUD API calls
// this (via the admin endpoint) whenever alerts for the symbol change.
func (m *Matcher) Invalidate(ctx context.Context, symbol string) {
	if err := m.rdb.Del(ctx, alertCacheKeyPrefix+symbol).Err(); err != nil {
		m.logger.Warn("Cache invalidation failed", zap.String("symbol", symbol), zap.Error(err))
	}
}

// InvalidateAll drops every cached alert view.
func (m *Matcher) InvalidateAll(ctx context.Context) {
	iter := m.rdb.Scan(ctx, 0, alertCacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		m.rdb.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		m.logger.Warn("Cache scan failed", zap.Error(err))
	}
}
