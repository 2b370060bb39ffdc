package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/notifier/internal/channels"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// RateLimiter caps notifications per user over a sliding window, delegating
// atomicity to Redis INCR. The window TTL starts at the first increment.
type RateLimiter struct {
	rdb     *redis.Client
	window  time.Duration
	ceiling int64
	logger  *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, window time.Duration, ceiling int64, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, window: window, ceiling: ceiling, logger: logger}
}

// Allow increments the user's counter and reports whether the post-increment
// count is within the ceiling. If Redis is unreachable it fails open:
// infrastructure trouble must not suppress legitimate alerts.
func (r *RateLimiter) Allow(ctx context.Context, userID int64) bool {
	key := fmt.Sprintf("rate_limit:%d", userID)

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Error("Rate limit check failed, allowing", zap.Int64("user_id", userID), zap.Error(err))
		return true
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, key, r.window).Err(); err != nil {
			r.logger.Warn("Failed to set rate window expiry", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	if count > r.ceiling {
		r.logger.Warn("Rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("count", count))
		return false
	}
	return true
}

// Dispatcher fans a notification intent out to its requested channels.
// Channels are independent: one channel failing never blocks or fails the
// others, and partial delivery is a normal outcome.
type Dispatcher struct {
	limiter *RateLimiter
	senders map[models.Channel]channels.Sender
	logger  *zap.Logger
}

func New(limiter *RateLimiter, senders []channels.Sender, logger *zap.Logger) *Dispatcher {
	byChannel := make(map[models.Channel]channels.Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Dispatcher{limiter: limiter, senders: byChannel, logger: logger}
}

// HandleIntent is the transport handler for the notifications topic.
// Rate-limited intents are dropped, not queued: a stale price alert is
// worse than no alert. It always returns nil for delivery outcomes;
// only an undecodable payload is a handler error.
func (d *Dispatcher) HandleIntent(ctx context.Context, msg kafka.Message) error {
	var intent models.NotificationIntent
	if err := json.Unmarshal(msg.Value, &intent); err != nil {
		return fmt.Errorf("dispatcher: decode intent: %w", err)
	}

	if !d.limiter.Allow(ctx, intent.UserID) {
		d.logger.Info("Dropping rate-limited intent",
			zap.Int64("alert_id", intent.AlertID),
			zap.Int64("user_id", intent.UserID))
		return nil
	}

	d.Dispatch(ctx, intent)
	return nil
}

// Dispatch sends the intent on each requested channel, recording per-channel
// outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.NotificationIntent) {
	for _, ch := range intent.Channels {
		sender, ok := d.senders[ch]
		if !ok {
			d.logger.Warn("No sender for channel",
				zap.String("channel", string(ch)),
				zap.Int64("alert_id", intent.AlertID))
			continue
		}

		if err := sender.Send(ctx, intent); err != nil {
			d.logger.Error("Channel delivery failed",
				zap.String("channel", string(ch)),
				zap.Int64("alert_id", intent.AlertID),
				zap.Int64("user_id", intent.UserID),
				zap.Error(err))
			continue
		}

		d.logger.Debug("Channel delivery succeeded",
			zap.String("channel", string(ch)),
			zap.Int64("alert_id", intent.AlertID))
	}
}
