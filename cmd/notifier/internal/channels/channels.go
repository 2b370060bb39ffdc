package channels

import (
	"context"
	"errors"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// ErrNotConfigured means the channel has no credentials and cannot send.
var ErrNotConfigured = errors.New("channel not configured")

// Sender delivers one notification over one channel. Implementations must
// be safe to call with intents missing channel-specific contact info and
// report that as an error rather than panic.
type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, intent models.NotificationIntent) error
}
