package channels

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// TelegramBot is the slice of the bot API the sender needs
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Compile-time check to ensure TelegramSender implements Sender
var _ Sender = (*TelegramSender)(nil)

// TelegramSender posts alerts to a configured Telegram chat. Unlike email
// and SMS the destination is per-deployment, not per-user: the bot has no
// per-user chat mapping, so this channel behaves like an ops feed.
type TelegramSender struct {
	bot    TelegramBot
	chatID int64
	logger *zap.Logger
}

func NewTelegramSender(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramSender, error) {
	if cfg.Token == "" {
		return &TelegramSender{chatID: cfg.ChatID, logger: logger}, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

func (t *TelegramSender) Channel() models.Channel { return models.ChannelTelegram }

func (t *TelegramSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	if t.bot == nil || t.chatID == 0 {
		return ErrNotConfigured
	}

	text := fmt.Sprintf("%s alert for user %d\nPrice: $%.2f\nCondition: %s $%.2f",
		intent.Symbol, intent.UserID, intent.CurrentPrice, intent.Condition, intent.TargetPrice)

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	t.logger.Info("Telegram message sent",
		zap.Int64("chat_id", t.chatID),
		zap.String("symbol", intent.Symbol))
	return nil
}
