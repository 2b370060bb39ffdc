package channels

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// Compile-time check to ensure EmailSender implements Sender
var _ Sender = (*EmailSender)(nil)

// EmailSender delivers alerts over SMTP with STARTTLS.
type EmailSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	logger   *zap.Logger

	// send seam for tests; defaults to smtp.SendMail
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSender(cfg config.SMTPConfig, logger *zap.Logger) *EmailSender {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &EmailSender{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     from,
		logger:   logger,
		send:     smtp.SendMail,
	}
}

func (e *EmailSender) Channel() models.Channel { return models.ChannelEmail }

func (e *EmailSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	if e.user == "" || e.password == "" {
		return ErrNotConfigured
	}

	msg := e.buildMessage(intent)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.user, e.password, e.host)

	if err := e.send(addr, auth, e.from, []string{intent.UserEmail}, msg); err != nil {
		return fmt.Errorf("email to %s: %w", intent.UserEmail, err)
	}

	e.logger.Info("Email sent",
		zap.String("to", intent.UserEmail),
		zap.String("symbol", intent.Symbol))
	return nil
}

func (e *EmailSender) buildMessage(intent models.NotificationIntent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", intent.UserEmail)
	fmt.Fprintf(&b, "Subject: Price Alert: %s triggered!\r\n", intent.Symbol)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")

	b.WriteString("Your price alert has been triggered!\r\n\r\n")
	fmt.Fprintf(&b, "Symbol: %s\r\n", intent.Symbol)
	fmt.Fprintf(&b, "Condition: %s $%.2f\r\n", intent.Condition, intent.TargetPrice)
	fmt.Fprintf(&b, "Current Price: $%.2f\r\n", intent.CurrentPrice)
	b.WriteString("\r\n---\r\nPrice Alert System\r\n")

	return []byte(b.String())
}
