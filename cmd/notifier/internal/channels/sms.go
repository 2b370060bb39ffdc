package channels

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/models"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Compile-time check to ensure SMSSender implements Sender
var _ Sender = (*SMSSender)(nil)

// SMSSender delivers alerts through the Twilio Messages API.
type SMSSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	client     *http.Client
	logger     *zap.Logger
}

func NewSMSSender(cfg config.TwilioConfig, logger *zap.Logger) *SMSSender {
	return &SMSSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *SMSSender) Channel() models.Channel { return models.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	if s.accountSID == "" || s.authToken == "" {
		return ErrNotConfigured
	}
	if intent.UserPhone == "" {
		return fmt.Errorf("no phone number for user %d", intent.UserID)
	}

	form := url.Values{}
	form.Set("To", intent.UserPhone)
	form.Set("From", s.fromNumber)
	form.Set("Body", s.buildMessage(intent))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms to %s: %w", intent.UserPhone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms to %s: twilio status %d: %s", intent.UserPhone, resp.StatusCode, body)
	}

	s.logger.Info("SMS sent",
		zap.String("to", intent.UserPhone),
		zap.String("symbol", intent.Symbol))
	return nil
}

func (s *SMSSender) buildMessage(intent models.NotificationIntent) string {
	return fmt.Sprintf("%s Alert!\nPrice: $%.2f\nCondition: %s $%.2f\n- Price Alert System",
		intent.Symbol, intent.CurrentPrice, intent.Condition, intent.TargetPrice)
}
