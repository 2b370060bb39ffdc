package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// MockSender records intents per channel and optionally fails every send
type MockSender struct {
	ChannelName models.Channel
	Sent        []models.NotificationIntent
	ShouldFail  bool
	Mu          sync.Mutex
}

func NewMockSender(ch models.Channel) *MockSender {
	return &MockSender{ChannelName: ch}
}

func (m *MockSender) Channel() models.Channel { return m.ChannelName }

func (m *MockSender) Send(ctx context.Context, intent models.NotificationIntent) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("send failed")
	}
	m.Sent = append(m.Sent, intent)
	return nil
}

func (m *MockSender) SentCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Sent)
}
