package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// MockAlertStore simulates the Postgres backing store. MarkTriggered
// updates the in-memory view so invalidation tests see fresh cooldown state
// on the next read, like a real re-query would.
type MockAlertStore struct {
	Alerts    map[string][]models.AlertView
	FindCalls int
	Triggered []int64
	FailFind  bool
	Mu        sync.Mutex
}

func NewMockAlertStore() *MockAlertStore {
	return &MockAlertStore{Alerts: make(map[string][]models.AlertView)}
}

func (m *MockAlertStore) FindActiveAlerts(ctx context.Context, symbol string) ([]models.AlertView, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.FindCalls++
	if m.FailFind {
		return nil, errors.New("store unavailable")
	}
	// Copy so callers never alias the store's state
	out := make([]models.AlertView, len(m.Alerts[symbol]))
	copy(out, m.Alerts[symbol])
	return out, nil
}

func (m *MockAlertStore) MarkTriggered(ctx context.Context, alertID int64, when time.Time) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Triggered = append(m.Triggered, alertID)
	for symbol, views := range m.Alerts {
		for i := range views {
			if views[i].ID == alertID {
				t := when
				views[i].LastTriggeredAt = &t
				m.Alerts[symbol] = views
			}
		}
	}
	return nil
}

func (m *MockAlertStore) Close() error { return nil }

// MockIntentPublisher records published notification intents
type MockIntentPublisher struct {
	Intents    []models.NotificationIntent
	Keys       []string
	ShouldFail bool
	Mu         sync.Mutex
}

func (m *MockIntentPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("publish failed")
	}
	if intent, ok := value.(models.NotificationIntent); ok {
		m.Intents = append(m.Intents, intent)
		m.Keys = append(m.Keys, key)
	}
	return nil
}
