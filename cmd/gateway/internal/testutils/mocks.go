package testutils

import (
	"errors"
	"sync"
)

// MockSubscriber records every frame pushed to it and can be flipped into
// a failing state to simulate a dead connection.
type MockSubscriber struct {
	Name       string
	ShouldFail bool

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func NewMockSubscriber(name string) *MockSubscriber {
	return &MockSubscriber{Name: name}
}

func (m *MockSubscriber) ID() string { return m.Name }

func (m *MockSubscriber) Send(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail || m.closed {
		return errors.New("subscriber gone")
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.frames = append(m.frames, cp)
	return nil
}

func (m *MockSubscriber) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *MockSubscriber) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

func (m *MockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
