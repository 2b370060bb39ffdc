package transport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type mockReader struct {
	Messages  []kafka.Message
	Index     int
	Committed []kafka.Message
	Mu        sync.Mutex
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Index >= len(m.Messages) {
		// Draining the script ends the loop the same way a cancelled
		// context would in production
		return kafka.Message{}, context.DeadlineExceeded
	}
	msg := m.Messages[m.Index]
	m.Index++
	return msg, nil
}

func (m *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Committed = append(m.Committed, msgs...)
	return nil
}

func (m *mockReader) Close() error { return nil }

func TestConsumer_DeliversInOrder(t *testing.T) {
	reader := &mockReader{Messages: []kafka.Message{
		{Key: []byte("BTC"), Value: []byte(`1`), Offset: 0},
		{Key: []byte("BTC"), Value: []byte(`2`), Offset: 1},
		{Key: []byte("BTC"), Value: []byte(`3`), Offset: 2},
	}}
	c := NewConsumerWithReader(reader, "price-events", "g1", zap.NewNop())

	var seen []string
	err := c.Run(context.Background(), func(ctx context.Context, msg kafka.Message) error {
		seen = append(seen, string(msg.Value))
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("Expected 3 deliveries, got %d", len(seen))
	}
	for i, want := range []string{"1", "2", "3"} {
		if seen[i] != want {
			t.Errorf("Delivery %d: expected %s, got %s", i, want, seen[i])
		}
	}
	if len(reader.Committed) != 3 {
		t.Errorf("Expected 3 commits, got %d", len(reader.Committed))
	}
}

func TestConsumer_HandlerErrorDoesNotStallLoop(t *testing.T) {
	reader := &mockReader{Messages: []kafka.Message{
		{Key: []byte("BTC"), Value: []byte(`bad`), Offset: 0},
		{Key: []byte("ETH"), Value: []byte(`good`), Offset: 1},
	}}
	c := NewConsumerWithReader(reader, "price-events", "g1", zap.NewNop())

	var handled []string
	c.Run(context.Background(), func(ctx context.Context, msg kafka.Message) error {
		handled = append(handled, string(msg.Value))
		if string(msg.Value) == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	if len(handled) != 2 {
		t.Fatalf("Expected both messages handled, got %d", len(handled))
	}
	// The failed message is still committed: at-most-once on failure
	if len(reader.Committed) != 2 {
		t.Errorf("Expected 2 commits (including the failed message), got %d", len(reader.Committed))
	}
}

func TestConsumer_StopsOnCancelledContext(t *testing.T) {
	reader := &mockReader{}
	c := NewConsumerWithReader(reader, "price-events", "g1", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, func(ctx context.Context, msg kafka.Message) error { return nil })
	if err != nil {
		t.Fatalf("Expected clean stop, got: %v", err)
	}
}
