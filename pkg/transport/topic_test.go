package transport

import (
	"context"
	"time"

	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type mockClock struct{ CurrentTime time.Time }

func (m *mockClock) Now() time.Time        { return m.CurrentTime }
func (m *mockClock) Sleep(d time.Duration) { m.CurrentTime = m.CurrentTime.Add(d) }

type mockKafkaConn struct {
	CreatedTopics []string
}

func (m *mockKafkaConn) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "broker", Port: 9092}, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	for _, t := range topics {
		m.CreatedTopics = append(m.CreatedTopics, t.Topic)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	return []kafka.Partition{{ID: 0}}, nil
}

type mockKafkaDialer struct {
	ConnSpy *mockKafkaConn
}

func (m *mockKafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	if m.ConnSpy == nil {
		m.ConnSpy = &mockKafkaConn{}
	}
	return m.ConnSpy, nil
}

func TestTopicCreator_Flow(t *testing.T) {
	dialer := &mockKafkaDialer{}
	tc := NewTopicCreator(zap.NewNop(), dialer, &mockClock{})

	tc.Create([]string{"broker:9092"}, "price-events", 4)

	if dialer.ConnSpy == nil {
		t.Fatal("Dialer was never called")
	}
	if len(dialer.ConnSpy.CreatedTopics) == 0 {
		t.Fatal("No topics created")
	}
	if dialer.ConnSpy.CreatedTopics[0] != "price-events" {
		t.Errorf("Expected topic 'price-events', got %s", dialer.ConnSpy.CreatedTopics[0])
	}
}
