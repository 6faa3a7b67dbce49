package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"tablebook/pkg/logger"
)

type mockWriter struct {
	mu       sync.Mutex
	written  []kafka.Message
	writeErr error
	closed   bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("+79998887744").
		WithValue(map[string]int{"booking_id": 42}).
		WithEventType(EventBookingSubmitted).
		WithSource("booking").
		WithCorrelationID("req-1").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if msg.GetEventID() == "" {
		t.Errorf("event id should be generated")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Errorf("timestamp header should be set")
	}
	if msg.GetEventType() != EventBookingSubmitted {
		t.Errorf("event type = %q", msg.GetEventType())
	}

	var body map[string]int
	if err := msg.DecodeValue(&body); err != nil || body["booking_id"] != 42 {
		t.Errorf("DecodeValue() = %v, %v", body, err)
	}
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Errorf("expected encode error")
	}
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	for i := 1; i <= 12; i++ {
		msg.IncrementRetryCount()
		if got := msg.GetRetryCount(); got != i {
			t.Fatalf("retry count = %d, want %d", got, i)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		retries int
		want    bool
	}{
		{"nil", nil, 0, false},
		{"network", errors.New("dial tcp: connection refused"), 0, true},
		{"network exhausted", errors.New("i/o timeout"), 3, false},
		{"transient wrapped", fmt.Errorf("flush: %w", NewTransientError("cache", errors.New("x"))), 1, true},
		{"permanent", NewPermanentError("bad payload", nil), 0, false},
		{"unclassified", errors.New("unexpected end of JSON input"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.retries, 3); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &mockWriter{}
	p := newProducer(w, "table-layout")

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "outer:"+msg.Topic)
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "inner")
		return next(ctx, msg)
	})

	msg, _ := NewMessage().WithKey("105").WithValue(map[string]any{"x": 780}).Build()
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(order) != 2 || order[0] != "outer:table-layout" || order[1] != "inner" {
		t.Errorf("middleware order = %v", order)
	}
	if len(w.written) != 1 || string(w.written[0].Key) != "105" {
		t.Fatalf("written = %+v", w.written)
	}
	if len(w.written[0].Headers) < 2 {
		t.Errorf("headers not forwarded")
	}
}

func TestProducer_Rejects(t *testing.T) {
	p := newProducer(&mockWriter{}, "t")

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("error = %v, want ErrEmptyKey", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("error = %v, want ErrEmptyValue", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("error = %v, want ErrProducerClosed", err)
	}
}

type mockReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockReader) committedOffsets() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.committed...)
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{
		{Offset: 1, Key: []byte("105"), Value: []byte(`{}`), Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(EventTableLayoutChanged)}}},
		{Offset: 2, Key: []byte("106"), Value: []byte(`{}`)},
	}}

	var mu sync.Mutex
	attempts := map[string]int{}
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[msg.Key]++
		if msg.Key == "106" && attempts[msg.Key] < 3 {
			return errors.New("redis: connection refused")
		}
		return nil
	}

	c := newConsumer(reader, "table-layout", 3, handler, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(reader.committedOffsets()) < 2 {
		select {
		case <-deadline:
			t.Fatal("messages were not committed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if err := c.Close(); err != nil || !reader.closed {
		t.Errorf("Close() error = %v, closed = %v", err, reader.closed)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts["105"] != 1 {
		t.Errorf("105 attempts = %d, want 1", attempts["105"])
	}
	if attempts["106"] != 3 {
		t.Errorf("transient failure should be retried, attempts = %d", attempts["106"])
	}
}
