package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/resilience"
)

type payload struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

func TestEncodeCarriesTypeHeader(t *testing.T) {
	msg, err := encode(Event{Key: "job-1", Type: "screening_completed", Value: payload{ID: "c1", Score: 92}})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != "job-1" {
		t.Errorf("key = %q", msg.Key)
	}
	if string(msg.Value) != `{"id":"c1","score":92}` {
		t.Errorf("value = %s", msg.Value)
	}
	decoded := fromRecord(msg)
	if decoded.Type != "screening_completed" {
		t.Errorf("type = %q", decoded.Type)
	}
	got, err := DecodeJSON[payload](decoded.Value)
	if err != nil {
		t.Fatal(err)
	}
	if got != (payload{ID: "c1", Score: 92}) {
		t.Errorf("decoded = %+v", got)
	}
}

func TestEncodeWithoutTypeHasNoHeaders(t *testing.T) {
	msg, err := encode(Event{Key: "k", Value: map[string]int{"a": 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.Headers) != 0 {
		t.Errorf("headers = %v, want none", msg.Headers)
	}
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	if _, err := encode(Event{Value: make(chan int)}); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestDecodeJSONError(t *testing.T) {
	if _, err := DecodeJSON[payload]([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewLimiterBurst(t *testing.T) {
	tests := []struct {
		perSecond float64
		burst     int
	}{
		{0.5, 1},
		{1, 1},
		{25, 25},
	}
	for _, tt := range tests {
		l := newLimiter(tt.perSecond)
		if l.Burst() != tt.burst {
			t.Errorf("newLimiter(%v).Burst() = %d, want %d", tt.perSecond, l.Burst(), tt.burst)
		}
		if float64(l.Limit()) != tt.perSecond {
			t.Errorf("newLimiter(%v).Limit() = %v", tt.perSecond, l.Limit())
		}
	}
}

// fakeReader serves queued messages and cancels the consume loop once the
// queue is empty.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetched   []int64
	committed []int64
	onEmpty   context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		r.onEmpty()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	r.fetched = append(r.fetched, msg.Offset)
	r.mu.Unlock()
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func newFakeReader(cancel context.CancelFunc, offsets ...int64) *fakeReader {
	r := &fakeReader{onEmpty: cancel}
	for _, off := range offsets {
		r.queue = append(r.queue, kafka.Message{Offset: off, Value: []byte(`{}`)})
	}
	return r
}

func TestConsumerRetriesFailedMessageBeforeCommitting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newFakeReader(cancel, 1, 2)
	handled := 0
	handler := func(context.Context, Message) error {
		handled++
		if handled < 3 {
			return errors.New("publish failed")
		}
		return nil
	}
	if err := newConsumer(r, handler, fastRetry).Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if handled != 4 {
		t.Errorf("handler calls = %d, want 3 for the first message and 1 for the second", handled)
	}
	if len(r.committed) != 2 || r.committed[0] != 1 || r.committed[1] != 2 {
		t.Errorf("committed = %v, want [1 2]", r.committed)
	}
}

func TestConsumerStopsOnPersistentFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newFakeReader(cancel, 7, 8)
	attempts := 0
	handler := func(context.Context, Message) error {
		attempts++
		return errors.New("broker down")
	}
	err := newConsumer(r, handler, fastRetry).Start(ctx)
	if err == nil {
		t.Fatal("Start returned nil after the handler kept failing")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(r.committed) != 0 {
		t.Errorf("committed = %v, want nothing", r.committed)
	}
	if len(r.fetched) != 1 || r.fetched[0] != 7 {
		t.Errorf("fetched = %v, want only the failed message", r.fetched)
	}
}
