package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumerCommitsEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, _ := json.Marshal(models.NewTriggerEvent("raw", "orders.json"))
	failing, _ := json.Marshal(models.NewTriggerEvent("raw", "broken.json"))
	reader := &fakeReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Offset: 1, Value: good},
			{Offset: 2, Value: []byte("not json")},
			{Offset: 3, Value: failing},
		},
	}

	var seen []string
	err := NewConsumerWithReader(reader).Consume(ctx, func(ctx context.Context, event models.TriggerEvent) error {
		ref, _ := event.Ref()
		seen = append(seen, ref.Key)
		if ref.Key == "broken.json" {
			return errors.New("boom")
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(seen) != 2 || seen[0] != "orders.json" || seen[1] != "broken.json" {
		t.Fatalf("unexpected handled keys %v", seen)
	}
	if len(reader.committed) != 3 {
		t.Fatalf("expected 3 commits, got %v", reader.committed)
	}
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishEvent(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "catalog-events")

	if err := producer.PublishEvent(context.Background(), "catalog.crawl", "order-etl", map[string]interface{}{"crawler": "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}

	var event models.Event
	if err := json.Unmarshal(writer.messages[0].Value, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Type != "catalog.crawl" || event.Data["crawler"] != "c1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if string(writer.messages[0].Key) != event.ID {
		t.Fatal("expected message key to be the event id")
	}
}

func TestProducerPublishEventError(t *testing.T) {
	producer := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, "catalog-events")
	if err := producer.PublishEvent(context.Background(), "catalog.crawl", "order-etl", nil); err == nil {
		t.Fatal("expected error")
	}
}
