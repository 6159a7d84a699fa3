package catalog

import (
	"context"
	"fmt"
)

const CrawlEventType = "catalog.crawl"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// KafkaNotifier requests a crawl by publishing a catalog.crawl event for a
// catalog worker to act on.
type KafkaNotifier struct {
	publisher EventPublisher
	source    string
}

func NewKafkaNotifier(publisher EventPublisher, source string) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, source: source}
}

func (k *KafkaNotifier) StartCrawler(ctx context.Context, name string) error {
	err := k.publisher.PublishEvent(ctx, CrawlEventType, k.source, map[string]interface{}{
		"crawler": name,
	})
	if err != nil {
		return fmt.Errorf("publishing crawl request for %s: %w", name, err)
	}
	return nil
}
