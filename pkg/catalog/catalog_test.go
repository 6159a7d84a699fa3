package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
)

type fakeGlue struct {
	started []string
	err     error
}

func (f *fakeGlue) StartCrawler(ctx context.Context, params *glue.StartCrawlerInput, optFns ...func(*glue.Options)) (*glue.StartCrawlerOutput, error) {
	f.started = append(f.started, aws.ToString(params.Name))
	if f.err != nil {
		return nil, f.err
	}
	return &glue.StartCrawlerOutput{}, nil
}

func TestGlueNotifier(t *testing.T) {
	client := &fakeGlue{}
	if err := NewGlueNotifier(client).StartCrawler(context.Background(), "hospital_json_crawler"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.started) != 1 || client.started[0] != "hospital_json_crawler" {
		t.Fatalf("unexpected crawler calls %v", client.started)
	}
}

func TestGlueNotifierAlreadyRunning(t *testing.T) {
	client := &fakeGlue{err: &types.CrawlerRunningException{Message: aws.String("running")}}
	if err := NewGlueNotifier(client).StartCrawler(context.Background(), "c"); err != nil {
		t.Fatalf("expected running crawler to be accepted, got %v", err)
	}
}

func TestGlueNotifierFailure(t *testing.T) {
	cause := errors.New("throttled")
	err := NewGlueNotifier(&fakeGlue{err: cause}).StartCrawler(context.Background(), "c")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

type fakePublisher struct {
	eventType string
	data      map[string]interface{}
	err       error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	f.eventType = eventType
	f.data = data
	return f.err
}

func TestKafkaNotifier(t *testing.T) {
	pub := &fakePublisher{}
	if err := NewKafkaNotifier(pub, "order-etl").StartCrawler(context.Background(), "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.eventType != CrawlEventType || pub.data["crawler"] != "c1" {
		t.Fatalf("unexpected publish %q %v", pub.eventType, pub.data)
	}

	pub.err = errors.New("broker down")
	if err := NewKafkaNotifier(pub, "order-etl").StartCrawler(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}
}
