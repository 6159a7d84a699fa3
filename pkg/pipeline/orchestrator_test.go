package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/synaptica-ai/order-etl/pkg/columnar"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
	"github.com/synaptica-ai/order-etl/pkg/orders"
	"github.com/synaptica-ai/order-etl/pkg/storage"
)

var fixedTime = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) StartCrawler(ctx context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, name)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type failingStore struct {
	storage.BlobStore
	getErr error
	putErr error
}

func (f *failingStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.BlobStore.Get(ctx, container, key)
}

func (f *failingStore) Put(ctx context.Context, container, key string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.BlobStore.Put(ctx, container, key, data)
}

func newTestOrchestrator(store storage.BlobStore, notifier *recordingNotifier) *Orchestrator {
	return New(store, notifier,
		WithClock(func() time.Time { return fixedTime }),
		WithLogger(logger.Discard()),
	)
}

func seed(t *testing.T, store *storage.MemoryStore, key, body string) models.ArtifactRef {
	t.Helper()
	if err := store.Put(context.Background(), "hospital-raw", key, []byte(body)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return models.ArtifactRef{Container: "hospital-raw", Key: key}
}

func TestArtifactKeyFormat(t *testing.T) {
	got := ArtifactKey(fixedTime)
	want := "hospital_parquet_output/hospital_output_20240305_14:07:09"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if ArtifactKey(fixedTime) != got {
		t.Fatal("key is not a pure function of the clock value")
	}
}

func TestRunTwoMedicines(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	ref := seed(t, store, "orders/o1.json",
		`[{"order_details":{"medicine_order_id":"O1"},"medicines":[{"medicine_id":"M1"},{"medicine_id":"M2"}]}]`)

	res, err := newTestOrchestrator(store, notifier).Run(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stage != StageDone || res.Rows != 2 || res.Records != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.OutputKey != ArtifactKey(fixedTime) {
		t.Fatalf("unexpected output key %q", res.OutputKey)
	}

	data, err := store.Get(context.Background(), "hospital-raw", res.OutputKey)
	if err != nil {
		t.Fatalf("artifact not published to input container: %v", err)
	}
	rows, err := columnar.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for i, want := range []string{"M1", "M2"} {
		if rows[i].MedicineOrderID == nil || *rows[i].MedicineOrderID != "O1" {
			t.Fatalf("row %d: expected order O1", i)
		}
		if rows[i].MedicineID == nil || *rows[i].MedicineID != want {
			t.Fatalf("row %d: expected medicine %s", i, want)
		}
		for j, v := range rows[i].Values() {
			if j == 0 || j == 16 {
				continue
			}
			if v != nil {
				t.Fatalf("row %d column %d: expected absent, got %q", i, j, *v)
			}
		}
	}

	if notifier.count() != 1 || notifier.calls[0] != "hospital_json_crawler" {
		t.Fatalf("unexpected crawler calls %v", notifier.calls)
	}
}

func TestRunZeroMedicinesPublishesEmptyArtifact(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	ref := seed(t, store, "orders/o2.json", `[{"order_details":{"medicine_order_id":"O2"},"medicines":[]}]`)

	res, err := newTestOrchestrator(store, notifier).Run(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 0 || res.Stage != StageDone {
		t.Fatalf("unexpected result %+v", res)
	}

	data, err := store.Get(context.Background(), "hospital-raw", res.OutputKey)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	n, err := columnar.NumRows(data)
	if err != nil || n != 0 {
		t.Fatalf("expected valid zero-row artifact, got n=%d err=%v", n, err)
	}
	if notifier.count() != 1 {
		t.Fatal("expected crawler to be notified")
	}
}

func TestRunMalformedInputStopsAtParse(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	ref := seed(t, store, "orders/bad.json", `{"order_details":{"medicine_order_id":"O1"},"medicines":[]}`)

	res, err := newTestOrchestrator(store, notifier).Run(context.Background(), ref)
	if err == nil {
		t.Fatal("expected error")
	}
	if stage, ok := FailedStage(err); !ok || stage != StageParsed {
		t.Fatalf("expected failure at parsed, got %v", err)
	}
	if !orders.IsParseError(err) {
		t.Fatalf("expected ParseError in chain, got %T", err)
	}
	if res.Stage != StageFetched {
		t.Fatalf("expected last reached stage fetched, got %s", res.Stage)
	}
	if keys := store.Keys(); len(keys) != 1 {
		t.Fatalf("expected no artifact to be published, got %v", keys)
	}
	if notifier.count() != 0 {
		t.Fatal("expected no crawler notification")
	}
}

func TestRunFetchFailures(t *testing.T) {
	cases := []struct {
		name  string
		ref   models.ArtifactRef
		store storage.BlobStore
		cause error
	}{
		{name: "missing object", ref: models.ArtifactRef{Container: "c", Key: "nope"}, store: storage.NewMemoryStore(), cause: storage.ErrObjectNotFound},
		{name: "empty key", ref: models.ArtifactRef{Container: "c"}, store: storage.NewMemoryStore(), cause: errInvalidRef},
		{name: "store down", ref: models.ArtifactRef{Container: "c", Key: "k"}, store: &failingStore{BlobStore: storage.NewMemoryStore(), getErr: errors.New("timeout")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			_, err := newTestOrchestrator(tc.store, notifier).Run(context.Background(), tc.ref)
			if stage, _ := FailedStage(err); stage != StageFetched {
				t.Fatalf("expected failure at fetched, got %v", err)
			}
			var ge *GatewayError
			if !errors.As(err, &ge) || ge.Op != OpFetch {
				t.Fatalf("expected fetch GatewayError, got %v", err)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Fatalf("expected cause %v, got %v", tc.cause, err)
			}
			if notifier.count() != 0 {
				t.Fatal("expected no notification")
			}
		})
	}
}

func TestRunPublishFailureSkipsNotify(t *testing.T) {
	mem := storage.NewMemoryStore()
	ref := seed(t, mem, "orders/o1.json", `[{"medicines":[{"medicine_id":"M1"}]}]`)
	store := &failingStore{BlobStore: mem, putErr: errors.New("access denied")}
	notifier := &recordingNotifier{}

	res, err := newTestOrchestrator(store, notifier).Run(context.Background(), ref)
	if stage, _ := FailedStage(err); stage != StagePublished {
		t.Fatalf("expected failure at published, got %v", err)
	}
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Op != OpPublish || ge.Ref.Key != ArtifactKey(fixedTime) {
		t.Fatalf("expected publish GatewayError for output key, got %v", err)
	}
	if res.OutputKey != "" || res.Stage != StageEncoded {
		t.Fatalf("unexpected result %+v", res)
	}
	if notifier.count() != 0 {
		t.Fatal("expected no notification after failed publish")
	}
}

func TestRunNotifyFailureFailsRunButKeepsArtifact(t *testing.T) {
	store := storage.NewMemoryStore()
	ref := seed(t, store, "orders/o1.json", `[{"medicines":[{"medicine_id":"M1"}]}]`)
	notifier := &recordingNotifier{err: errors.New("glue down")}

	res, err := newTestOrchestrator(store, notifier).Run(context.Background(), ref)
	if err == nil {
		t.Fatal("expected crawler failure to fail the run")
	}
	if stage, _ := FailedStage(err); stage != StageNotified {
		t.Fatalf("expected failure at notified, got %v", err)
	}
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Op != OpNotify || ge.Ref.Key != ArtifactKey(fixedTime) {
		t.Fatalf("expected notify GatewayError for output key, got %v", err)
	}
	if res.Stage != StagePublished || res.OutputKey != ArtifactKey(fixedTime) {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := store.Get(context.Background(), "hospital-raw", res.OutputKey); err != nil {
		t.Fatalf("artifact should stay published: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatal("expected exactly one crawler attempt")
	}
}

func TestRunClockReadOncePerRun(t *testing.T) {
	store := storage.NewMemoryStore()
	ref := seed(t, store, "orders/o1.json", `[{"medicines":[{"medicine_id":"M1"}]}]`)

	calls := 0
	o := New(store, &recordingNotifier{},
		WithLogger(logger.Discard()),
		WithCrawlerName("custom_crawler"),
		WithClock(func() time.Time {
			calls++
			return fixedTime.Add(time.Duration(calls) * time.Second)
		}),
	)

	res, err := o.Run(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected clock to be read once, got %d", calls)
	}
	if res.OutputKey != ArtifactKey(fixedTime.Add(time.Second)) {
		t.Fatalf("unexpected key %q", res.OutputKey)
	}
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	o := newTestOrchestrator(store, notifier)

	refs := []models.ArtifactRef{
		seed(t, store, "a.json", `[{"medicines":[{"medicine_id":"A1"}]}]`),
		seed(t, store, "b.json", `[{"medicines":[{"medicine_id":"B1"},{"medicine_id":"B2"}]}]`),
	}

	var wg sync.WaitGroup
	results := make([]*Result, len(refs))
	errs := make([]error, len(refs))
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref models.ArtifactRef) {
			defer wg.Done()
			results[i], errs[i] = o.WithFields(map[string]interface{}{"run": i}).Run(context.Background(), ref)
		}(i, ref)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if results[0].Rows != 1 || results[1].Rows != 2 {
		t.Fatalf("unexpected row counts %d/%d", results[0].Rows, results[1].Rows)
	}
	if notifier.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifier.count())
	}
}
