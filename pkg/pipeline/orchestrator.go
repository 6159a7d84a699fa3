package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/order-etl/pkg/catalog"
	"github.com/synaptica-ai/order-etl/pkg/columnar"
	"github.com/synaptica-ai/order-etl/pkg/common/config"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
	"github.com/synaptica-ai/order-etl/pkg/flatten"
	"github.com/synaptica-ai/order-etl/pkg/orders"
	"github.com/synaptica-ai/order-etl/pkg/storage"
)

type Stage string

const (
	StageIdle      Stage = "idle"
	StageFetched   Stage = "fetched"
	StageParsed    Stage = "parsed"
	StageFlattened Stage = "flattened"
	StageEncoded   Stage = "encoded"
	StagePublished Stage = "published"
	StageNotified  Stage = "notified"
	StageDone      Stage = "done"
)

const (
	OutputPrefix  = "hospital_parquet_output/hospital_output_"
	keyTimeLayout = "20060102_15:04:05"
)

// FailureStages lists, in order, the stages at which a run can stop.
var FailureStages = []Stage{StageFetched, StageParsed, StageEncoded, StagePublished, StageNotified}

// ArtifactKey names the output object for a publish at t.
func ArtifactKey(t time.Time) string {
	return OutputPrefix + t.Format(keyTimeLayout)
}

type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

type Result struct {
	Source    models.ArtifactRef
	OutputKey string
	Records   int
	Rows      int
	Bytes     int
	// Stage is the last stage reached. OutputKey stays set when a run fails
	// after publishing.
	Stage Stage
}

// Orchestrator runs one order batch through fetch, parse, flatten, encode,
// publish and notify. It holds no per-run state and may serve concurrent
// runs.
type Orchestrator struct {
	store    storage.BlobStore
	notifier catalog.Notifier
	clock    Clock
	crawler  string
	log      *logrus.Entry
}

type Option func(*Orchestrator)

func WithClock(clock Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithCrawlerName(name string) Option {
	return func(o *Orchestrator) { o.crawler = name }
}

func WithLogger(entry *logrus.Entry) Option {
	return func(o *Orchestrator) { o.log = entry }
}

func New(store storage.BlobStore, notifier catalog.Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		notifier: notifier,
		clock:    systemClock,
		crawler:  config.DefaultCrawlerName,
		log:      logrus.NewEntry(logger.Log),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFields returns a copy that tags every log entry with fields.
func (o *Orchestrator) WithFields(fields logrus.Fields) *Orchestrator {
	cp := *o
	cp.log = o.log.WithFields(fields)
	return &cp
}

func (o *Orchestrator) Run(ctx context.Context, ref models.ArtifactRef) (*Result, error) {
	res := &Result{Source: ref, Stage: StageIdle}
	log := o.log.WithFields(logrus.Fields{
		"container": ref.Container,
		"key":       ref.Key,
	})

	if ref.Container == "" || ref.Key == "" {
		return res, o.fail(log, res, StageFetched, &GatewayError{Op: OpFetch, Ref: ref, Err: errInvalidRef})
	}
	raw, err := o.store.Get(ctx, ref.Container, ref.Key)
	if err != nil {
		return res, o.fail(log, res, StageFetched, &GatewayError{Op: OpFetch, Ref: ref, Err: err})
	}
	o.advance(log, res, StageFetched, logrus.Fields{"bytes_in": len(raw)})

	batch, err := orders.Parse(raw)
	if err != nil {
		return res, o.fail(log, res, StageParsed, err)
	}
	res.Records = len(batch)
	o.advance(log, res, StageParsed, logrus.Fields{"records": res.Records})

	rows := flatten.Flatten(batch)
	res.Rows = len(rows)
	o.advance(log, res, StageFlattened, logrus.Fields{"rows": res.Rows})

	data, err := columnar.Encode(rows)
	if err != nil {
		return res, o.fail(log, res, StageEncoded, err)
	}
	res.Bytes = len(data)
	o.advance(log, res, StageEncoded, logrus.Fields{"bytes_out": res.Bytes})

	key := ArtifactKey(o.clock())
	out := models.ArtifactRef{Container: ref.Container, Key: key}
	if err := o.store.Put(ctx, out.Container, out.Key, data); err != nil {
		return res, o.fail(log, res, StagePublished, &GatewayError{Op: OpPublish, Ref: out, Err: err})
	}
	res.OutputKey = key
	o.advance(log, res, StagePublished, logrus.Fields{"output_key": key})

	if err := o.notifier.StartCrawler(ctx, o.crawler); err != nil {
		return res, o.fail(log.WithField("crawler", o.crawler), res, StageNotified, &GatewayError{Op: OpNotify, Ref: out, Err: err})
	}
	o.advance(log, res, StageNotified, logrus.Fields{"crawler": o.crawler})

	res.Stage = StageDone
	log.WithFields(logrus.Fields{
		"rows":       res.Rows,
		"output_key": res.OutputKey,
	}).Info("Order batch published")

	return res, nil
}

func (o *Orchestrator) advance(log *logrus.Entry, res *Result, stage Stage, fields logrus.Fields) {
	res.Stage = stage
	log.WithFields(fields).WithField("stage", stage).Debug("Stage complete")
}

func (o *Orchestrator) fail(log *logrus.Entry, res *Result, stage Stage, err error) error {
	log.WithError(err).WithFields(logrus.Fields{
		"stage":   stage,
		"reached": res.Stage,
	}).Error("Order batch run failed")
	return &StageError{Stage: stage, Err: err}
}
