package etl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
	"github.com/synaptica-ai/order-etl/pkg/observability/metrics"
	"github.com/synaptica-ai/order-etl/pkg/pipeline"
	"github.com/synaptica-ai/order-etl/pkg/runs"
)

var ErrInvalidTrigger = errors.New("invalid trigger event")

// RunTracker persists run history. *runs.Repository satisfies it.
type RunTracker interface {
	Create(ctx context.Context, run *runs.Run) error
	Finish(ctx context.Context, id string, out runs.Outcome) error
	Get(ctx context.Context, id string) (*runs.Run, error)
	Recent(ctx context.Context, limit int) ([]runs.Run, error)
	CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

type Service struct {
	orchestrator *pipeline.Orchestrator
	tracker      RunTracker
	retention    time.Duration
}

// NewService wires the orchestrator to an optional tracker; a nil tracker
// disables run history.
func NewService(orchestrator *pipeline.Orchestrator, tracker RunTracker, retention time.Duration) *Service {
	return &Service{
		orchestrator: orchestrator,
		tracker:      tracker,
		retention:    retention,
	}
}

func (s *Service) TrackingEnabled() bool {
	return s.tracker != nil
}

// Handle runs one invocation. A nil error always comes with a 200 result.
func (s *Service) Handle(ctx context.Context, event models.TriggerEvent) (*models.InvocationResult, error) {
	ref, err := event.Ref()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
	}

	runID := uuid.New().String()
	log := logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"container": ref.Container,
		"key":       ref.Key,
	})
	log.Info("Order batch received")

	if s.tracker != nil {
		if err := s.tracker.Create(ctx, &runs.Run{
			ID:        runID,
			Container: ref.Container,
			SourceKey: ref.Key,
			Stage:     string(pipeline.StageIdle),
			Status:    runs.StatusAccepted,
		}); err != nil {
			log.WithError(err).Warn("failed to record run start")
		}
	}

	res, runErr := s.orchestrator.WithFields(logrus.Fields{"run_id": runID}).Run(ctx, ref)

	outcome := runs.Outcome{
		Status:      runs.StatusSucceeded,
		Stage:       string(res.Stage),
		OutputKey:   res.OutputKey,
		RecordCount: res.Records,
		RowCount:    res.Rows,
	}
	if runErr != nil {
		outcome.Status = runs.StatusFailed
		outcome.Error = runErr.Error()
		stage, _ := pipeline.FailedStage(runErr)
		outcome.Metadata = map[string]interface{}{"failed_stage": string(stage)}
		metrics.ObserveFailure(stage)
	} else {
		metrics.ObserveSuccess(res.Rows, res.Bytes)
	}

	if s.tracker != nil {
		if err := s.tracker.Finish(ctx, runID, outcome); err != nil {
			log.WithError(err).Warn("failed to record run outcome")
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	return &models.InvocationResult{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("published %d rows to %s/%s", res.Rows, ref.Container, res.OutputKey),
		RunID:      runID,
	}, nil
}

func (s *Service) Run(ctx context.Context, id string) (*runs.Run, error) {
	if s.tracker == nil {
		return nil, runs.ErrNotFound
	}
	return s.tracker.Get(ctx, id)
}

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]runs.Run, error) {
	if s.tracker == nil {
		return nil, nil
	}
	return s.tracker.Recent(ctx, limit)
}

// Cleanup drops run history older than the retention window.
func (s *Service) Cleanup(ctx context.Context) error {
	if s.tracker == nil {
		return nil
	}
	removed, err := s.tracker.CleanupExpired(ctx, s.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("expired runs cleaned up")
	}
	return nil
}
