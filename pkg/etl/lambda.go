package etl

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
)

// FromS3Event converts a Lambda S3 notification into a trigger event.
func FromS3Event(e events.S3Event) models.TriggerEvent {
	out := models.TriggerEvent{Records: make([]models.TriggerRecord, 0, len(e.Records))}
	for _, rec := range e.Records {
		out.Records = append(out.Records, models.TriggerRecord{
			EventName: rec.EventName,
			EventTime: rec.EventTime,
			S3: models.TriggerEntity{
				Bucket: models.TriggerBucket{Name: rec.S3.Bucket.Name},
				Object: models.TriggerObject{Key: rec.S3.Object.Key, Size: rec.S3.Object.Size},
			},
		})
	}
	return out
}

// LambdaHandler adapts the service to the Lambda runtime. Failures return
// an error so the runtime reports the invocation as failed.
func (s *Service) LambdaHandler() func(ctx context.Context, e events.S3Event) (models.InvocationResult, error) {
	return func(ctx context.Context, e events.S3Event) (models.InvocationResult, error) {
		result, err := s.Handle(ctx, FromS3Event(e))
		if err != nil {
			return models.InvocationResult{}, err
		}
		return *result, nil
	}
}
