package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNoTriggerRecord         = errors.New("trigger event carries no object record")
	ErrIncompleteTriggerRecord = errors.New("trigger record names no bucket or object key")
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // catalog.crawl
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// ArtifactRef addresses one stored object.
type ArtifactRef struct {
	Container string `json:"container"`
	Key       string `json:"key"`
}

func (r ArtifactRef) String() string {
	return r.Container + "/" + r.Key
}

// Object-store notification envelope. Only the first record is read.
type TriggerEvent struct {
	Records []TriggerRecord `json:"Records"`
}

type TriggerRecord struct {
	EventName string        `json:"eventName,omitempty"`
	EventTime time.Time     `json:"eventTime,omitempty"`
	S3        TriggerEntity `json:"s3"`
}

type TriggerEntity struct {
	Bucket TriggerBucket `json:"bucket"`
	Object TriggerObject `json:"object"`
}

type TriggerBucket struct {
	Name string `json:"name"`
}

type TriggerObject struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// NewTriggerEvent builds a single-record trigger for container/key.
func NewTriggerEvent(container, key string) TriggerEvent {
	return TriggerEvent{Records: []TriggerRecord{{
		S3: TriggerEntity{
			Bucket: TriggerBucket{Name: container},
			Object: TriggerObject{Key: key},
		},
	}}}
}

// Ref returns the artifact named by the first record. Object keys arrive
// form-encoded and are decoded here. A record without bucket or key is
// rejected.
func (e TriggerEvent) Ref() (ArtifactRef, error) {
	if len(e.Records) == 0 {
		return ArtifactRef{}, ErrNoTriggerRecord
	}
	rec := e.Records[0].S3

	key := rec.Object.Key
	if strings.ContainsAny(key, "+%") {
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			return ArtifactRef{}, fmt.Errorf("decoding object key %q: %w", key, err)
		}
		key = decoded
	}

	if rec.Bucket.Name == "" || key == "" {
		return ArtifactRef{}, ErrIncompleteTriggerRecord
	}

	return ArtifactRef{Container: rec.Bucket.Name, Key: key}, nil
}

// InvocationResult is what a trigger invocation returns to its caller.
type InvocationResult struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
	RunID      string `json:"runId,omitempty"`
}
