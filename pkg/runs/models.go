package runs

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusAccepted  = "accepted"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Run struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	Container   string            `json:"container" gorm:"column:container"`
	SourceKey   string            `json:"source_key" gorm:"column:source_key"`
	OutputKey   string            `json:"output_key,omitempty" gorm:"column:output_key"`
	Stage       string            `json:"stage" gorm:"column:stage"`
	Status      string            `json:"status" gorm:"column:status;index"`
	RecordCount int               `json:"record_count" gorm:"column:record_count"`
	RowCount    int               `json:"row_count" gorm:"column:row_count"`
	Error       string            `json:"error,omitempty" gorm:"column:error"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at;index"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"column:updated_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty" gorm:"column:finished_at"`
}

func (Run) TableName() string {
	return "etl_runs"
}

// Outcome is what a finished run reports back to the tracker.
type Outcome struct {
	Status      string
	Stage       string
	OutputKey   string
	RecordCount int
	RowCount    int
	Error       string
	Metadata    map[string]interface{}
}
