package pipeline

import (
	"errors"
	"fmt"

	"github.com/synaptica-ai/order-etl/pkg/common/models"
)

const (
	OpFetch   = "fetch"
	OpPublish = "publish"
	OpNotify  = "notify"
)

var errInvalidRef = errors.New("artifact reference needs a container and a key")

// GatewayError wraps a storage or catalog failure. The cause is passed
// through untouched.
type GatewayError struct {
	Op  string
	Ref models.ArtifactRef
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// StageError records the stage a run was attempting when it stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stopped at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage carried by err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
