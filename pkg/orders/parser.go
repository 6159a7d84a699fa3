package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errNotArray  = errors.New("top-level value is not a JSON array")
	errNotObject = errors.New("element is not a JSON object")
)

// ParseError reports input bytes that are not an array of order objects.
// Index is the offending element, or -1 when the top level itself is wrong.
type ParseError struct {
	Index  int
	reason error
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("parse order batch: record %d: %v", e.Index, e.reason)
	}
	return fmt.Sprintf("parse order batch: %v", e.reason)
}

func (e *ParseError) Unwrap() error {
	return e.reason
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse decodes a JSON array of order objects. Missing keys and sub-entities
// are absent values, unknown keys are ignored.
func Parse(raw []byte) (Batch, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Index: -1, reason: errNotArray}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &ParseError{Index: -1, reason: err}
	}

	batch := make(Batch, 0, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, &ParseError{Index: i, reason: errNotObject}
		}

		var rec InputRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			return nil, &ParseError{Index: i, reason: err}
		}
		batch = append(batch, rec)
	}

	return batch, nil
}
