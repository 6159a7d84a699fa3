package columnar

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/synaptica-ai/order-etl/pkg/flatten"
)

// SerializationError reports rows or a schema that do not match the fixed
// order-line column set.
type SerializationError struct {
	reason error
}

func (e *SerializationError) Error() string {
	return "encode order rows: " + e.reason.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.reason
}

func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

var rowSchema = parquet.SchemaOf(new(flatten.Row))

// Schema returns the parquet schema derived from flatten.Row.
func Schema() *parquet.Schema {
	return rowSchema
}

// Encode writes rows as a snappy-compressed parquet file held in memory.
// An empty slice yields a valid file with the full schema and no rows.
func Encode(rows []flatten.Row) ([]byte, error) {
	if err := checkSchema(rowSchema, flatten.Columns()); err != nil {
		return nil, err
	}
	width := len(flatten.Columns())
	for i, row := range rows {
		if n := len(row.Values()); n != width {
			return nil, &SerializationError{reason: fmt.Errorf("row %d has %d fields, want %d", i, n, width)}
		}
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[flatten.Row](&buf, rowSchema, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, &SerializationError{reason: err}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, &SerializationError{reason: err}
	}

	return buf.Bytes(), nil
}

func checkSchema(schema *parquet.Schema, want []string) error {
	fields := schema.Fields()
	if len(fields) != len(want) {
		return &SerializationError{reason: fmt.Errorf("schema has %d columns, want %d", len(fields), len(want))}
	}
	for i, f := range fields {
		if f.Name() != want[i] {
			return &SerializationError{reason: fmt.Errorf("column %d is %q, want %q", i, f.Name(), want[i])}
		}
		if !f.Optional() {
			return &SerializationError{reason: fmt.Errorf("column %q is not optional", f.Name())}
		}
	}
	return nil
}
