package columnar

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/synaptica-ai/order-etl/pkg/flatten"
)

// Decode reads an encoded artifact back into rows.
func Decode(data []byte) ([]flatten.Row, error) {
	rows, err := parquet.Read[flatten.Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode order rows: %w", err)
	}
	return rows, nil
}

// ColumnNames returns the column names stored in an artifact's footer.
func ColumnNames(data []byte) ([]string, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet artifact: %w", err)
	}
	fields := f.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	return names, nil
}

// NumRows returns the row count recorded in an artifact's footer.
func NumRows(data []byte) (int64, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open parquet artifact: %w", err)
	}
	return f.NumRows(), nil
}
