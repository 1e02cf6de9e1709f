package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"launchrates/internal/core"
)

// CSVSource reads the launch table from a comma-separated file with a header row.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]core.LaunchRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, skipped, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	logSkipped(ctx, s.Path, skipped)
	return records, nil
}

// ReadCSV parses CSV launch data. Rows may have a varying number of fields.
func ReadCSV(r io.Reader) ([]core.LaunchRecord, []error, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	return ParseRows(rows)
}
