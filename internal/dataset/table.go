// Package dataset loads the launch-outcome table and holds it in memory as a
// read-only store shared by every request.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"launchrates/internal/core"
)

// Column headers of the launch table. Other columns are ignored.
const (
	ColumnSite    = "Launch Site"
	ColumnPayload = "Payload Mass (kg)"
	ColumnOutcome = "class"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// RowError describes a data row that could not be turned into a record.
// Row is 1-based and counts the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type columns struct {
	site, payload, outcome int
}

func locateColumns(header []string) (columns, error) {
	idx := columns{site: -1, payload: -1, outcome: -1}
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnSite:
			idx.site = i
		case ColumnPayload:
			idx.payload = i
		case ColumnOutcome:
			idx.outcome = i
		}
	}
	var missing []string
	if idx.site < 0 {
		missing = append(missing, ColumnSite)
	}
	if idx.payload < 0 {
		missing = append(missing, ColumnPayload)
	}
	if idx.outcome < 0 {
		missing = append(missing, ColumnOutcome)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// ParseRows converts a header-first table into launch records. Rows that fail
// to parse are skipped and reported in the returned slice of *RowError; a
// missing header column is a hard error. Fully blank rows are ignored.
func ParseRows(rows [][]string) ([]core.LaunchRecord, []error, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	idx, err := locateColumns(rows[0])
	if err != nil {
		return nil, nil, err
	}

	records := make([]core.LaunchRecord, 0, len(rows)-1)
	var skipped []error
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		r, err := parseRecord(row, idx)
		if err != nil {
			skipped = append(skipped, &RowError{Row: i + 2, Err: err})
			continue
		}
		records = append(records, r)
	}
	return records, skipped, nil
}

func parseRecord(row []string, idx columns) (core.LaunchRecord, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	payload, err := strconv.ParseFloat(cell(idx.payload), 64)
	if err != nil {
		return core.LaunchRecord{}, fmt.Errorf("%w: %q", core.ErrInvalidPayload, cell(idx.payload))
	}
	outcome, err := core.ParseOutcome(cell(idx.outcome))
	if err != nil {
		return core.LaunchRecord{}, err
	}
	r := core.LaunchRecord{Site: cell(idx.site), PayloadMassKg: payload, Outcome: outcome}
	if err := r.Validate(); err != nil {
		return core.LaunchRecord{}, err
	}
	return r, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
