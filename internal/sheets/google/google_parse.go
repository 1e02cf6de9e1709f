package google

import (
	"fmt"
	"strings"

	"launchrates/internal/core"
	"launchrates/internal/dataset"
)

// parseValues converts a values matrix as returned by the Sheets API into
// launch records, using the first row as header.
func parseValues(values [][]interface{}) ([]core.LaunchRecord, []error, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return dataset.ParseRows(rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
