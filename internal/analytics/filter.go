// Package analytics holds the filtering, aggregation, selection
// reconciliation and chart-shaping logic behind both dashboards.
//
// Every function is pure and never modifies its inputs, so the read-only
// dataset can be shared across requests.
package analytics

import (
	"math"

	"launchrates/internal/core"
)

// FilterBySites keeps the records whose site is part of the selection.
// The All selection returns the input unchanged.
func FilterBySites(records []core.LaunchRecord, sel core.Selection) []core.LaunchRecord {
	if sel.IsAll() {
		return records
	}
	set := make(map[string]bool, sel.Len())
	for _, s := range sel.Sites() {
		set[s] = true
	}
	out := make([]core.LaunchRecord, 0, len(records))
	for _, r := range records {
		if set[r.Site] {
			out = append(out, r)
		}
	}
	return out
}

// FilterByPayloadRange keeps the records with Low <= payload <= High.
func FilterByPayloadRange(records []core.LaunchRecord, rng core.PayloadRange) []core.LaunchRecord {
	out := make([]core.LaunchRecord, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.PayloadMassKg) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByOutcome keeps the records with the given outcome class.
func FilterByOutcome(records []core.LaunchRecord, o core.Outcome) []core.LaunchRecord {
	out := make([]core.LaunchRecord, 0, len(records))
	for _, r := range records {
		if r.Outcome == o {
			out = append(out, r)
		}
	}
	return out
}

// PayloadDomain is the slider domain for the dataset: from 0 to the largest
// payload, rounded up to a multiple of step when step is positive.
func PayloadDomain(records []core.LaunchRecord, step float64) core.PayloadRange {
	var max float64
	for _, r := range records {
		if r.PayloadMassKg > max {
			max = r.PayloadMassKg
		}
	}
	if step > 0 {
		max = math.Ceil(max/step) * step
	}
	return core.PayloadRange{Low: 0, High: max}
}
