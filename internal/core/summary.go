package core

// AggregationCase identifies which site-outcome algorithm produced a result.
type AggregationCase string

const (
	CaseAllSites      AggregationCase = "all_sites"
	CaseSingleSite    AggregationCase = "single_site"
	CaseMultipleSites AggregationCase = "multiple_sites"
)

// GroupShare is one (label, value) pair of an aggregation. Value is a
// percentage share; Count is the raw count it was computed from.
type GroupShare struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// AggregationResult is an ordered grouping ready for the chart builder.
type AggregationResult struct {
	Case   AggregationCase `json:"case"`
	Title  string          `json:"title"`
	Groups []GroupShare    `json:"groups"`
}

// Empty reports whether there is nothing to draw.
func (r AggregationResult) Empty() bool {
	return len(r.Groups) == 0
}

// Total returns the sum of the group values.
func (r AggregationResult) Total() float64 {
	var t float64
	for _, g := range r.Groups {
		t += g.Value
	}
	return t
}
