package core

// ChartKind names the visual a ChartSpec describes.
type ChartKind string

const (
	ChartPie       ChartKind = "pie"
	ChartScatter   ChartKind = "scatter"
	ChartHistogram ChartKind = "histogram"
)

type (
	// ChartSpec is the declarative chart description handed to a rendering
	// surface. It carries no behaviour.
	ChartSpec struct {
		Kind   ChartKind     `json:"kind"`
		Title  string        `json:"title"`
		XAxis  string        `json:"xAxis,omitempty"`
		YAxis  string        `json:"yAxis,omitempty"`
		LogY   bool          `json:"logY,omitempty"`
		Empty  bool          `json:"empty"`
		Series []ChartSeries `json:"series"`
	}

	// ChartSeries is a named group of points. For scatter charts each launch
	// site becomes its own series.
	ChartSeries struct {
		Name   string       `json:"name"`
		Color  string       `json:"color,omitempty"`
		Points []ChartPoint `json:"points"`
	}

	// ChartPoint holds either a labelled value (pie, histogram) or an x/y pair (scatter).
	ChartPoint struct {
		Label string  `json:"label,omitempty"`
		X     float64 `json:"x"`
		Value float64 `json:"value"`
	}
)

// PointCount returns the number of points across all series.
func (c ChartSpec) PointCount() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}
