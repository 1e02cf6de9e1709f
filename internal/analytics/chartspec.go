package analytics

import (
	"fmt"

	"launchrates/internal/core"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Axis titles used by the charts.
const (
	AxisPayload  = "Payload Mass (kg)"
	AxisOutcome  = "class"
	AxisCurrency = "Currency"
	AxisRate     = "Rate"
)

// BuildProportionChart shapes an aggregation into a pie chart description.
func BuildProportionChart(res core.AggregationResult) core.ChartSpec {
	spec := core.ChartSpec{
		Kind:  core.ChartPie,
		Title: res.Title,
		Empty: res.Empty(),
	}
	if spec.Empty {
		return spec
	}
	points := make([]core.ChartPoint, 0, len(res.Groups))
	for _, g := range res.Groups {
		points = append(points, core.ChartPoint{Label: g.Label, Value: g.Value})
	}
	spec.Series = []core.ChartSeries{{Name: "share", Points: points}}
	return spec
}

// BuildScatterChart plots payload mass against outcome class with one
// series per launch site, in order of first appearance.
func BuildScatterChart(records []core.LaunchRecord) core.ChartSpec {
	spec := core.ChartSpec{
		Kind:  core.ChartScatter,
		Title: TitlePayloadScatter,
		XAxis: AxisPayload,
		YAxis: AxisOutcome,
		Empty: len(records) == 0,
	}
	if spec.Empty {
		return spec
	}

	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Site]
		if !ok {
			i = len(spec.Series)
			index[r.Site] = i
			spec.Series = append(spec.Series, core.ChartSeries{
				Name:  r.Site,
				Color: defaultColors[i%len(defaultColors)],
			})
		}
		spec.Series[i].Points = append(spec.Series[i].Points, core.ChartPoint{
			X:     r.PayloadMassKg,
			Value: float64(r.Outcome),
		})
	}
	return spec
}

// BuildRateHistogram draws one bar per currency on a logarithmic value axis.
// Currencies are ordered alphabetically; non-positive rates cannot be drawn
// on a log axis and are left out.
func BuildRateHistogram(table core.RateTable) core.ChartSpec {
	spec := core.ChartSpec{
		Kind:  core.ChartHistogram,
		Title: fmt.Sprintf("Exchange rates of %s", table.Base),
		XAxis: AxisCurrency,
		YAxis: AxisRate,
		LogY:  true,
	}
	points := make([]core.ChartPoint, 0, len(table.Rates))
	for _, code := range table.Currencies() {
		if rate := table.Rates[code]; rate > 0 {
			points = append(points, core.ChartPoint{Label: code, Value: rate})
		}
	}
	if len(points) == 0 {
		spec.Empty = true
		return spec
	}
	spec.Series = []core.ChartSeries{{Name: table.Base, Color: defaultColors[0], Points: points}}
	return spec
}

// EmptyHistogram is the placeholder drawn when rates could not be fetched.
func EmptyHistogram(base string) core.ChartSpec {
	return core.ChartSpec{
		Kind:  core.ChartHistogram,
		Title: fmt.Sprintf("Exchange rates of %s", base),
		XAxis: AxisCurrency,
		YAxis: AxisRate,
		LogY:  true,
		Empty: true,
	}
}
