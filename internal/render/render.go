// Package render draws chart descriptions as PNG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"launchrates/internal/core"
)

// ErrUnknownKind is returned for a chart kind the renderer cannot draw.
var ErrUnknownKind = errors.New("unknown chart kind")

const (
	DefaultWidth  = 900
	DefaultHeight = 500

	minBarWidth = 14
)

// Renderer turns core.ChartSpec values into PNG images of a fixed size.
type Renderer struct {
	width, height int
}

func New(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height}
}

// PNG writes spec as a PNG image. Empty specs render as a titled blank canvas.
func (r *Renderer) PNG(w io.Writer, spec core.ChartSpec) error {
	if spec.Empty || spec.PointCount() == 0 {
		return r.placeholder(w, spec)
	}
	switch spec.Kind {
	case core.ChartPie:
		return r.pie(w, spec)
	case core.ChartScatter:
		return r.scatter(w, spec)
	case core.ChartHistogram:
		return r.histogram(w, spec)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}

func (r *Renderer) pie(w io.Writer, spec core.ChartSpec) error {
	values := make([]chart.Value, 0, spec.PointCount())
	for i, p := range spec.Series[0].Points {
		if p.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", p.Label, p.Value),
			Value: p.Value,
			Style: chart.Style{FillColor: paletteColor(i)},
		})
	}
	if len(values) == 0 {
		return r.placeholder(w, spec)
	}
	pie := chart.PieChart{
		Title:  spec.Title,
		Width:  r.height,
		Height: r.height,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	return nil
}

func (r *Renderer) scatter(w io.Writer, spec core.ChartSpec) error {
	var maxX float64
	series := make([]chart.Series, 0, len(spec.Series))
	for i, s := range spec.Series {
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j], ys[j] = p.X, p.Value
			maxX = math.Max(maxX, p.X)
		}
		color := paletteColor(i)
		if s.Color != "" {
			color = drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotColor:    color,
			},
		})
	}
	if maxX == 0 {
		maxX = 1
	}

	ch := chart.Chart{
		Title:      spec.Title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  spec.XAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  spec.YAxis,
			Range: &chart.ContinuousRange{Min: -0.25, Max: 1.25},
			Ticks: []chart.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.LegendLeft(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// histogram draws one bar per point. With LogY the bars carry log10 of the
// value over a base at the lowest power of ten, and the axis is labelled in
// the original units.
func (r *Renderer) histogram(w io.Writer, spec core.ChartSpec) error {
	points := spec.Series[0].Points
	bars := make([]chart.Value, 0, len(points))

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := p.Value
		if spec.LogY {
			if v <= 0 {
				continue
			}
			v = math.Log10(v)
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		bars = append(bars, chart.Value{Label: p.Label, Value: v})
	}
	if len(bars) == 0 {
		return r.placeholder(w, spec)
	}

	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      max(r.width, len(bars)*(minBarWidth+4)+120),
		Height:     r.height,
		BarWidth:   minBarWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Bars:       bars,
	}
	if spec.LogY {
		base, ticks := logTicks(lo, hi)
		bc.UseBaseValue = true
		bc.BaseValue = base
		bc.YAxis = chart.YAxis{Name: spec.YAxis, Ticks: ticks}
	} else {
		bc.YAxis = chart.YAxis{Name: spec.YAxis}
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// logTicks returns the base exponent and one tick per power of ten covering [lo, hi].
func logTicks(lo, hi float64) (float64, []chart.Tick) {
	from, to := math.Floor(lo), math.Ceil(hi)
	if to <= from {
		to = from + 1
	}
	ticks := make([]chart.Tick, 0, int(to-from)+1)
	for e := from; e <= to; e++ {
		ticks = append(ticks, chart.Tick{
			Value: e,
			Label: strconv.FormatFloat(math.Pow(10, e), 'g', -1, 64),
		})
	}
	return from, ticks
}

func (r *Renderer) placeholder(w io.Writer, spec core.ChartSpec) error {
	title := spec.Title
	if title == "" {
		title = "No data"
	} else {
		title += " (no data)"
	}
	ch := chart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		XAxis:  chart.XAxis{Name: spec.XAxis, Style: chart.Hidden()},
		YAxis:  chart.YAxis{Name: spec.YAxis, Style: chart.Hidden()},
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: []float64{0, 1},
			YValues: []float64{0, 1},
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
		}},
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render placeholder: %w", err)
	}
	return nil
}

var palette = []drawing.Color{
	chart.ColorBlue, chart.ColorGreen, chart.ColorRed, chart.ColorOrange,
	chart.ColorCyan, chart.ColorYellow, chart.ColorAlternateGray, chart.ColorBlack,
}

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}
