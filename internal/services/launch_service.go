package services

import (
	"context"
	"fmt"
	"log/slog"

	"launchrates/internal/analytics"
	"launchrates/internal/core"
	"launchrates/internal/dataset"
)

// DefaultPayloadStep is the slider step in kilograms.
const DefaultPayloadStep = 2000

type (
	// PayloadSlider describes the payload range input.
	PayloadSlider struct {
		Min     float64           `json:"min"`
		Max     float64           `json:"max"`
		Step    float64           `json:"step"`
		Default core.PayloadRange `json:"default"`
	}

	// LaunchOptions is everything needed to draw the launch dashboard inputs.
	LaunchOptions struct {
		Sites   []analytics.SiteOption `json:"sites"`
		Default core.RawSelection      `json:"default"`
		Payload PayloadSlider          `json:"payload"`
	}

	// ProportionView is the proportion chart plus the optional widget echo-back.
	// Selection is nil when the site widget should keep its current value.
	ProportionView struct {
		Chart     core.ChartSpec         `json:"chart"`
		Result    core.AggregationResult `json:"result"`
		Selection *core.RawSelection     `json:"selection,omitempty"`
	}
)

// LaunchService runs the site-outcome and payload pipelines over the
// read-only dataset store.
type LaunchService struct {
	store *dataset.Store
	step  float64
}

func NewLaunchService(store *dataset.Store, payloadStep float64) *LaunchService {
	if payloadStep <= 0 {
		payloadStep = DefaultPayloadStep
	}
	return &LaunchService{store: store, step: payloadStep}
}

// Options lists the site choices and the payload slider domain.
func (s *LaunchService) Options() LaunchOptions {
	domain := s.store.Domain(s.step)
	return LaunchOptions{
		Sites:   analytics.SiteOptions(s.store.Sites()),
		Default: core.RawSelection{core.AllSentinel},
		Payload: PayloadSlider{
			Min:     domain.Low,
			Max:     domain.High,
			Step:    s.step,
			Default: domain,
		},
	}
}

// Proportion reconciles the raw site selection and builds the pie chart.
func (s *LaunchService) Proportion(ctx context.Context, raw core.RawSelection) ProportionView {
	universe := s.store.Sites()
	sel, echo := analytics.Reconcile(raw, universe)
	res := analytics.AggregateSiteOutcomes(s.store.Records(), sel, universe)

	slog.DebugContext(ctx, "Site outcome aggregation",
		"case", res.Case,
		"sites", sel.Sites(),
		"groups", len(res.Groups),
		"echo_back", echo != nil)

	return ProportionView{
		Chart:     analytics.BuildProportionChart(res),
		Result:    res,
		Selection: echo,
	}
}

// Scatter filters by payload range and builds the payload scatter chart.
// The range must lie within the slider domain.
func (s *LaunchService) Scatter(ctx context.Context, rng core.PayloadRange) (core.ChartSpec, error) {
	if err := rng.Validate(s.store.Domain(s.step).High); err != nil {
		return core.ChartSpec{}, fmt.Errorf("scatter: %w", err)
	}
	subset := analytics.FilterByPayloadRange(s.store.Records(), rng)

	slog.DebugContext(ctx, "Payload scatter",
		"low", rng.Low,
		"high", rng.High,
		"records", len(subset))

	return analytics.BuildScatterChart(subset), nil
}

// Domain is the full payload slider range.
func (s *LaunchService) Domain() core.PayloadRange {
	return s.store.Domain(s.step)
}

// Sites returns the distinct sites of the dataset.
func (s *LaunchService) Sites() []string {
	return s.store.Sites()
}
