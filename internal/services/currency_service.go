package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"launchrates/internal/analytics"
	"launchrates/internal/core"
	"launchrates/internal/rates"
)

// State tells the surface how to present an output.
type State string

const (
	StateOK          State = "ok"
	StateEmpty       State = "empty"
	StateUnavailable State = "unavailable"
	StateError       State = "error"
)

// DefaultCurrencies are offered when no list is configured.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "RUB"}

type (
	// CurrencyOptions configures the currency dashboard inputs.
	CurrencyOptions struct {
		Currencies    []string
		DefaultBase   string
		DefaultTarget string
		DefaultAmount float64
	}

	// HistogramView is the rate histogram and its state. On failure Chart is
	// an empty placeholder and Message explains why.
	HistogramView struct {
		Chart   core.ChartSpec `json:"chart"`
		State   State          `json:"state"`
		Message string         `json:"message,omitempty"`
	}

	// ConversionView is the conversion text and its state.
	ConversionView struct {
		Text    string `json:"text"`
		State   State  `json:"state"`
		Message string `json:"message,omitempty"`
	}

	// CurrencyPage holds both currency outputs for one input state.
	CurrencyPage struct {
		Histogram  HistogramView  `json:"histogram"`
		Conversion ConversionView `json:"conversion"`
	}

	// CurrencyDefaults describes the initial input values.
	CurrencyDefaults struct {
		Currencies []string `json:"currencies"`
		Base       string   `json:"base"`
		Target     string   `json:"target"`
		Amount     float64  `json:"amount"`
	}
)

// CurrencyService fetches rate tables and derives the currency outputs.
type CurrencyService struct {
	fetcher rates.Fetcher
	opts    CurrencyOptions
}

func NewCurrencyService(fetcher rates.Fetcher, opts CurrencyOptions) *CurrencyService {
	if len(opts.Currencies) == 0 {
		opts.Currencies = DefaultCurrencies
	}
	if opts.DefaultBase == "" {
		opts.DefaultBase = opts.Currencies[0]
	}
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = opts.Currencies[0]
	}
	if opts.DefaultAmount == 0 {
		opts.DefaultAmount = 1
	}
	return &CurrencyService{fetcher: fetcher, opts: opts}
}

// Defaults returns the currency choices and initial input values.
func (s *CurrencyService) Defaults() CurrencyDefaults {
	return CurrencyDefaults{
		Currencies: append([]string(nil), s.opts.Currencies...),
		Base:       s.opts.DefaultBase,
		Target:     s.opts.DefaultTarget,
		Amount:     s.opts.DefaultAmount,
	}
}

// Histogram fetches the table for base and draws it. Fetch failures become
// an error state with an empty placeholder chart.
func (s *CurrencyService) Histogram(ctx context.Context, base string) HistogramView {
	table, err := s.fetcher.Fetch(ctx, base)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch rates for histogram", "base", base, "error", err)
		return HistogramView{
			Chart:   analytics.EmptyHistogram(base),
			State:   stateFor(err),
			Message: fmt.Sprintf("Exchange rates of %s are unavailable", base),
		}
	}
	chart := analytics.BuildRateHistogram(table)
	state := StateOK
	if chart.Empty {
		state = StateEmpty
	}
	return HistogramView{Chart: chart, State: state}
}

// Convert renders the conversion text. An absent amount renders empty
// without contacting the provider.
func (s *CurrencyService) Convert(ctx context.Context, q core.ConversionQuery) ConversionView {
	if q.Amount == nil {
		return ConversionView{State: StateEmpty}
	}

	table, err := s.fetcher.Fetch(ctx, q.Base)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch rates for conversion",
			"base", q.Base, "target", q.Target, "error", err)
		return ConversionView{
			State:   stateFor(err),
			Message: fmt.Sprintf("Exchange rates of %s are unavailable", q.Base),
		}
	}

	text, err := analytics.FormatConversion(q, table)
	if err != nil {
		if errors.Is(err, core.ErrMissingRate) {
			slog.WarnContext(ctx, "Target currency missing from rate table",
				"base", q.Base, "target", q.Target)
			msg := fmt.Sprintf("Rate for %s unavailable", q.Target)
			return ConversionView{Text: msg, State: StateUnavailable, Message: msg}
		}
		return ConversionView{State: StateError, Message: err.Error()}
	}
	return ConversionView{Text: text, State: StateOK}
}

// Page computes the histogram and the conversion concurrently.
func (s *CurrencyService) Page(ctx context.Context, q core.ConversionQuery) CurrencyPage {
	var page CurrencyPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page.Histogram = s.Histogram(gctx, q.Base)
		return nil
	})
	g.Go(func() error {
		page.Conversion = s.Convert(gctx, q)
		return nil
	})
	_ = g.Wait()
	return page
}

func stateFor(err error) State {
	if errors.Is(err, core.ErrInvalidCurrency) {
		return StateUnavailable
	}
	return StateError
}
