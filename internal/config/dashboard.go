package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"launchrates/internal/core"
)

// Dashboard holds the presentation options read from DASHBOARD_CONFIG.
// Fields missing from the file keep their defaults.
type Dashboard struct {
	Launch   LaunchOptions   `yaml:"launch"`
	Currency CurrencyOptions `yaml:"currency"`
	Chart    ChartOptions    `yaml:"chart"`
}

type LaunchOptions struct {
	PayloadStep float64 `yaml:"payload_step"`
}

type CurrencyOptions struct {
	Currencies    []string `yaml:"currencies"`
	DefaultBase   string   `yaml:"default_base"`
	DefaultTarget string   `yaml:"default_target"`
	DefaultAmount float64  `yaml:"default_amount"`
}

type ChartOptions struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func DefaultDashboard() Dashboard {
	return Dashboard{
		Launch: LaunchOptions{PayloadStep: 2000},
		Currency: CurrencyOptions{
			Currencies:    []string{"USD", "EUR", "GBP", "RUB"},
			DefaultBase:   "USD",
			DefaultTarget: "USD",
			DefaultAmount: 1,
		},
		Chart: ChartOptions{Width: 900, Height: 500},
	}
}

// LoadDashboard returns the defaults when path is empty, otherwise the
// file layered over them.
func LoadDashboard(path string) (Dashboard, error) {
	if path == "" {
		return DefaultDashboard(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Dashboard{}, fmt.Errorf("open dashboard config: %w", err)
	}
	defer f.Close()
	return ParseDashboard(f)
}

// ParseDashboard decodes YAML over the defaults. Unknown keys are rejected.
func ParseDashboard(r io.Reader) (Dashboard, error) {
	d := DefaultDashboard()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return Dashboard{}, fmt.Errorf("parse dashboard config: %w", err)
	}

	for i, c := range d.Currency.Currencies {
		d.Currency.Currencies[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	d.Currency.DefaultBase = strings.ToUpper(strings.TrimSpace(d.Currency.DefaultBase))
	d.Currency.DefaultTarget = strings.ToUpper(strings.TrimSpace(d.Currency.DefaultTarget))

	if err := d.Validate(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Validate checks the dashboard options the same way Config.Validate does.
func (d Dashboard) Validate() error {
	var errs []string

	if d.Launch.PayloadStep <= 0 {
		errs = append(errs, fmt.Sprintf("invalid payload step %v: must be positive", d.Launch.PayloadStep))
	}

	if len(d.Currency.Currencies) == 0 {
		errs = append(errs, "currency list cannot be empty")
	}
	seen := make(map[string]bool, len(d.Currency.Currencies))
	for _, c := range d.Currency.Currencies {
		if _, err := core.NormalizeCurrency(c); err != nil {
			errs = append(errs, fmt.Sprintf("invalid currency '%s': must be a three-letter code", c))
		}
		if seen[c] {
			errs = append(errs, fmt.Sprintf("duplicate currency '%s'", c))
		}
		seen[c] = true
	}
	if !seen[d.Currency.DefaultBase] {
		errs = append(errs, fmt.Sprintf("default base '%s' is not in the currency list", d.Currency.DefaultBase))
	}
	if !seen[d.Currency.DefaultTarget] {
		errs = append(errs, fmt.Sprintf("default target '%s' is not in the currency list", d.Currency.DefaultTarget))
	}
	if d.Currency.DefaultAmount < 0 {
		errs = append(errs, fmt.Sprintf("invalid default amount %v: must not be negative", d.Currency.DefaultAmount))
	}

	if d.Chart.Width < 100 || d.Chart.Height < 100 {
		errs = append(errs, fmt.Sprintf("invalid chart size %dx%d: both sides must be at least 100", d.Chart.Width, d.Chart.Height))
	}

	if len(errs) > 0 {
		return fmt.Errorf("dashboard validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
