package http

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"launchrates/internal/core"
)

func TestParseSites(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.RawSelection
	}{
		{"absent", "", nil},
		{"sentinel", "site=all", core.RawSelection{"all"}},
		{"repeated", "site=A&site=B", core.RawSelection{"A", "B"}},
		{"comma separated", "site=A,B", core.RawSelection{"A", "B"}},
		{"blank items dropped", "site=A,,%20&site=", core.RawSelection{"A"}},
		{"control characters removed", "site=KSC%00LC-39A", core.RawSelection{"KSCLC-39A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			if got := ParseSites(q); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSites() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	domain := core.PayloadRange{Low: 0, High: 10000}

	tests := []struct {
		name    string
		query   string
		want    core.PayloadRange
		wantErr bool
	}{
		{"defaults to domain", "", domain, false},
		{"low only", "low=2000", core.PayloadRange{Low: 2000, High: 10000}, false},
		{"both", "low=2000&high=4000.5", core.PayloadRange{Low: 2000, High: 4000.5}, false},
		{"not a number", "high=lots", core.PayloadRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseRange(q, domain)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParam) {
					t.Fatalf("expected ErrInvalidParam, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseRange() = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestParseConversion(t *testing.T) {
	defaults := ConversionDefaults{Base: "USD", Target: "EUR", Amount: 1}

	tests := []struct {
		name       string
		query      string
		wantAmount *float64
		wantBase   string
		wantTarget string
	}{
		{"all defaults", "", ptr(1), "USD", "EUR"},
		{"explicit", "amount=12.5&base=gbp&target=rub", ptr(12.5), "GBP", "RUB"},
		{"empty amount", "amount=", nil, "USD", "EUR"},
		{"invalid amount", "amount=ten", nil, "USD", "EUR"},
		{"blank currency falls back", "base=%20", ptr(1), "USD", "EUR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got := ParseConversion(q, defaults)
			if got.Base != tt.wantBase || got.Target != tt.wantTarget {
				t.Errorf("currencies = %s/%s, want %s/%s", got.Base, got.Target, tt.wantBase, tt.wantTarget)
			}
			switch {
			case tt.wantAmount == nil && got.Amount != nil:
				t.Errorf("amount = %v, want nil", *got.Amount)
			case tt.wantAmount != nil && (got.Amount == nil || *got.Amount != *tt.wantAmount):
				t.Errorf("amount = %v, want %v", got.Amount, *tt.wantAmount)
			}
		})
	}
}

func TestParseConversionDoesNotAliasDefaults(t *testing.T) {
	defaults := ConversionDefaults{Base: "USD", Target: "EUR", Amount: 1}
	q := ParseConversion(url.Values{}, defaults)
	*q.Amount = 5
	if defaults.Amount != 1 {
		t.Fatalf("defaults mutated: %v", defaults.Amount)
	}
}

func ptr(v float64) *float64 { return &v }
