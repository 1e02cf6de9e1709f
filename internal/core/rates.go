package core

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrMissingRate means the target currency is absent from a fetched table.
	ErrMissingRate = errors.New("missing rate")
	// ErrRemoteFetch covers transport, status and decode failures of the rate provider.
	ErrRemoteFetch = errors.New("remote rate fetch failed")
	// ErrInvalidCurrency is returned for an empty or malformed currency code.
	ErrInvalidCurrency = errors.New("invalid currency code")
)

type (
	// RateTable maps currency codes to rates relative to Base. By provider
	// contract Rates[Base] is 1.0; nothing here enforces it.
	RateTable struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}

	// ConversionQuery is built per input event and discarded afterwards.
	// A nil Amount means the numeric input is empty.
	ConversionQuery struct {
		Amount *float64
		Base   string
		Target string
	}
)

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

// Rate looks up a currency in the table.
func (t RateTable) Rate(code string) (float64, bool) {
	r, ok := t.Rates[code]
	return r, ok
}

// Currencies returns the table's currency codes in alphabetical order.
func (t RateTable) Currencies() []string {
	out := make([]string, 0, len(t.Rates))
	for c := range t.Rates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
