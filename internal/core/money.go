// Package core provides the domain types shared by both dashboards.
//
// This file contains parsing of the free-form amount typed into the
// converter's numeric input.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when the amount input is not a finite number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts the numeric input to an optional float.
//
// An empty (or whitespace) input yields nil with no error: the input widget
// is simply empty. A decimal comma is accepted as well as a dot. Negative
// amounts are allowed, as the numeric input allows them.
//
// Examples:
//
//	ParseAmount("")      -> nil, nil
//	ParseAmount("12.5")  -> 12.5, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("abc")   -> nil, ErrInvalidAmount
func ParseAmount(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	// Normalize decimal comma to dot, but only when it is the sole separator
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, ErrInvalidAmount
	}
	return &v, nil
}
