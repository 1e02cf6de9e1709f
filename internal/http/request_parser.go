// Package http provides the HTTP server and handlers of the dashboards.
//
// This file turns query strings into the inputs of the dashboard
// pipelines.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"launchrates/internal/core"
)

// ErrInvalidParam is returned for a query parameter that cannot be parsed.
var ErrInvalidParam = errors.New("invalid parameter")

// ParseSites collects the site widget value. Sites may be repeated
// (site=a&site=b) or comma separated (site=a,b). No site parameter yields an
// empty selection, which the reconciler treats as "all".
func ParseSites(query url.Values) core.RawSelection {
	var raw core.RawSelection
	for _, v := range query["site"] {
		for _, item := range strings.Split(v, ",") {
			if item = sanitizeInput(item); item != "" {
				raw = append(raw, item)
			}
		}
	}
	return raw
}

// ParseRange reads low/high, defaulting each bound to the domain's.
func ParseRange(query url.Values, domain core.PayloadRange) (core.PayloadRange, error) {
	rng := domain
	for _, p := range []struct {
		key string
		dst *float64
	}{{"low", &rng.Low}, {"high", &rng.High}} {
		v := strings.TrimSpace(query.Get(p.key))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return core.PayloadRange{}, fmt.Errorf("%w: %s=%q", ErrInvalidParam, p.key, v)
		}
		*p.dst = f
	}
	return rng, nil
}

// ParseConversion reads amount, base and target. Missing currencies fall
// back to the defaults. An amount that is absent or not a number leaves
// Amount nil so the conversion renders empty.
func ParseConversion(query url.Values, defaults ConversionDefaults) core.ConversionQuery {
	q := core.ConversionQuery{
		Base:   currencyOr(query.Get("base"), defaults.Base),
		Target: currencyOr(query.Get("target"), defaults.Target),
	}
	if _, present := query["amount"]; !present {
		q.Amount = &defaults.Amount
		return q
	}
	if amount, err := core.ParseAmount(query.Get("amount")); err == nil {
		q.Amount = amount
	}
	return q
}

// ConversionDefaults are used when the query omits a field.
type ConversionDefaults struct {
	Base   string
	Target string
	Amount float64
}

// ParseBase reads the base currency with a fallback.
func ParseBase(query url.Values, fallback string) string {
	return currencyOr(query.Get("base"), fallback)
}

func currencyOr(v, fallback string) string {
	if v = strings.ToUpper(sanitizeInput(v)); v != "" {
		return v
	}
	return fallback
}
