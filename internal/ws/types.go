// Package ws serves the dashboards over a websocket: each connection is a
// session that sends input events and receives the outputs they affect.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"launchrates/internal/core"
	"launchrates/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
	frameBuffer    = 16
)

// Event types sent by the client.
const (
	EventSites   = "sites"
	EventPayload = "payload"
	EventBase    = "base"
	EventAmount  = "amount"
	EventTarget  = "target"
	EventPing    = "ping"
)

// Reply types sent by the server.
const (
	ReplyChart     = "chart"
	ReplySelection = "selection"
	ReplyText      = "text"
	ReplyError     = "error"
	ReplyPong      = "pong"
)

// Output ids a reply is addressed to.
const (
	TargetPieChart   = "pie-chart"
	TargetSiteSelect = "site-dropdown"
	TargetScatter    = "scatter-plot"
	TargetHistogram  = "exchange-rates-histogram"
	TargetConversion = "converted-amount"
)

// Event is one input change from the client.
type Event struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Reply is one output update for the client.
type Reply struct {
	Type      string             `json:"type"`
	Target    string             `json:"target,omitempty"`
	Chart     *core.ChartSpec    `json:"chart,omitempty"`
	Selection *core.RawSelection `json:"selection,omitempty"`
	Text      *string            `json:"text,omitempty"`
	State     services.State     `json:"state,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// LaunchDashboard is the launch pipeline a session drives.
type LaunchDashboard interface {
	Proportion(ctx context.Context, raw core.RawSelection) services.ProportionView
	Scatter(ctx context.Context, rng core.PayloadRange) (core.ChartSpec, error)
	Domain() core.PayloadRange
}

// CurrencyDashboard is the rate pipeline a session drives.
type CurrencyDashboard interface {
	Defaults() services.CurrencyDefaults
	Histogram(ctx context.Context, base string) services.HistogramView
	Convert(ctx context.Context, q core.ConversionQuery) services.ConversionView
}
