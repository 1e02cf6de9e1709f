package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"launchrates/internal/core"
)

// errBadValue is reported to the client for an event it cannot apply.
var errBadValue = errors.New("invalid event value")

// session holds one connection's input state. Events are applied one at a
// time by the read loop, so no locking is needed.
type session struct {
	launches   LaunchDashboard
	currencies CurrencyDashboard

	base   string
	target string
	amount *float64
}

func newSession(l LaunchDashboard, c CurrencyDashboard) *session {
	d := c.Defaults()
	amount := d.Amount
	return &session{
		launches:   l,
		currencies: c,
		base:       d.Base,
		target:     d.Target,
		amount:     &amount,
	}
}

// initial returns every output for the default inputs.
func (s *session) initial(ctx context.Context) []Reply {
	replies := s.proportion(ctx, core.RawSelection{core.AllSentinel})
	domain := s.launches.Domain()
	replies = append(replies, s.scatter(ctx, domain)...)
	replies = append(replies, s.histogram(ctx), s.conversion(ctx))
	return replies
}

// handle applies ev and returns the outputs it affects.
func (s *session) handle(ctx context.Context, ev Event) []Reply {
	switch ev.Type {
	case EventPing:
		return []Reply{{Type: ReplyPong}}

	case EventSites:
		raw, err := decodeSites(ev.Value)
		if err != nil {
			return errorReply(TargetPieChart, err)
		}
		return s.proportion(ctx, raw)

	case EventPayload:
		var bounds [2]float64
		if err := json.Unmarshal(ev.Value, &bounds); err != nil {
			return errorReply(TargetScatter, fmt.Errorf("%w: payload expects [low, high]", errBadValue))
		}
		return s.scatter(ctx, core.PayloadRange{Low: bounds[0], High: bounds[1]})

	case EventBase:
		code, err := decodeCurrency(ev.Value)
		if err != nil {
			return errorReply(TargetHistogram, err)
		}
		s.base = code
		return []Reply{s.histogram(ctx), s.conversion(ctx)}

	case EventTarget:
		code, err := decodeCurrency(ev.Value)
		if err != nil {
			return errorReply(TargetConversion, err)
		}
		s.target = code
		return []Reply{s.conversion(ctx)}

	case EventAmount:
		s.amount = decodeAmount(ev.Value)
		return []Reply{s.conversion(ctx)}

	default:
		return errorReply("", fmt.Errorf("unknown event type %q", ev.Type))
	}
}

func (s *session) proportion(ctx context.Context, raw core.RawSelection) []Reply {
	view := s.launches.Proportion(ctx, raw)
	chart := view.Chart
	replies := []Reply{{Type: ReplyChart, Target: TargetPieChart, Chart: &chart}}
	if view.Selection != nil {
		replies = append(replies, Reply{Type: ReplySelection, Target: TargetSiteSelect, Selection: view.Selection})
	}
	return replies
}

func (s *session) scatter(ctx context.Context, rng core.PayloadRange) []Reply {
	chart, err := s.launches.Scatter(ctx, rng)
	if err != nil {
		return errorReply(TargetScatter, err)
	}
	return []Reply{{Type: ReplyChart, Target: TargetScatter, Chart: &chart}}
}

func (s *session) histogram(ctx context.Context) Reply {
	view := s.currencies.Histogram(ctx, s.base)
	return Reply{
		Type:    ReplyChart,
		Target:  TargetHistogram,
		Chart:   &view.Chart,
		State:   view.State,
		Message: view.Message,
	}
}

func (s *session) conversion(ctx context.Context) Reply {
	view := s.currencies.Convert(ctx, core.ConversionQuery{Amount: s.amount, Base: s.base, Target: s.target})
	return Reply{
		Type:    ReplyText,
		Target:  TargetConversion,
		Text:    &view.Text,
		State:   view.State,
		Message: view.Message,
	}
}

func errorReply(target string, err error) []Reply {
	return []Reply{{Type: ReplyError, Target: target, Message: err.Error()}}
}

// decodeSites accepts a list of names or a single name.
func decodeSites(v json.RawMessage) (core.RawSelection, error) {
	if len(v) == 0 || string(v) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return core.RawSelection(list), nil
	}
	var one string
	if err := json.Unmarshal(v, &one); err != nil {
		return nil, fmt.Errorf("%w: sites expects a list of names", errBadValue)
	}
	return core.RawSelection{one}, nil
}

func decodeCurrency(v json.RawMessage) (string, error) {
	var code string
	if err := json.Unmarshal(v, &code); err != nil {
		return "", fmt.Errorf("%w: currency expects a string", errBadValue)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: empty currency", errBadValue)
	}
	return code, nil
}

// decodeAmount accepts a number, a numeric string or null. Anything that is
// not a number clears the amount.
func decodeAmount(v json.RawMessage) *float64 {
	if len(v) == 0 || string(v) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		s = string(v)
	}
	amount, err := core.ParseAmount(s)
	if err != nil {
		return nil
	}
	return amount
}
