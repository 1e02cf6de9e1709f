package analytics

import (
	"strings"

	"launchrates/internal/core"
)

// Reconcile resolves the raw multi-select value into a Selection.
//
// When the raw value holds the "all" sentinel (alone or mixed with sites),
// or holds no known site at all, the result is All and the second return
// value carries the concrete universe so the caller can show the individual
// sites in the widget. Otherwise the concrete sites are returned unchanged
// and the echo-back is nil, meaning the widget keeps its current value.
//
// Names not present in universe are dropped.
func Reconcile(raw core.RawSelection, universe []string) (core.Selection, *core.RawSelection) {
	known := make(map[string]bool, len(universe))
	for _, s := range universe {
		known[s] = true
	}

	sites := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, core.AllSentinel) {
			return allWithEcho(universe)
		}
		if known[v] {
			sites = append(sites, v)
		}
	}
	if len(sites) == 0 {
		return allWithEcho(universe)
	}
	return core.SpecificSites(sites...), nil
}

func allWithEcho(universe []string) (core.Selection, *core.RawSelection) {
	echo := make(core.RawSelection, len(universe))
	copy(echo, universe)
	return core.AllSites(), &echo
}

// SiteOption is one entry of the site multi-select.
type SiteOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SiteOptions lists the sentinel entry first, then one entry per site.
func SiteOptions(universe []string) []SiteOption {
	opts := make([]SiteOption, 0, len(universe)+1)
	opts = append(opts, SiteOption{Label: "All launch sites", Value: core.AllSentinel})
	for _, s := range universe {
		opts = append(opts, SiteOption{Label: s, Value: s})
	}
	return opts
}
