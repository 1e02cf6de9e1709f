package analytics

import (
	"fmt"
	"sort"
	"strings"

	"launchrates/internal/core"
)

// Chart titles for the site-outcome proportion chart.
const (
	TitleAllSites       = "Successful launches by site (all launch sites)"
	titleSingleSite     = "Launch outcomes for site %s"
	titleMultipleSites  = "Successful launches by site (%s)"
	TitlePayloadScatter = "Launch outcome vs payload mass"
)

// AggregateSiteOutcomes reduces the dataset to percentage shares for the
// proportion chart. The algorithm depends on the selection:
//
//   - All: successes only, grouped by site, each site's share of all successes.
//   - one site: the outcome-class distribution inside that site.
//   - several sites: as All, restricted to the selected sites.
//
// universe is the list of distinct sites in the dataset; a multi-site
// selection covering the whole universe gets the all-sites title.
// An empty filtered set yields a result with no groups.
func AggregateSiteOutcomes(records []core.LaunchRecord, sel core.Selection, universe []string) core.AggregationResult {
	switch {
	case sel.IsAll():
		return core.AggregationResult{
			Case:   core.CaseAllSites,
			Title:  TitleAllSites,
			Groups: successShareBySite(records),
		}
	case sel.Len() == 1:
		site := sel.Sites()[0]
		return core.AggregationResult{
			Case:   core.CaseSingleSite,
			Title:  fmt.Sprintf(titleSingleSite, site),
			Groups: outcomeDistribution(FilterBySites(records, sel)),
		}
	default:
		title := fmt.Sprintf(titleMultipleSites, strings.Join(sel.Sites(), ", "))
		if sel.SameSet(universe) {
			title = TitleAllSites
		}
		return core.AggregationResult{
			Case:   core.CaseMultipleSites,
			Title:  title,
			Groups: successShareBySite(FilterBySites(records, sel)),
		}
	}
}

// successShareBySite counts successful launches per site and normalizes by
// the total number of successes. Groups are ordered by site name.
func successShareBySite(records []core.LaunchRecord) []core.GroupShare {
	counts := make(map[string]int)
	for _, r := range FilterByOutcome(records, core.Success) {
		counts[r.Site]++
	}
	groups := make([]core.GroupShare, 0, len(counts))
	for site, n := range counts {
		groups = append(groups, core.GroupShare{Label: site, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	normalize(groups)
	return groups
}

// outcomeDistribution counts records per outcome class and normalizes by the
// number of records. Groups are ordered by descending count, then by class.
func outcomeDistribution(records []core.LaunchRecord) []core.GroupShare {
	var byClass [2]int
	for _, r := range records {
		if r.Outcome.Valid() {
			byClass[r.Outcome]++
		}
	}
	groups := make([]core.GroupShare, 0, 2)
	for _, o := range []core.Outcome{core.Failure, core.Success} {
		if byClass[o] > 0 {
			groups = append(groups, core.GroupShare{Label: OutcomeLabel(o), Count: byClass[o]})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	normalize(groups)
	return groups
}

// normalize turns counts into percentages of their sum. A zero sum leaves
// the values at zero.
func normalize(groups []core.GroupShare) {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	if total == 0 {
		return
	}
	for i := range groups {
		groups[i].Value = float64(groups[i].Count) / float64(total) * 100
	}
}

// OutcomeLabel is the display label of an outcome class.
func OutcomeLabel(o core.Outcome) string {
	if o == core.Success {
		return "Success"
	}
	return "Failure"
}

// DistinctSites returns the sites in order of first appearance.
func DistinctSites(records []core.LaunchRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Site] {
			seen[r.Site] = true
			out = append(out, r.Site)
		}
	}
	return out
}
