package core

import "sort"

// AllSentinel is the widget value meaning "every launch site".
const AllSentinel = "all"

// RawSelection is the site multi-select value as the input widget holds it:
// a list of site names that may contain AllSentinel.
type RawSelection []string

// Selection is the resolved site selection: either all sites or a concrete
// set. The zero value is All.
type Selection struct {
	specific bool
	sites    []string
}

// AllSites returns the selection covering every site.
func AllSites() Selection {
	return Selection{}
}

// SpecificSites returns a concrete selection. Duplicates are removed and the
// order of first appearance is kept.
func SpecificSites(sites ...string) Selection {
	seen := make(map[string]bool, len(sites))
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return Selection{specific: true, sites: out}
}

// IsAll reports whether the selection is the "all sites" variant. A specific
// selection with no members is treated as all.
func (s Selection) IsAll() bool {
	return !s.specific || len(s.sites) == 0
}

// Sites returns a copy of the concrete sites. It is empty for All.
func (s Selection) Sites() []string {
	if s.IsAll() {
		return nil
	}
	return append([]string(nil), s.sites...)
}

// Len is the number of concrete sites, 0 for All.
func (s Selection) Len() int {
	if s.IsAll() {
		return 0
	}
	return len(s.sites)
}

// Contains reports whether site is part of the selection. All contains every site.
func (s Selection) Contains(site string) bool {
	if s.IsAll() {
		return true
	}
	for _, v := range s.sites {
		if v == site {
			return true
		}
	}
	return false
}

// SameSet reports whether the concrete sites equal the given universe, ignoring order.
func (s Selection) SameSet(universe []string) bool {
	if s.IsAll() {
		return true
	}
	if len(s.sites) != len(universe) {
		return false
	}
	a := append([]string(nil), s.sites...)
	b := append([]string(nil), universe...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
