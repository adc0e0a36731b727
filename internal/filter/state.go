// Package filter holds the user's current selection for a screen.
//
// Setting a field never triggers a fetch; fetching is an explicit Apply on
// the owning screen. A State is owned by exactly one screen.
package filter

import (
	"sort"
	"strings"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Year bounds accepted by the range selector.
const (
	MinYear          = 1900
	MaxYear          = 2024
	DefaultStartYear = 2000
	DefaultEndYear   = 2020
)

// State is the filter selection. The zero value is not useful; use New.
// Set-valued fields are kept sorted and deduplicated, so two States holding
// the same selection are equal.
type State struct {
	countries     []string
	states        []string
	disasterTypes []domain.DisasterType
	indicators    []domain.IndicatorKey
	startYear     int
	endYear       int
	aggregateBy   domain.AggregateBy
	sortBy        domain.SortOption
}

// New returns a State with the default year range and global-stats options.
func New() State {
	return State{
		startYear:   DefaultStartYear,
		endYear:     DefaultEndYear,
		aggregateBy: domain.AggregateDisasterTypes,
		sortBy:      domain.SortYearAsc,
	}
}

func (s State) Countries() []string                  { return clone(s.countries) }
func (s State) States() []string                     { return clone(s.states) }
func (s State) DisasterTypes() []domain.DisasterType { return clone(s.disasterTypes) }
func (s State) Indicators() []domain.IndicatorKey    { return clone(s.indicators) }
func (s State) StartYear() int                       { return s.startYear }
func (s State) EndYear() int                         { return s.endYear }
func (s State) AggregateBy() domain.AggregateBy      { return s.aggregateBy }
func (s State) SortBy() domain.SortOption            { return s.sortBy }

// SetCountries replaces the country selection.
func (s *State) SetCountries(names ...string) { s.countries = normalize(names) }

// AddCountry adds one country to the selection.
func (s *State) AddCountry(name string) {
	s.countries = normalize(append(clone(s.countries), name))
}

// RemoveCountry drops one country from the selection.
func (s *State) RemoveCountry(name string) {
	s.countries = without(s.countries, name)
}

// SetStates replaces the US state selection.
func (s *State) SetStates(names ...string) { s.states = normalize(names) }

// SetDisasterTypes replaces the disaster type selection. An empty selection
// means "all" at query time.
func (s *State) SetDisasterTypes(types ...domain.DisasterType) {
	s.disasterTypes = normalize(types)
}

// SetIndicators replaces the indicator selection. An empty selection means
// the default pair at query time.
func (s *State) SetIndicators(keys ...domain.IndicatorKey) {
	s.indicators = normalize(keys)
}

// SetYearRange applies a new range. An inverted or out-of-bounds range is
// rejected silently: the previous range is kept and false is returned.
func (s *State) SetYearRange(start, end int) bool {
	if !validRange(start, end) {
		return false
	}
	s.startYear, s.endYear = start, end
	return true
}

// SetStartYear moves the lower bound, keeping the range valid.
func (s *State) SetStartYear(year int) bool { return s.SetYearRange(year, s.endYear) }

// SetEndYear moves the upper bound, keeping the range valid.
func (s *State) SetEndYear(year int) bool { return s.SetYearRange(s.startYear, year) }

// SetAggregateBy selects the global statistics grouping.
func (s *State) SetAggregateBy(a domain.AggregateBy) { s.aggregateBy = a }

// SetSortBy selects the global statistics ordering.
func (s *State) SetSortBy(o domain.SortOption) { s.sortBy = o }

func validRange(start, end int) bool {
	return start <= end && start >= MinYear && end <= MaxYear
}

func normalize[T ~string](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		v = T(strings.TrimSpace(string(v)))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func without[T comparable](in []T, drop T) []T {
	var out []T
	for _, v := range in {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
