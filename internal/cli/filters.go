package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
)

// filterFlags are the selection flags shared by the data commands.
type filterFlags struct {
	countries  []string
	states     []string
	types      []string
	indicators []string
	start      string
	end        string
	aggregate  string
	sort       string
}

var aggregateAliases = map[string]domain.AggregateBy{
	"individual": domain.AggregateIndividual,
	"types":      domain.AggregateDisasterTypes,
}

var sortAliases = map[string]domain.SortOption{
	"year-asc":       domain.SortYearAsc,
	"year-desc":      domain.SortYearDesc,
	"indicator-asc":  domain.SortIndicatorAsc,
	"indicator-desc": domain.SortIndicatorDesc,
}

func (f *filterFlags) bindSelection(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.countries, "country", "c", nil, "Country to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.states, "state", nil, "US state to include (repeatable)")
	f.bindCommon(cmd)
}

func (f *filterFlags) bindStats(cmd *cobra.Command) {
	f.bindCommon(cmd)
	cmd.Flags().StringVar(&f.aggregate, "aggregate", "", "Grouping: individual|types")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Ordering: year-asc|year-desc|indicator-asc|indicator-desc")
}

func (f *filterFlags) bindCommon(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "Disaster type (repeatable, default all)")
	cmd.Flags().StringSliceVarP(&f.indicators, "indicator", "i", nil, "Indicator key or label (repeatable, default AvgGDP,AvgCPI)")
	cmd.Flags().StringVar(&f.start, "start", "", "First year")
	cmd.Flags().StringVar(&f.end, "end", "", "Last year")
}

// apply copies the flags into s. A year range that is inverted or out of
// bounds leaves the previous range in place and is reported as a note.
func (f *filterFlags) apply(s *filter.State) (notes []string, err error) {
	if len(f.countries) > 0 {
		s.SetCountries(f.countries...)
	}
	if len(f.states) > 0 {
		s.SetStates(f.states...)
	}
	if len(f.types) > 0 {
		types := make([]domain.DisasterType, 0, len(f.types))
		for _, t := range f.types {
			types = append(types, domain.DisasterType(strings.TrimSpace(t)))
		}
		s.SetDisasterTypes(types...)
	}
	if len(f.indicators) > 0 {
		s.SetIndicators(parseIndicators(f.indicators)...)
	}

	start, end := s.StartYear(), s.EndYear()
	if f.start != "" {
		if start, err = query.ParseYear("startYear", f.start); err != nil {
			return nil, err
		}
	}
	if f.end != "" {
		if end, err = query.ParseYear("endYear", f.end); err != nil {
			return nil, err
		}
	}
	if !s.SetYearRange(start, end) {
		notes = append(notes, fmt.Sprintf("year range %d-%d ignored, keeping %d-%d", start, end, s.StartYear(), s.EndYear()))
	}

	if f.aggregate != "" {
		a, ok := aggregateAliases[strings.ToLower(f.aggregate)]
		if !ok {
			a = domain.AggregateBy(f.aggregate)
		}
		s.SetAggregateBy(a)
	}
	if f.sort != "" {
		o, ok := sortAliases[strings.ToLower(f.sort)]
		if !ok {
			o = domain.SortOption(f.sort)
		}
		s.SetSortBy(o)
	}
	return notes, nil
}

// parseIndicators accepts keys, labels and expressions. Unknown names are
// kept so the query builder can reject them.
func parseIndicators(names []string) []domain.IndicatorKey {
	out := make([]domain.IndicatorKey, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if ind, ok := domain.ResolveIndicator(n); ok {
			out = append(out, ind.Key)
			continue
		}
		out = append(out, domain.IndicatorKey(n))
	}
	return out
}

func describeFilters(s filter.State) []string {
	indicators := make([]string, 0, len(s.Indicators()))
	for _, k := range s.Indicators() {
		indicators = append(indicators, string(k))
	}
	types := make([]string, 0, len(s.DisasterTypes()))
	for _, t := range s.DisasterTypes() {
		types = append(types, string(t))
	}
	return []string{
		"countries:  " + joinOrNone(s.Countries()),
		"states:     " + joinOrNone(s.States()),
		"types:      " + joinOrNone(types),
		"indicators: " + joinOrNone(indicators),
		fmt.Sprintf("years:      %d-%d", s.StartYear(), s.EndYear()),
		"aggregate:  " + string(s.AggregateBy()),
		"sort:       " + string(s.SortBy()),
	}
}
