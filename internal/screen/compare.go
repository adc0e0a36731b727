package screen

import (
	"context"
	"sync"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/fetch"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

// Compare is the multi-country comparison page.
type Compare struct {
	*base[comparison]
	deps Deps

	mu      sync.Mutex
	filters filter.State
}

// NewCompare creates the comparison screen with default filters.
func NewCompare(d Deps) *Compare {
	return &Compare{
		base:    newBase("compare", d, comparisonEmpty),
		deps:    d,
		filters: filter.New(),
	}
}

// Filters returns a copy of the current selection.
func (c *Compare) Filters() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Update edits the selection. It does not fetch.
func (c *Compare) Update(edit func(*filter.State)) {
	c.mu.Lock()
	edit(&c.filters)
	c.mu.Unlock()
}

// Apply fetches data for the current selection.
func (c *Compare) Apply(ctx context.Context) error {
	load, err := c.deps.loadComparison(c.Filters())
	if err != nil {
		return c.reject(err)
	}
	return c.run(ctx, load)
}

// Restore replaces the selection with a saved one and fetches it.
func (c *Compare) Restore(ctx context.Context, s filter.State) error {
	c.Update(func(f *filter.State) { *f = s })
	return c.Apply(ctx)
}

// Table renders one row per country with totals and the indicators the
// bound result was fetched with.
func (c *Compare) Table() ([]string, [][]string) {
	bound := c.value()
	cols := view.CompareColumns(bound.indicators)
	return view.Headers(cols), view.Table(bound.index.Rows(), cols)
}

// comparison is a fetched per-country result together with the indicators
// it was requested with. Editing filters afterwards does not change it.
type comparison struct {
	index      domain.ResultIndex
	indicators []domain.IndicatorKey
}

func comparisonEmpty(c comparison) bool { return c.index.Len() == 0 }

// loadComparison builds the compare request for s and the load that binds
// its result.
func (d Deps) loadComparison(s filter.State) (fetch.LoadFunc[comparison], error) {
	req, err := d.builder().Compare(s)
	if err != nil {
		return nil, err
	}
	indicators := s.Indicators()
	return func(ctx context.Context) (comparison, error) {
		rows, err := d.Source.CompareAggregated(ctx, req)
		if err != nil {
			return comparison{}, err
		}
		return comparison{
			index:      domain.NewResultIndex(rows, domain.ColCountryName),
			indicators: indicators,
		}, nil
	}, nil
}
