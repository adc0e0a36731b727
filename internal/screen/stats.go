package screen

import (
	"context"
	"sync"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

// GlobalStats is the aggregate statistics page.
type GlobalStats struct {
	*base[[]domain.Row]
	deps Deps

	mu      sync.Mutex
	filters filter.State
}

// NewGlobalStats creates the statistics screen with default filters.
func NewGlobalStats(d Deps) *GlobalStats {
	return &GlobalStats{
		base:    newBase("global_stats", d, func(rows []domain.Row) bool { return len(rows) == 0 }),
		deps:    d,
		filters: filter.New(),
	}
}

// Filters returns a copy of the current selection.
func (g *GlobalStats) Filters() filter.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filters
}

// Update edits the selection. It does not fetch.
func (g *GlobalStats) Update(edit func(*filter.State)) {
	g.mu.Lock()
	edit(&g.filters)
	g.mu.Unlock()
}

// Apply fetches statistics for the current selection.
func (g *GlobalStats) Apply(ctx context.Context) error {
	req, err := g.deps.builder().GlobalStats(g.Filters())
	if err != nil {
		return g.reject(err)
	}
	return g.run(ctx, func(ctx context.Context) ([]domain.Row, error) {
		return g.deps.Source.GlobalStats(ctx, req)
	})
}

// Restore replaces the selection with a saved one and fetches it.
func (g *GlobalStats) Restore(ctx context.Context, s filter.State) error {
	g.Update(func(f *filter.State) { *f = s })
	return g.Apply(ctx)
}

// Table renders the rows in backend order; the backend already applied the
// chosen sort.
func (g *GlobalStats) Table() ([]string, [][]string) {
	rows := g.value()
	cols := view.InferColumns(rows, domain.ColYear, domain.ColDisasterType, domain.ColType, domain.ColCountryName)
	return view.Headers(cols), view.Table(rows, cols)
}
