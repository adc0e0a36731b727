package screen

import (
	"context"
	"sync"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

// CountryProfile is the per-country statistics page.
type CountryProfile struct {
	*base[domain.CountryProfile]
	deps Deps

	mu   sync.Mutex
	name string
}

// NewCountryProfile creates an empty country profile screen.
func NewCountryProfile(d Deps) *CountryProfile {
	return &CountryProfile{
		base: newBase("country_profile", d, domain.CountryProfile.Empty),
		deps: d,
	}
}

// Open loads the profile for a country.
func (p *CountryProfile) Open(ctx context.Context, country string) error {
	req, err := p.deps.builder().Country(country)
	if err != nil {
		return p.reject(err)
	}
	p.mu.Lock()
	p.name = req.Country
	p.mu.Unlock()
	return p.run(ctx, func(ctx context.Context) (domain.CountryProfile, error) {
		return p.deps.Source.CountryData(ctx, req)
	})
}

// Name is the country last opened.
func (p *CountryProfile) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Overview renders the overview record as label/value pairs.
func (p *CountryProfile) Overview() []view.Line {
	return overviewLines(p.value().Overview, domain.ColCountryName)
}

// Sectoral is the sector growth chart.
func (p *CountryProfile) Sectoral() []view.Series {
	return view.BuildSeries(p.value().Sectoral, view.CountrySectoralSeries)
}

// National is the GDP, CPI and unemployment chart.
func (p *CountryProfile) National() []view.Series {
	return view.BuildSeries(p.value().National, view.CountryNationalSeries)
}

// Timeline is the disaster count per year chart.
func (p *CountryProfile) Timeline() []view.Series {
	return view.TimelineSeries(p.value().Timeline, domain.WorldDisasterTypes())
}

// Disasters is the disaster list table.
func (p *CountryProfile) Disasters() ([]string, [][]string) {
	return view.Headers(view.CountryDisasterColumns), view.Table(p.value().Disasters, view.CountryDisasterColumns)
}

// StateProfile is the per-US-state statistics page.
type StateProfile struct {
	*base[domain.StateProfile]
	deps Deps

	mu   sync.Mutex
	name string
}

// NewStateProfile creates an empty state profile screen.
func NewStateProfile(d Deps) *StateProfile {
	return &StateProfile{
		base: newBase("state_profile", d, domain.StateProfile.Empty),
		deps: d,
	}
}

// Open loads the profile for a state.
func (p *StateProfile) Open(ctx context.Context, state string) error {
	req, err := p.deps.builder().State(state)
	if err != nil {
		return p.reject(err)
	}
	p.mu.Lock()
	p.name = req.State
	p.mu.Unlock()
	return p.run(ctx, func(ctx context.Context) (domain.StateProfile, error) {
		return p.deps.Source.StateData(ctx, req)
	})
}

// Name is the state last opened.
func (p *StateProfile) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Overview renders the overview record as label/value pairs.
func (p *StateProfile) Overview() []view.Line {
	return overviewLines(p.value().Overview, domain.ColStateName, domain.ColStateCode, domain.ColRegion)
}

// Growth is the sector growth chart.
func (p *StateProfile) Growth() []view.Series {
	return view.BuildSeries(p.value().EconomicGrowth, view.StateGrowthSeries)
}

// Totals is the GDP and personal income chart.
func (p *StateProfile) Totals() []view.Series {
	return view.BuildSeries(p.value().EconomicTotals, view.StateTotalsSeries)
}

// Timeline is the stacked disaster count chart, pivoted from the disaster
// list.
func (p *StateProfile) Timeline() []view.Series {
	points := view.DisasterTimeline(p.value().Disasters)
	return view.TimelineSeries(points, domain.StateDisasterTypes())
}

// Disasters is the disaster list table.
func (p *StateProfile) Disasters() ([]string, [][]string) {
	return view.Headers(view.StateDisasterColumns), view.Table(p.value().Disasters, view.StateDisasterColumns)
}

func overviewLines(r domain.Row, leading ...string) []view.Line {
	if len(r) == 0 {
		return nil
	}
	rows := []domain.Row{r}
	cols := view.InferColumns(rows, leading...)
	lines := make([]view.Line, 0, len(cols))
	for _, c := range cols {
		lines = append(lines, view.Line{Label: c.Header, Value: view.Cell(r, c)})
	}
	return lines
}
