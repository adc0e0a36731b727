package screen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/fetch"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

// --- fakes ---

type fakeSource struct {
	mu           sync.Mutex
	compareCalls []query.CompareRequest
	compare      func(ctx context.Context, req query.CompareRequest) ([]domain.Row, error)
	stats        func(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error)
	country      domain.CountryProfile
	state        domain.StateProfile
	err          error
}

func (f *fakeSource) CompareAggregated(ctx context.Context, req query.CompareRequest) ([]domain.Row, error) {
	f.mu.Lock()
	f.compareCalls = append(f.compareCalls, req)
	fn := f.compare
	f.mu.Unlock()
	if fn == nil {
		return nil, f.err
	}
	return fn(ctx, req)
}

func (f *fakeSource) GlobalStats(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error) {
	if f.stats == nil {
		return nil, f.err
	}
	return f.stats(ctx, req)
}

func (f *fakeSource) CountryData(_ context.Context, _ query.CountryRequest) (domain.CountryProfile, error) {
	return f.country, f.err
}

func (f *fakeSource) StateData(_ context.Context, _ query.StateRequest) (domain.StateProfile, error) {
	return f.state, f.err
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.compareCalls)
}

type fakeLocator struct {
	result domain.LocatorResult
	err    error
	scopes []string
}

func (l *fakeLocator) Locate(_ context.Context, _, scope string) (domain.LocatorResult, error) {
	l.scopes = append(l.scopes, scope)
	return l.result, l.err
}

func testDeps(src Source) Deps {
	return Deps{
		Source:  src,
		Builder: query.NewBuilder(),
		Metrics: observability.NewMetricsForTesting(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func countryRow(name string, disasters int) domain.Row {
	return domain.Row{
		domain.ColCountryName:    name,
		domain.ColTotalDisasters: json.Number(fmt.Sprint(disasters)),
		domain.ColTotalDeaths:    json.Number("100"),
		"AvgGDP":                 json.Number("1.234"),
		"AvgCPI":                 nil,
	}
}

func rowsOf(rows ...domain.Row) func(context.Context, query.CompareRequest) ([]domain.Row, error) {
	return func(context.Context, query.CompareRequest) ([]domain.Row, error) { return rows, nil }
}

// --- banner ---

func TestBanner(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"stale", fmt.Errorf("wrapped: %w", domain.ErrStaleResponse), ""},
		{"validation", domain.NewValidationError("countries", "please select at least one country"), "please select at least one country"},
		{"backend", &domain.BackendError{Endpoint: "/country_data", Status: 500, Message: "Country not found"}, "Country not found"},
		{"backend without message", &domain.BackendError{Endpoint: "/country_data", Status: 502}, NetworkBanner},
		{"network", &domain.NetworkError{Endpoint: "/global_stats", Err: context.DeadlineExceeded}, NetworkBanner},
		{"not logged in", domain.ErrNotLoggedIn, "Please log in first."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Banner(tt.err))
		})
	}
}

// --- map ---

func TestMap_ApplyBindsIndexAndTooltip(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 12), countryRow("Chile", 3))}
	m := NewMap(testDeps(src))
	m.Update(func(f *filter.State) { f.SetCountries("Japan", "Chile") })

	require.NoError(t, m.Apply(context.Background()))

	assert.Equal(t, fetch.StatusSuccess, m.Status())
	assert.Empty(t, m.Banner())
	assert.Equal(t, []string{"Chile", "Japan"}, m.Highlighted())

	tip := m.Hover("Japan")
	assert.False(t, tip.NoData)
	assert.Equal(t, []view.Line{
		{Label: "Total Disasters", Value: "12.00"},
		{Label: "Total Deaths", Value: "100.00"},
		{Label: "Average GDP Growth", Value: "1.23%"},
		{Label: "Average CPI (2010=100)", Value: view.NA},
	}, tip.Lines)

	assert.True(t, m.Hover("Peru").NoData)
}

func TestMap_ApplyWithoutCountriesSendsNothing(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 1))}
	m := NewMap(testDeps(src))

	err := m.Apply(context.Background())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, src.calls())
	assert.Equal(t, "please select at least one country", m.Banner())
	assert.Equal(t, fetch.StatusIdle, m.Status())
}

func TestMap_ValidationKeepsPreviousResult(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 1))}
	m := NewMap(testDeps(src))
	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, m.Apply(context.Background()))

	m.Update(func(f *filter.State) { f.SetCountries() })
	require.Error(t, m.Apply(context.Background()))

	assert.Equal(t, []string{"Japan"}, m.Highlighted())

	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, m.Apply(context.Background()))
	assert.Empty(t, m.Banner())
}

func TestMap_LatestRequestWins(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})

	src := &fakeSource{}
	src.compare = func(ctx context.Context, req query.CompareRequest) ([]domain.Row, error) {
		if req.Countries[0] == "Chile" {
			close(startedA)
			<-releaseA
			return []domain.Row{countryRow("Chile", 1)}, nil
		}
		return []domain.Row{countryRow("Japan", 2)}, nil
	}
	m := NewMap(testDeps(src))

	m.Update(func(f *filter.State) { f.SetCountries("Chile") })
	errA := make(chan error, 1)
	go func() { errA <- m.Apply(context.Background()) }()
	<-startedA

	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, m.Apply(context.Background()))

	close(releaseA)
	require.NoError(t, <-errA, "a superseded request is not reported")

	assert.Equal(t, []string{"Japan"}, m.Highlighted())
	assert.Equal(t, fetch.StatusSuccess, m.Status())
}

func TestMap_SupersededSettlesWhileNewerLoads(t *testing.T) {
	startedA, releaseA := make(chan struct{}), make(chan struct{})
	startedB, releaseB := make(chan struct{}), make(chan struct{})

	src := &fakeSource{}
	src.compare = func(_ context.Context, req query.CompareRequest) ([]domain.Row, error) {
		if req.Countries[0] == "Chile" {
			close(startedA)
			<-releaseA
			return []domain.Row{countryRow("Chile", 1)}, nil
		}
		close(startedB)
		<-releaseB
		return []domain.Row{countryRow("Japan", 2)}, nil
	}
	m := NewMap(testDeps(src))

	m.Update(func(f *filter.State) { f.SetCountries("Chile") })
	errA := make(chan error, 1)
	go func() { errA <- m.Apply(context.Background()) }()
	<-startedA

	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	errB := make(chan error, 1)
	go func() { errB <- m.Apply(context.Background()) }()
	<-startedB

	close(releaseA)
	require.NoError(t, <-errA)
	assert.Equal(t, fetch.StatusLoading, m.Status())
	assert.Empty(t, m.Highlighted())

	close(releaseB)
	require.NoError(t, <-errB)
	assert.Equal(t, fetch.StatusSuccess, m.Status())
	assert.Equal(t, []string{"Japan"}, m.Highlighted())
}

func TestMap_IndicatorEditWithoutApplyKeepsTooltip(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 12))}
	m := NewMap(testDeps(src))
	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, m.Apply(context.Background()))
	before := m.Hover("Japan")

	m.Update(func(f *filter.State) { f.SetIndicators(domain.AvgUnemployment) })

	assert.Equal(t, before, m.Hover("Japan"))
	assert.Contains(t, m.Hover("Japan").Lines, view.Line{Label: "Average GDP Growth", Value: "1.23%"})
	assert.Equal(t, 1, src.calls())
}

func TestMap_EmptyResultBanner(t *testing.T) {
	src := &fakeSource{compare: rowsOf()}
	m := NewMap(testDeps(src))
	m.Update(func(f *filter.State) { f.SetCountries("Atlantis") })

	require.NoError(t, m.Apply(context.Background()))
	assert.Equal(t, EmptyBanner, m.Banner())
}

func TestMap_NetworkErrorThenRetry(t *testing.T) {
	src := &fakeSource{err: &domain.NetworkError{Endpoint: "/compare_data_aggregated", Err: errors.New("connection refused")}}
	m := NewMap(testDeps(src))
	m.Update(func(f *filter.State) { f.SetCountries("Japan") })

	require.Error(t, m.Apply(context.Background()))
	assert.Equal(t, fetch.StatusError, m.Status())
	assert.Equal(t, NetworkBanner, m.Banner())
	assert.Equal(t, 1, src.calls(), "failures are not retried automatically")

	src.mu.Lock()
	src.compare = rowsOf(countryRow("Japan", 1))
	src.mu.Unlock()

	require.NoError(t, m.Retry(context.Background()))
	assert.Equal(t, fetch.StatusSuccess, m.Status())
	assert.Empty(t, m.Banner())
	assert.Equal(t, 2, src.calls())
}

func TestMap_ClickRouting(t *testing.T) {
	m := NewMap(testDeps(&fakeSource{}))

	assert.Equal(t, Route{Target: TargetCountry, Name: "Japan"}, m.Click("Japan"))
	assert.Equal(t, Route{Target: TargetUSMap, Name: view.UnitedStates}, m.Click(view.UnitedStates))
	assert.Equal(t, view.ScopeUS, m.Viewport().Scope)
	assert.Equal(t, Route{Target: TargetState, Name: "Texas"}, m.Click("Texas"))

	assert.Equal(t, view.ScopeWorld, m.Home().Scope)
	assert.Equal(t, Route{}, m.Click(""))
}

func TestMap_Zoom(t *testing.T) {
	m := NewMap(testDeps(&fakeSource{}))

	assert.InDelta(t, 1.5, m.ZoomIn().Zoom, 1e-9)
	assert.InDelta(t, 1.0, m.ZoomOut().Zoom, 1e-9)
	assert.InDelta(t, 1.0, m.ZoomOut().Zoom, 1e-9, "clamped at the minimum")
}

func TestMap_FocusSingleCountry(t *testing.T) {
	loc := &fakeLocator{result: domain.LocatorResult{Center: domain.Coordinates{Lon: 138, Lat: 36}, PlaceName: "Japan"}}
	d := testDeps(&fakeSource{})
	d.Locator = loc
	m := NewMap(d)

	require.NoError(t, m.Focus(context.Background()))
	assert.Empty(t, loc.scopes, "nothing selected, nothing located")

	m.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, m.Focus(context.Background()))

	vp := m.Viewport()
	assert.Equal(t, domain.Coordinates{Lon: 138, Lat: 36}, vp.Center)
	assert.InDelta(t, 3.0, vp.Zoom, 1e-9)
	assert.Equal(t, []string{domain.LocateCountry}, loc.scopes)
}

func TestMap_FocusStateOnUSMap(t *testing.T) {
	loc := &fakeLocator{result: domain.LocatorResult{Center: domain.Coordinates{Lon: -99, Lat: 31}, PlaceName: "Texas"}}
	d := testDeps(&fakeSource{})
	d.Locator = loc
	m := NewMap(d)
	m.Click(view.UnitedStates)
	m.Update(func(f *filter.State) { f.SetStates("Texas") })

	require.NoError(t, m.Focus(context.Background()))
	assert.Equal(t, []string{domain.LocateRegion}, loc.scopes)
	assert.InDelta(t, 5.0, m.Viewport().Zoom, 1e-9)
}

func TestMap_FocusLocatorErrorKeepsViewport(t *testing.T) {
	d := testDeps(&fakeSource{})
	d.Locator = &fakeLocator{err: errors.New("mapbox API error: status 401")}
	m := NewMap(d)
	m.Update(func(f *filter.State) { f.SetCountries("Japan") })

	require.Error(t, m.Focus(context.Background()))
	assert.Equal(t, view.NewViewport(view.ScopeWorld), m.Viewport())
}

// --- compare ---

func TestCompare_JapanDefaults(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 12))}
	c := NewCompare(testDeps(src))
	c.Update(func(f *filter.State) {
		f.SetCountries("Japan")
		f.SetYearRange(2000, 2020)
	})

	require.NoError(t, c.Apply(context.Background()))

	require.Equal(t, 1, src.calls())
	got := src.compareCalls[0]
	assert.Equal(t, []string{"Japan"}, got.Countries)
	assert.Equal(t, []string{"Earthquake", "Tsunami", "Volcano"}, got.DisasterTypes)
	assert.Equal(t, []string{
		"AVG(ne.GDPAnnualPercentGrowth) AS AvgGDP",
		"AVG(ne.CPI_2010_100) AS AvgCPI",
	}, got.Indicators)

	headers, cells := c.Table()
	assert.Equal(t, []string{"Country", "Total Disasters", "Total Deaths", "Average GDP Growth", "Average CPI (2010=100)"}, headers)
	assert.Equal(t, [][]string{{"Japan", "12.00", "100.00", "1.23%", view.NA}}, cells)
}

func TestCompare_IndicatorEditWithoutApplyKeepsTable(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Japan", 3))}
	c := NewCompare(testDeps(src))
	c.Update(func(f *filter.State) { f.SetCountries("Japan") })
	require.NoError(t, c.Apply(context.Background()))
	headers, cells := c.Table()

	c.Update(func(f *filter.State) { f.SetIndicators(domain.AvgUnemployment) })

	gotHeaders, gotCells := c.Table()
	assert.Equal(t, headers, gotHeaders)
	assert.Equal(t, cells, gotCells)
	assert.NotContains(t, gotHeaders, "Average Unemployment")

	require.NoError(t, c.Apply(context.Background()))
	gotHeaders, _ = c.Table()
	assert.Contains(t, gotHeaders, "Average Unemployment")
}

func TestCompare_RestoreFetchesSavedSelection(t *testing.T) {
	src := &fakeSource{compare: rowsOf(countryRow("Peru", 4))}
	c := NewCompare(testDeps(src))

	saved := filter.New()
	saved.SetCountries("Peru")
	saved.SetIndicators(domain.AvgUnemployment)

	require.NoError(t, c.Restore(context.Background(), saved))
	assert.Equal(t, []string{"Peru"}, c.Filters().Countries())
	assert.Equal(t, []string{"AVG(ne.UnemploymentPercent) AS AvgUnemployment"}, src.compareCalls[0].Indicators)
}

// --- global stats ---

func TestGlobalStats_Table(t *testing.T) {
	var sent query.GlobalStatsRequest
	src := &fakeSource{stats: func(_ context.Context, req query.GlobalStatsRequest) ([]domain.Row, error) {
		sent = req
		return []domain.Row{
			{"Year": json.Number("2001"), "DisasterType": "Earthquake", "AvgGDP": json.Number("2.5")},
			{"Year": json.Number("2000"), "DisasterType": "Volcano", "AvgGDP": json.Number("-0.5")},
		}, nil
	}}
	g := NewGlobalStats(testDeps(src))
	g.Update(func(f *filter.State) { f.SetSortBy(domain.SortIndicatorDesc) })

	require.NoError(t, g.Apply(context.Background()))
	assert.Equal(t, "Indicator (Descending)", sent.SortOption)
	assert.Equal(t, []string{"AvgGDP", "AvgCPI"}, sent.Indicators)

	headers, cells := g.Table()
	assert.Equal(t, []string{"Year", "DisasterType", "Average GDP Growth"}, headers)
	assert.Equal(t, [][]string{
		{"2001", "Earthquake", "2.50"},
		{"2000", "Volcano", "-0.50"},
	}, cells, "backend order is kept")
}

func TestGlobalStats_BackendMessageShownVerbatim(t *testing.T) {
	src := &fakeSource{err: &domain.BackendError{Endpoint: "/global_stats", Status: 400, Message: "Invalid sort option"}}
	g := NewGlobalStats(testDeps(src))

	require.Error(t, g.Apply(context.Background()))
	assert.Equal(t, "Invalid sort option", g.Banner())
}

// --- profiles ---

func TestCountryProfile_Open(t *testing.T) {
	src := &fakeSource{country: domain.CountryProfile{
		Overview: domain.Row{domain.ColCountryName: "Japan", "Population": json.Number("125700000")},
		National: []domain.Row{
			{"Year": json.Number("2001"), "GDPAnnualPercentGrowth": json.Number("0.4")},
			{"Year": json.Number("2000"), "GDPAnnualPercentGrowth": json.Number("2.8"), "CPI_2010_100": json.Number("102.7")},
		},
		Disasters: []domain.Row{
			{"Type": "Earthquake", "Year": json.Number("2011"), "Intensity": json.Number("9.1"),
				"TotalDamage": json.Number("235"), "TotalDamageScale": json.Number("1000000000"),
				"Deaths": json.Number("19759"), "Injuries": nil},
		},
		Timeline: []domain.TimelinePoint{{Year: 2011, Counts: map[domain.DisasterType]int{domain.Earthquake: 3}}},
	}}
	p := NewCountryProfile(testDeps(src))

	require.NoError(t, p.Open(context.Background(), " Japan "))
	assert.Equal(t, "Japan", p.Name())
	assert.Empty(t, p.Banner())

	assert.Equal(t, []view.Line{
		{Label: "CountryName", Value: "Japan"},
		{Label: "Population", Value: "125700000.00"},
	}, p.Overview())

	national := p.National()
	require.Len(t, national, 3)
	assert.Equal(t, 2000, national[0].Points[0].X)
	assert.True(t, national[1].Points[0].Valid)
	assert.False(t, national[1].Points[1].Valid, "missing CPI is a gap")

	_, cells := p.Disasters()
	assert.Equal(t, [][]string{{"Earthquake", "2011", "9.10", "235.00 (x1000000000)", "19759.00", view.NA}}, cells)

	timeline := p.Timeline()
	require.Len(t, timeline, 3)
	assert.Equal(t, "Earthquake", timeline[0].Label)
	assert.Equal(t, "3", timeline[0].Points[0].Y.String())
}

func TestCountryProfile_EmptyAndMissingName(t *testing.T) {
	src := &fakeSource{}
	p := NewCountryProfile(testDeps(src))

	require.NoError(t, p.Open(context.Background(), "Atlantis"))
	assert.Equal(t, EmptyBanner, p.Banner())
	assert.Nil(t, p.Overview())

	var verr *domain.ValidationError
	require.ErrorAs(t, p.Open(context.Background(), "  "), &verr)
	assert.Equal(t, "country", verr.Field)
}

func TestStateProfile_TimelinePivot(t *testing.T) {
	src := &fakeSource{state: domain.StateProfile{
		Overview: domain.Row{domain.ColStateName: "Texas", domain.ColStateCode: "TX", domain.ColRegion: "South"},
		Disasters: []domain.Row{
			{"Year": json.Number("2005"), "DisasterType": "Hurricane"},
			{"Year": json.Number("2005"), "DisasterType": "Hurricane"},
			{"Year": json.Number("2006"), "DisasterType": "Flood"},
		},
	}}
	p := NewStateProfile(testDeps(src))

	require.NoError(t, p.Open(context.Background(), "Texas"))

	lines := p.Overview()
	require.Len(t, lines, 3)
	assert.Equal(t, view.Line{Label: "StateName", Value: "Texas"}, lines[0])
	assert.Equal(t, view.Line{Label: "StateCode", Value: "TX"}, lines[1])

	timeline := p.Timeline()
	require.Len(t, timeline, len(domain.StateDisasterTypes()))
	for _, s := range timeline {
		require.Len(t, s.Points, 2)
		switch domain.DisasterType(s.Key) {
		case domain.Hurricane:
			assert.Equal(t, "2", s.Points[0].Y.String())
			assert.Equal(t, "0", s.Points[1].Y.String())
		case domain.Flood:
			assert.Equal(t, "0", s.Points[0].Y.String())
			assert.Equal(t, "1", s.Points[1].Y.String())
		}
	}

	headers, cells := p.Disasters()
	assert.Equal(t, []string{"Year", "Disaster Type"}, headers)
	assert.Len(t, cells, 3)
}
