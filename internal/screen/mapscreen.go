package screen

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

// Zoom levels used when focusing on a single located region.
const (
	countryFocusZoom = 3
	stateFocusZoom   = 5
)

// Target says where a click on the map leads.
type Target int

const (
	TargetNone Target = iota
	TargetCountry
	TargetUSMap
	TargetState
)

// Route is the result of clicking a region.
type Route struct {
	Target Target
	Name   string
}

// Map is the disaster map page. The world map is data bound; the US map
// only routes to state profiles.
type Map struct {
	*base[comparison]
	deps Deps

	mu       sync.Mutex
	filters  filter.State
	viewport view.Viewport
}

// NewMap creates the map screen on the world view.
func NewMap(d Deps) *Map {
	return &Map{
		base:     newBase("map", d, comparisonEmpty),
		deps:     d,
		filters:  filter.New(),
		viewport: view.NewViewport(view.ScopeWorld),
	}
}

// Filters returns a copy of the current selection.
func (m *Map) Filters() filter.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// Update edits the selection. It does not fetch.
func (m *Map) Update(edit func(*filter.State)) {
	m.mu.Lock()
	edit(&m.filters)
	m.mu.Unlock()
}

// Apply fetches data for the current selection and rebuilds the hover
// index.
func (m *Map) Apply(ctx context.Context) error {
	load, err := m.deps.loadComparison(m.Filters())
	if err != nil {
		return m.reject(err)
	}
	return m.run(ctx, load)
}

// Restore replaces the selection with a saved one and fetches it.
func (m *Map) Restore(ctx context.Context, s filter.State) error {
	m.Update(func(f *filter.State) { *f = s })
	return m.Apply(ctx)
}

// Hover builds the tooltip for a region from the bound result and the
// indicators it was fetched with. Regions outside the result get a "no
// data" card.
func (m *Map) Hover(name string) view.Tooltip {
	bound := m.value()
	return view.BuildTooltip(bound.index, name, bound.indicators)
}

// Highlighted lists the regions the current result covers.
func (m *Map) Highlighted() []string { return view.Highlighted(m.value().index) }

// Click resolves a click on name. The United States opens the state map;
// any other country opens its profile. On the state map every click opens
// a state profile.
func (m *Map) Click(name string) Route {
	if name == "" {
		return Route{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.viewport.Scope == view.ScopeUS {
		return Route{Target: TargetState, Name: name}
	}
	if view.IsUnitedStates(name) {
		m.viewport = view.NewViewport(view.ScopeUS)
		return Route{Target: TargetUSMap, Name: name}
	}
	return Route{Target: TargetCountry, Name: name}
}

// Viewport returns the visible map area.
func (m *Map) Viewport() view.Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}

// ZoomIn zooms one step in.
func (m *Map) ZoomIn() view.Viewport { return m.moveViewport(view.Viewport.ZoomIn) }

// ZoomOut zooms one step out.
func (m *Map) ZoomOut() view.Viewport { return m.moveViewport(view.Viewport.ZoomOut) }

// Home resets the view; from the state map it returns to the world.
func (m *Map) Home() view.Viewport {
	return m.moveViewport(func(v view.Viewport) view.Viewport {
		if v.Scope == view.ScopeUS {
			return view.NewViewport(view.ScopeWorld)
		}
		return v.Reset()
	})
}

func (m *Map) moveViewport(move func(view.Viewport) view.Viewport) view.Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = move(m.viewport)
	return m.viewport
}

// Focus centres the map on the selection when exactly one region is
// chosen. Without a locator, or with several regions selected, it does
// nothing.
func (m *Map) Focus(ctx context.Context) error {
	if m.deps.Locator == nil {
		return nil
	}
	vp := m.Viewport()
	f := m.Filters()

	name, scope, zoom := "", domain.LocateCountry, float64(countryFocusZoom)
	if vp.Scope == view.ScopeUS {
		if states := f.States(); len(states) == 1 {
			name = states[0]
		}
		scope, zoom = domain.LocateRegion, stateFocusZoom
	} else if countries := f.Countries(); len(countries) == 1 {
		name = countries[0]
	}
	if name == "" {
		return nil
	}

	r, err := m.deps.Locator.Locate(ctx, name, scope)
	if err != nil {
		return fmt.Errorf("locate %s: %w", name, err)
	}
	if !r.Found() {
		m.logger.Debug("region not located", "name", name, "scope", scope)
		return nil
	}
	m.moveViewport(func(v view.Viewport) view.Viewport { return v.Focus(r, zoom) })
	return nil
}
