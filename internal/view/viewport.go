package view

import (
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Scope selects which map a viewport shows.
type Scope int

const (
	ScopeWorld Scope = iota
	ScopeUS
)

// ZoomStep is the factor applied by one zoom in or out.
const ZoomStep = 1.5

type bounds struct {
	center  domain.Coordinates
	minZoom float64
	maxZoom float64
}

var scopes = map[Scope]bounds{
	ScopeWorld: {center: domain.Coordinates{Lon: 0, Lat: 20}, minZoom: 1, maxZoom: 4},
	ScopeUS:    {center: domain.Coordinates{Lon: -98, Lat: 38}, minZoom: 1, maxZoom: 8},
}

// Viewport is the visible part of a map.
type Viewport struct {
	Scope  Scope
	Center domain.Coordinates
	Zoom   float64
}

// NewViewport returns the home position for scope.
func NewViewport(scope Scope) Viewport {
	b := scopes[scope]
	return Viewport{Scope: scope, Center: b.center, Zoom: b.minZoom}
}

// ZoomIn scales the zoom up by ZoomStep, clamped to the scope's limits.
func (v Viewport) ZoomIn() Viewport {
	v.Zoom = v.clamp(v.Zoom * ZoomStep)
	return v
}

// ZoomOut scales the zoom down by ZoomStep, clamped to the scope's limits.
func (v Viewport) ZoomOut() Viewport {
	v.Zoom = v.clamp(v.Zoom / ZoomStep)
	return v
}

// Focus centres on a located region. A miss leaves the viewport unchanged.
func (v Viewport) Focus(r domain.LocatorResult, zoom float64) Viewport {
	if !r.Found() {
		return v
	}
	v.Center = r.Center
	v.Zoom = v.clamp(zoom)
	return v
}

// Reset returns to the home position.
func (v Viewport) Reset() Viewport { return NewViewport(v.Scope) }

func (v Viewport) clamp(z float64) float64 {
	b := scopes[v.Scope]
	return min(max(z, b.minZoom), b.maxZoom)
}
