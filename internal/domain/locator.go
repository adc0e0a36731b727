package domain

import "context"

// Locator search scopes.
const (
	LocateCountry = "country"
	LocateRegion  = "region"
)

// Coordinates is a WGS-84 point in map order (longitude first).
type Coordinates struct {
	Lon float64
	Lat float64
}

// LocatorResult is where a named region sits on the map.
type LocatorResult struct {
	Center     Coordinates
	PlaceName  string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider returned a place.
func (r LocatorResult) Found() bool { return r.PlaceName != "" }

// Locator resolves region names to map positions so a viewport can focus
// on the current selection.
type Locator interface {
	// Locate finds a country or state by name. scope is LocateCountry or
	// LocateRegion and narrows the provider search.
	Locate(ctx context.Context, name, scope string) (LocatorResult, error)
}
