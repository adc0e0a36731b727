package view

import (
	"strings"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Line is one "label value" pair in a tooltip.
type Line struct {
	Label string
	Value string
}

// Tooltip is the hover card for a map region.
type Tooltip struct {
	Title  string
	Lines  []Line
	NoData bool
}

func (t Tooltip) String() string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.NoData {
		b.WriteString("\n")
		b.WriteString(NoDataMessage)
		return b.String()
	}
	for _, l := range t.Lines {
		b.WriteString("\n")
		b.WriteString(l.Label)
		b.WriteString(" ")
		b.WriteString(l.Value)
	}
	return b.String()
}

// BuildTooltip renders the hover card for hovered. A name that is not in
// the index yields a NoData card rather than an error. Empty indicators
// means the default pair.
func BuildTooltip(ix domain.ResultIndex, hovered string, indicators []domain.IndicatorKey) Tooltip {
	t := Tooltip{Title: hovered}
	row, ok := ix.Lookup(hovered)
	if !ok {
		t.NoData = true
		return t
	}

	t.Lines = []Line{
		{Label: "Total Disasters", Value: FormatNumber(row, domain.ColTotalDisasters)},
		{Label: "Total Deaths", Value: FormatNumber(row, domain.ColTotalDeaths)},
	}
	if len(indicators) == 0 {
		indicators = domain.DefaultIndicators()
	}
	for _, key := range indicators {
		ind, ok := domain.LookupIndicator(key)
		if !ok {
			continue
		}
		t.Lines = append(t.Lines, Line{Label: ind.Label, Value: FormatIndicator(row, ind)})
	}
	return t
}

// UnitedStates is the world map name that routes to the US state map.
const UnitedStates = "United States of America"

// IsUnitedStates reports whether clicking name should open the state map.
func IsUnitedStates(name string) bool { return name == UnitedStates }

// Highlighted is the set of regions to fill on the map: every entity the
// result knows about, sorted.
func Highlighted(ix domain.ResultIndex) []string { return ix.Keys() }
