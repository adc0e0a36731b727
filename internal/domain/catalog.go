package domain

import "fmt"

// DisasterType names a disaster category as the backend spells it.
type DisasterType string

// World-scale disaster types.
const (
	Earthquake DisasterType = "Earthquake"
	Tsunami    DisasterType = "Tsunami"
	Volcano    DisasterType = "Volcano"
)

// US state disaster types.
const (
	Tornado        DisasterType = "Tornado"
	Flood          DisasterType = "Flood"
	Fire           DisasterType = "Fire"
	SevereStorm    DisasterType = "Severe Storm"
	Hurricane      DisasterType = "Hurricane"
	Snowstorm      DisasterType = "Snowstorm"
	SevereIceStorm DisasterType = "Severe Ice Storm"
	Drought        DisasterType = "Drought"
	Biological     DisasterType = "Biological"
)

// WorldDisasterTypes is the fixed world-scale domain. Adding a type here is a
// wire change for every query that relies on the default set.
func WorldDisasterTypes() []DisasterType {
	return []DisasterType{Earthquake, Tsunami, Volcano}
}

// StateDisasterTypes is the US state vocabulary, in chart stacking order.
func StateDisasterTypes() []DisasterType {
	return []DisasterType{Tornado, Flood, Fire, SevereStorm, Hurricane, Snowstorm, SevereIceStorm, Drought, Biological}
}

// IsWorldDisasterType reports whether t belongs to the world-scale domain.
func IsWorldDisasterType(t DisasterType) bool {
	for _, known := range WorldDisasterTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IndicatorKey is the alias the backend uses for an aggregate column.
type IndicatorKey string

const (
	AvgGDP                 IndicatorKey = "AvgGDP"
	AvgCPI                 IndicatorKey = "AvgCPI"
	AvgExportGrowth        IndicatorKey = "AvgExportGrowth"
	AvgImportGrowth        IndicatorKey = "AvgImportGrowth"
	AvgUnemployment        IndicatorKey = "AvgUnemployment"
	AvgAgricultureGrowth   IndicatorKey = "AvgAgricultureGrowth"
	AvgIndustryGrowth      IndicatorKey = "AvgIndustryGrowth"
	AvgManufacturingGrowth IndicatorKey = "AvgManufacturingGrowth"
	AvgServiceGrowth       IndicatorKey = "AvgServiceGrowth"
)

// Indicator is one entry of the aggregate expression catalog.
type Indicator struct {
	Key        IndicatorKey
	Label      string
	Expression string
	Percent    bool // rendered with a trailing "%"
}

var indicators = []Indicator{
	{Key: AvgGDP, Label: "Average GDP Growth", Expression: "AVG(ne.GDPAnnualPercentGrowth) AS AvgGDP", Percent: true},
	{Key: AvgCPI, Label: "Average CPI (2010=100)", Expression: "AVG(ne.CPI_2010_100) AS AvgCPI"},
	{Key: AvgExportGrowth, Label: "Average Export Growth", Expression: "AVG(ne.ExportsAnnualPercentGrowth) AS AvgExportGrowth", Percent: true},
	{Key: AvgImportGrowth, Label: "Average Import Growth", Expression: "AVG(ne.ImportsAnnualPercentGrowth) AS AvgImportGrowth", Percent: true},
	{Key: AvgUnemployment, Label: "Average Unemployment", Expression: "AVG(ne.UnemploymentPercent) AS AvgUnemployment", Percent: true},
	{Key: AvgAgricultureGrowth, Label: "Average Agriculture Growth", Expression: "AVG(se.AgricultureAnnualPercentGrowth) AS AvgAgricultureGrowth", Percent: true},
	{Key: AvgIndustryGrowth, Label: "Average Industry Growth", Expression: "AVG(se.IndustryAnnualPercentGrowth) AS AvgIndustryGrowth", Percent: true},
	{Key: AvgManufacturingGrowth, Label: "Average Manufacturing Growth", Expression: "AVG(se.ManufacturingAnnualPercentGrowth) AS AvgManufacturingGrowth", Percent: true},
	{Key: AvgServiceGrowth, Label: "Average Service Growth", Expression: "AVG(se.ServiceAnnualPercentGrowth) AS AvgServiceGrowth", Percent: true},
}

// Indicators returns the full catalog in display order.
func Indicators() []Indicator {
	out := make([]Indicator, len(indicators))
	copy(out, indicators)
	return out
}

// DefaultIndicators is the pair substituted when a query names none.
func DefaultIndicators() []IndicatorKey {
	return []IndicatorKey{AvgGDP, AvgCPI}
}

// LookupIndicator finds a catalog entry by key.
func LookupIndicator(key IndicatorKey) (Indicator, bool) {
	for _, ind := range indicators {
		if ind.Key == key {
			return ind, true
		}
	}
	return Indicator{}, false
}

// ResolveIndicator accepts a key, a label or a full expression and returns
// the matching catalog entry.
func ResolveIndicator(s string) (Indicator, bool) {
	for _, ind := range indicators {
		if string(ind.Key) == s || ind.Label == s || ind.Expression == s {
			return ind, true
		}
	}
	return Indicator{}, false
}

// AggregateBy selects how global statistics are grouped.
type AggregateBy string

const (
	AggregateIndividual    AggregateBy = "Individual Disasters"
	AggregateDisasterTypes AggregateBy = "Disaster Types"
)

// SortOption orders global statistics rows.
type SortOption string

const (
	SortYearAsc       SortOption = "Year (Ascending)"
	SortYearDesc      SortOption = "Year (Descending)"
	SortIndicatorAsc  SortOption = "Indicator (Ascending)"
	SortIndicatorDesc SortOption = "Indicator (Descending)"
)

// Page identifies the screen a saved view restores into. The values are the
// strings stored by the backend.
type Page string

const (
	PageMap         Page = "DisasterMap"
	PageCompare     Page = "Compare"
	PageGlobalStats Page = "Global Stats"
)

// ParsePage accepts the stored page names plus the short CLI aliases.
func ParsePage(s string) (Page, error) {
	switch s {
	case string(PageMap), "map":
		return PageMap, nil
	case string(PageCompare), "compare":
		return PageCompare, nil
	case string(PageGlobalStats), "stats", "global":
		return PageGlobalStats, nil
	}
	return "", fmt.Errorf("unknown page %q", s)
}
