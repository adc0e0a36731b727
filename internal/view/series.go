package view

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// SeriesSpec selects one column of a row set as a chart line.
type SeriesSpec struct {
	Key   string
	Label string
}

// Point is one sample of a series. Valid is false where the row had no
// value; charts draw a gap there instead of a zero.
type Point struct {
	X     int
	Y     decimal.Decimal
	Valid bool
}

// Series is one chart line.
type Series struct {
	Key    string
	Label  string
	Points []Point
}

// Chart specs for the profile screens.
var (
	CountrySectoralSeries = []SeriesSpec{
		{Key: "AgricultureAnnualPercentGrowth", Label: "Agriculture"},
		{Key: "IndustryAnnualPercentGrowth", Label: "Industry"},
		{Key: "ManufacturingAnnualPercentGrowth", Label: "Manufacturing"},
		{Key: "ServiceAnnualPercentGrowth", Label: "Service"},
	}
	CountryNationalSeries = []SeriesSpec{
		{Key: "GDPAnnualPercentGrowth", Label: "GDP Growth"},
		{Key: "CPI_2010_100", Label: "CPI (2010=100)"},
		{Key: "UnemploymentPercent", Label: "Unemployment %"},
	}
	StateGrowthSeries = []SeriesSpec{
		{Key: "AgriculturePercentGrowth", Label: "Agriculture Growth"},
		{Key: "ManufacturingPercentGrowth", Label: "Manufacturing Growth"},
		{Key: "RealEstatePercentGrowth", Label: "Real Estate Growth"},
	}
	StateTotalsSeries = []SeriesSpec{
		{Key: "GDPGrowth", Label: "GDP Growth (%)"},
		{Key: "PersonalIncomeGrowth", Label: "Personal Income Growth (%)"},
	}
)

// BuildSeries extracts one series per spec, keyed on the Year column. Rows
// without a year are skipped; points are ordered by year.
func BuildSeries(rows []domain.Row, specs []SeriesSpec) []Series {
	type sample struct {
		year int
		row  domain.Row
	}
	samples := make([]sample, 0, len(rows))
	for _, r := range rows {
		if y, ok := r.Int(domain.ColYear); ok {
			samples = append(samples, sample{year: y, row: r})
		}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].year < samples[j].year })

	out := make([]Series, 0, len(specs))
	for _, spec := range specs {
		s := Series{Key: spec.Key, Label: spec.Label, Points: make([]Point, 0, len(samples))}
		for _, smp := range samples {
			y, ok := smp.row.Decimal(spec.Key)
			s.Points = append(s.Points, Point{X: smp.year, Y: y, Valid: ok})
		}
		out = append(out, s)
	}
	return out
}

// TimelineSeries turns per-year counts into one series per disaster type.
func TimelineSeries(points []domain.TimelinePoint, types []domain.DisasterType) []Series {
	out := make([]Series, 0, len(types))
	for _, t := range types {
		s := Series{Key: string(t), Label: string(t), Points: make([]Point, 0, len(points))}
		for _, p := range points {
			s.Points = append(s.Points, Point{X: p.Year, Y: decimal.NewFromInt(int64(p.Counts[t])), Valid: true})
		}
		out = append(out, s)
	}
	return out
}

// DisasterTimeline pivots a state's disaster rows into per-year counts over
// the US disaster vocabulary. Unknown types still open their year but are
// not counted.
func DisasterTimeline(rows []domain.Row) []domain.TimelinePoint {
	byYear := make(map[int]*domain.TimelinePoint)
	for _, r := range rows {
		year, ok := r.Int(domain.ColYear)
		if !ok {
			continue
		}
		p, seen := byYear[year]
		if !seen {
			p = &domain.TimelinePoint{Year: year, Counts: make(map[domain.DisasterType]int)}
			for _, t := range domain.StateDisasterTypes() {
				p.Counts[t] = 0
			}
			byYear[year] = p
		}
		t := domain.DisasterType(r.Text(domain.ColDisasterType))
		if _, known := p.Counts[t]; known {
			p.Counts[t]++
		}
	}

	out := make([]domain.TimelinePoint, 0, len(byYear))
	for _, p := range byYear {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
