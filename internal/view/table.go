package view

import (
	"sort"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Kind selects how a table cell is rendered.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindPercent
	KindDamage
)

// Column is one table column.
type Column struct {
	Header string
	Key    string
	Kind   Kind
}

// Table layouts for the profile screens.
var (
	CountryDisasterColumns = []Column{
		{Header: "Type", Key: domain.ColType},
		{Header: "Year", Key: domain.ColYear},
		{Header: "Intensity", Key: domain.ColIntensity, Kind: KindNumber},
		{Header: "Total Damage", Key: domain.ColTotalDamage, Kind: KindDamage},
		{Header: "Deaths", Key: domain.ColDeaths, Kind: KindNumber},
		{Header: "Injuries", Key: domain.ColInjuries, Kind: KindNumber},
	}
	StateDisasterColumns = []Column{
		{Header: "Year", Key: domain.ColYear},
		{Header: "Disaster Type", Key: domain.ColDisasterType},
	}
)

// textColumns are never rendered as numbers even when they hold digits.
var textColumns = map[string]bool{
	domain.ColYear:             true,
	domain.ColCountryName:      true,
	domain.ColStateName:        true,
	domain.ColStateCode:        true,
	domain.ColRegion:           true,
	domain.ColType:             true,
	domain.ColDisasterType:     true,
	domain.ColTotalDamageScale: true,
}

// CompareColumns is the comparison table: one row per country with its
// totals and the selected indicators.
func CompareColumns(indicators []domain.IndicatorKey) []Column {
	cols := []Column{
		{Header: "Country", Key: domain.ColCountryName},
		{Header: "Total Disasters", Key: domain.ColTotalDisasters, Kind: KindNumber},
		{Header: "Total Deaths", Key: domain.ColTotalDeaths, Kind: KindNumber},
	}
	if len(indicators) == 0 {
		indicators = domain.DefaultIndicators()
	}
	for _, key := range indicators {
		if ind, ok := domain.LookupIndicator(key); ok {
			kind := KindNumber
			if ind.Percent {
				kind = KindPercent
			}
			cols = append(cols, Column{Header: ind.Label, Key: string(ind.Key), Kind: kind})
		}
	}
	return cols
}

// InferColumns derives a layout from whatever keys the rows carry. Keys in
// leading come first in that order; the rest follow sorted. A column is
// numeric when it is not a known text column and some row holds a number in
// it.
func InferColumns(rows []domain.Row, leading ...string) []Column {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}

	var keys []string
	for _, k := range leading {
		if seen[k] {
			keys = append(keys, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	cols := make([]Column, 0, len(keys))
	for _, k := range keys {
		col := Column{Header: k, Key: k}
		if ind, ok := domain.LookupIndicator(domain.IndicatorKey(k)); ok {
			col.Header = ind.Label
		}
		if !textColumns[k] && anyNumeric(rows, k) {
			col.Kind = KindNumber
		}
		cols = append(cols, col)
	}
	return cols
}

func anyNumeric(rows []domain.Row, col string) bool {
	for _, r := range rows {
		if _, ok := r.Decimal(col); ok {
			return true
		}
	}
	return false
}

// Headers returns the column headers.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Table renders rows as string cells in backend order.
func Table(rows []domain.Row, cols []Column) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = Cell(r, c)
		}
		out = append(out, cells)
	}
	return out
}

// Cell renders one value.
func Cell(r domain.Row, c Column) string {
	switch c.Kind {
	case KindNumber:
		return FormatNumber(r, c.Key)
	case KindPercent:
		return FormatPercent(r, c.Key)
	case KindDamage:
		return Damage(r)
	default:
		return FormatText(r, c.Key)
	}
}
