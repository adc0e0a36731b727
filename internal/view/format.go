// Package view turns fetched rows into display payloads: tooltip text,
// highlighted regions, chart series and table cells. Everything here is a
// pure function of its inputs.
package view

import (
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// NA is shown for any value the backend did not supply. Zero is a value and
// is never rendered as NA.
const NA = "N/A"

// NoDataMessage is shown when the hovered entity is not in the result.
const NoDataMessage = "No data available."

// FormatNumber renders col with two decimals, or NA when it is missing or
// not numeric.
func FormatNumber(r domain.Row, col string) string {
	d, ok := r.Decimal(col)
	if !ok {
		return NA
	}
	return d.StringFixed(2)
}

// FormatPercent is FormatNumber with a trailing "%".
func FormatPercent(r domain.Row, col string) string {
	s := FormatNumber(r, col)
	if s == NA {
		return s
	}
	return s + "%"
}

// FormatText renders col verbatim, or NA when it is missing or blank.
func FormatText(r domain.Row, col string) string {
	if s := r.Text(col); s != "" {
		return s
	}
	return NA
}

// FormatIndicator renders an indicator column using the catalog's unit.
func FormatIndicator(r domain.Row, ind domain.Indicator) string {
	if ind.Percent {
		return FormatPercent(r, string(ind.Key))
	}
	return FormatNumber(r, string(ind.Key))
}

// Damage renders the damage mantissa with its scale, e.g. "12.50 (x1000000)".
func Damage(r domain.Row) string {
	amount := FormatNumber(r, domain.ColTotalDamage)
	if amount == NA {
		return NA
	}
	scale := r.Text(domain.ColTotalDamageScale)
	if scale == "" {
		return amount
	}
	return amount + " (x" + scale + ")"
}
