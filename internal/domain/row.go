package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known column names.
const (
	ColCountryName      = "CountryName"
	ColStateName        = "StateName"
	ColStateCode        = "StateCode"
	ColRegion           = "Region"
	ColYear             = "Year"
	ColType             = "Type"
	ColDisasterType     = "DisasterType"
	ColTotalDisasters   = "TotalDisasters"
	ColTotalDeaths      = "TotalDeaths"
	ColTotalDamage      = "TotalDamage"
	ColTotalDamageScale = "TotalDamageScale"
	ColInjuries         = "Injuries"
	ColDeaths           = "Deaths"
	ColIntensity        = "Intensity"
)

// Row is one loosely typed record returned by the backend. Numbers are kept
// as json.Number so no precision is lost before display.
type Row map[string]any

// Has reports whether col is present and non-null.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// Text renders col as a plain string, or "" when absent.
func (r Row) Text(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Decimal parses col as a number. Strings holding numbers are accepted;
// anything else (missing, null, "NaN", free text) reports false.
func (r Row) Decimal(col string) (decimal.Decimal, bool) {
	switch v := r[col].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Decimal{}, false
}

// Int parses col as an integer, truncating any fraction.
func (r Row) Int(col string) (int, bool) {
	d, ok := r.Decimal(col)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// ResultIndex maps entity name to row for constant-time hover lookups while
// keeping the original row order for tables. It is built once per
// successful fetch and never mutated afterwards.
type ResultIndex struct {
	rows  []Row
	byKey map[string]Row
}

// NewResultIndex indexes rows by the first non-empty key column. When two
// rows share a key the first one wins.
func NewResultIndex(rows []Row, keyCols ...string) ResultIndex {
	ix := ResultIndex{
		rows:  rows,
		byKey: make(map[string]Row, len(rows)),
	}
	for _, row := range rows {
		key := entityKey(row, keyCols)
		if key == "" {
			continue
		}
		if _, dup := ix.byKey[key]; dup {
			continue
		}
		ix.byKey[key] = row
	}
	return ix
}

func entityKey(row Row, keyCols []string) string {
	for _, col := range keyCols {
		if k := row.Text(col); k != "" {
			return k
		}
	}
	return ""
}

// Lookup returns the row for an entity name.
func (ix ResultIndex) Lookup(name string) (Row, bool) {
	row, ok := ix.byKey[name]
	return row, ok
}

// Rows returns the rows in backend order.
func (ix ResultIndex) Rows() []Row { return ix.rows }

// Len is the number of rows, including unkeyed ones.
func (ix ResultIndex) Len() int { return len(ix.rows) }

// Keys returns the indexed entity names, sorted.
func (ix ResultIndex) Keys() []string {
	keys := make([]string, 0, len(ix.byKey))
	for k := range ix.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TimelinePoint counts disasters of each type in one year.
type TimelinePoint struct {
	Year   int
	Counts map[DisasterType]int
}

// CountryProfile is the /country_data response with every section defaulted.
type CountryProfile struct {
	Overview  Row
	Sectoral  []Row
	National  []Row
	Disasters []Row
	Timeline  []TimelinePoint
}

// Empty reports whether the backend knew nothing about the country.
func (p CountryProfile) Empty() bool {
	return len(p.Overview) == 0 && len(p.Sectoral) == 0 && len(p.National) == 0 &&
		len(p.Disasters) == 0 && len(p.Timeline) == 0
}

// StateProfile is the /state_data response with every section defaulted.
type StateProfile struct {
	Overview       Row
	EconomicGrowth []Row
	EconomicTotals []Row
	Disasters      []Row
}

// Empty reports whether the backend knew nothing about the state.
func (p StateProfile) Empty() bool {
	return len(p.Overview) == 0 && len(p.EconomicGrowth) == 0 &&
		len(p.EconomicTotals) == 0 && len(p.Disasters) == 0
}
