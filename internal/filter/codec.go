package filter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Saved blobs use the key names the saved-graphs page has always written.
const (
	keyCountries  = "countries"
	keyStates     = "states"
	keyStartYear  = "startYear"
	keyEndYear    = "endYear"
	keyDisasters  = "selectedDisasters"
	keyIndicators = "selectedIndicators"
	keyAggregate  = "aggregationType"
	keySort       = "sortOption"
)

// legacyIndicators maps misspelt keys found in older saved blobs onto the
// catalog. They are read, never written.
var legacyIndicators = map[string]domain.IndicatorKey{
	"AvgAgrictultureGrowth": domain.AvgAgricultureGrowth,
}

type encoded struct {
	Countries          []string `json:"countries,omitempty"`
	States             []string `json:"states,omitempty"`
	StartYear          int      `json:"startYear"`
	EndYear            int      `json:"endYear"`
	SelectedDisasters  []string `json:"selectedDisasters"`
	SelectedIndicators []string `json:"selectedIndicators"`
	AggregationType    string   `json:"aggregationType"`
	SortOption         string   `json:"sortOption"`
}

// Encode serializes s for storage in a saved view.
func Encode(s State) (json.RawMessage, error) {
	e := encoded{
		Countries:          s.countries,
		States:             s.states,
		StartYear:          s.startYear,
		EndYear:            s.endYear,
		SelectedDisasters:  make([]string, 0, len(s.disasterTypes)),
		SelectedIndicators: make([]string, 0, len(s.indicators)),
		AggregationType:    string(s.aggregateBy),
		SortOption:         string(s.sortBy),
	}
	for _, t := range s.disasterTypes {
		e.SelectedDisasters = append(e.SelectedDisasters, string(t))
	}
	for _, k := range s.indicators {
		e.SelectedIndicators = append(e.SelectedIndicators, string(k))
	}
	return json.Marshal(e)
}

// Decode restores a State from a saved blob. It never fails: a malformed
// blob is treated as {}, and each field that cannot be read falls back to
// its default independently of the others.
func Decode(raw []byte) State {
	s := New()

	raw = bytes.TrimSpace(raw)
	// Some rows store the blob as a JSON string holding JSON.
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if json.Unmarshal(raw, &inner) != nil {
			return s
		}
		raw = []byte(inner)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return s
	}

	s.SetCountries(decodeStrings(fields[keyCountries])...)
	s.SetStates(decodeStrings(fields[keyStates])...)

	var types []domain.DisasterType
	for _, t := range decodeStrings(fields[keyDisasters]) {
		types = append(types, domain.DisasterType(t))
	}
	s.SetDisasterTypes(types...)
	s.SetIndicators(decodeIndicators(fields[keyIndicators])...)

	start, okStart := decodeYear(fields[keyStartYear])
	end, okEnd := decodeYear(fields[keyEndYear])
	switch {
	case okStart && okEnd:
		s.SetYearRange(start, end)
	case okStart:
		s.SetStartYear(start)
	case okEnd:
		s.SetEndYear(end)
	}

	if a := decodeString(fields[keyAggregate]); a != "" {
		s.SetAggregateBy(domain.AggregateBy(a))
	}
	if o := decodeString(fields[keySort]); o != "" {
		s.SetSortBy(domain.SortOption(o))
	}
	return s
}

func decodeString(raw json.RawMessage) string {
	var v string
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

func decodeStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := decodeString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeIndicators accepts keys, labels, expressions and the
// {"value": ..., "label": ...} objects written by the map page.
func decodeIndicators(raw json.RawMessage) []domain.IndicatorKey {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []domain.IndicatorKey
	for _, item := range items {
		var text string
		if json.Unmarshal(item, &text) != nil {
			var obj struct {
				Value string `json:"value"`
				Label string `json:"label"`
			}
			if json.Unmarshal(item, &obj) != nil {
				continue
			}
			text = obj.Value
			if text == "" {
				text = obj.Label
			}
		}
		if key, ok := legacyIndicators[text]; ok {
			out = append(out, key)
		} else if ind, ok := domain.ResolveIndicator(text); ok {
			out = append(out, ind.Key)
		} else if text != "" {
			out = append(out, domain.IndicatorKey(text))
		}
	}
	return out
}

// decodeYear accepts 2001, 2001.0 and "2001". Empty strings and null are
// absent.
func decodeYear(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil && n != "" {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
