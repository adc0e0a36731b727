package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

// Saved graph rows have been seen with both spellings of the id key. GraphID
// is canonical; the others are read for compatibility.
var graphIDKeys = []string{"GraphID", "GraphId", "graphId", "graph_id", "id"}

func unmarshalNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// decodeRows reads an array of rows. null is an empty result; an object
// carrying "error" is a backend failure reported with a 2xx status.
func decodeRows(endpoint string, raw json.RawMessage) ([]domain.Row, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Row{}, nil
	}
	if raw[0] == '{' {
		if msg := embeddedError(raw); msg != "" {
			return nil, &domain.BackendError{Endpoint: endpoint, Status: 200, Message: msg}
		}
		return nil, fmt.Errorf("decode %s response: expected an array", endpoint)
	}

	var rows []domain.Row
	if err := unmarshalNumbers(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	out := rows[:0]
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func embeddedError(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.Error
}

// sections reads an object response into its top-level keys. A reply that
// is only {"error": ...} is a backend failure.
func sections(endpoint string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if msg := embeddedError(raw); msg != "" && len(fields) == 1 {
		return nil, &domain.BackendError{Endpoint: endpoint, Status: 200, Message: msg}
	}
	return fields, nil
}

// rowList decodes one section; anything but an array of objects is empty.
func rowList(raw json.RawMessage) []domain.Row {
	if len(raw) == 0 {
		return nil
	}
	var rows []domain.Row
	if unmarshalNumbers(raw, &rows) != nil {
		return nil
	}
	out := rows[:0]
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// singleRow decodes an object section; null or a wrong shape is empty.
func singleRow(raw json.RawMessage) domain.Row {
	if len(raw) == 0 {
		return nil
	}
	var row domain.Row
	if unmarshalNumbers(raw, &row) != nil {
		return nil
	}
	return row
}

func decodeCountryProfile(raw json.RawMessage) (domain.CountryProfile, error) {
	fields, err := sections(pathCountryData, raw)
	if err != nil {
		return domain.CountryProfile{}, err
	}
	return domain.CountryProfile{
		Overview:  singleRow(fields["overview"]),
		Sectoral:  rowList(fields["sectoral"]),
		National:  rowList(fields["national"]),
		Disasters: rowList(fields["disasters"]),
		Timeline:  timeline(rowList(fields["timeline"])),
	}, nil
}

func decodeStateProfile(raw json.RawMessage) (domain.StateProfile, error) {
	fields, err := sections(pathStateData, raw)
	if err != nil {
		return domain.StateProfile{}, err
	}
	return domain.StateProfile{
		Overview:       singleRow(fields["overview"]),
		EconomicGrowth: rowList(fields["economicGrowth"]),
		EconomicTotals: rowList(fields["economicTotals"]),
		Disasters:      rowList(fields["disasters"]),
	}, nil
}

// timeline converts {Year, Earthquake, Tsunami, Volcano} rows. Rows without
// a year are dropped; missing counts are zero.
func timeline(rows []domain.Row) []domain.TimelinePoint {
	out := make([]domain.TimelinePoint, 0, len(rows))
	for _, r := range rows {
		year, ok := r.Int(domain.ColYear)
		if !ok {
			continue
		}
		p := domain.TimelinePoint{Year: year, Counts: make(map[domain.DisasterType]int)}
		for _, t := range domain.WorldDisasterTypes() {
			n, _ := r.Int(string(t))
			p.Counts[t] = n
		}
		out = append(out, p)
	}
	return out
}

func graphID(fields map[string]json.RawMessage) (int64, bool) {
	for _, k := range graphIDKeys {
		if raw, ok := fields[k]; ok {
			if id, ok := parseID(raw); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func firstRaw(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if raw, ok := fields[k]; ok {
			return raw
		}
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		var s string
		if raw, ok := fields[k]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// decodeSavedViews reads the saved graph list. One bad entry never fails
// the list.
func decodeSavedViews(raw json.RawMessage, logger *slog.Logger) ([]domain.SavedView, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.SavedView{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if msg := embeddedError(raw); msg != "" {
			return nil, &domain.BackendError{Endpoint: pathSavedGraphs, Status: 200, Message: msg}
		}
		return nil, fmt.Errorf("decode %s response: %w", pathSavedGraphs, err)
	}

	views := make([]domain.SavedView, 0, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) != nil {
			logger.Warn("skipping malformed saved graph", "index", i)
			continue
		}
		id, ok := graphID(fields)
		if !ok {
			logger.Warn("skipping saved graph without id", "index", i)
			continue
		}
		views = append(views, domain.SavedView{
			ID:            id,
			Title:         stringField(fields, "GraphTitle", "graph_title", "title"),
			Page:          domain.Page(stringField(fields, "Page", "page")),
			Filters:       firstRaw(fields, "Filters", "filters"),
			OwnerUsername: stringField(fields, "Username", "username"),
		})
	}
	return views, nil
}
