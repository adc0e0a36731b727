package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/couchcryptid/disaster-dashboard/internal/screen"
	"github.com/couchcryptid/disaster-dashboard/internal/view"
)

func renderTable(w io.Writer, headers []string, cells [][]string) {
	if len(cells) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range cells {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(cells))
}

// renderLines prints label/value pairs as a two column table.
func renderLines(w io.Writer, title string, lines []view.Line) {
	if title != "" {
		_, _ = fmt.Fprintln(w, title)
	}
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(w, view.NoDataMessage)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	for _, l := range lines {
		t.AppendRow(table.Row{l.Label, l.Value})
	}
	t.Render()
}

// renderSeries prints chart data with one row per x value and one column
// per series. Gaps render as N/A.
func renderSeries(w io.Writer, title string, series []view.Series) {
	_, _ = fmt.Fprintln(w, title)
	if len(series) == 0 || len(series[0].Points) == 0 {
		_, _ = fmt.Fprintln(w, view.NoDataMessage)
		return
	}

	headers := []string{"Year"}
	for _, s := range series {
		headers = append(headers, s.Label)
	}
	cells := make([][]string, 0, len(series[0].Points))
	for i, p := range series[0].Points {
		row := []string{fmt.Sprint(p.X)}
		for _, s := range series {
			row = append(row, pointText(s.Points[i]))
		}
		cells = append(cells, row)
	}
	renderTable(w, headers, cells)
}

func pointText(p view.Point) string {
	if !p.Valid {
		return view.NA
	}
	return p.Y.StringFixed(2)
}

func renderTooltip(w io.Writer, t view.Tooltip) {
	_, _ = fmt.Fprintln(w, t.String())
}

// renderBanner prints a screen's banner, if any, to the error stream.
func renderBanner(w io.Writer, banner string) {
	if banner == "" {
		return
	}
	_, _ = fmt.Fprintln(w, "! "+banner)
}

func renderViewport(w io.Writer, vp view.Viewport) {
	scope := "world"
	if vp.Scope == view.ScopeUS {
		scope = "us"
	}
	_, _ = fmt.Fprintf(w, "viewport: %s center=(%.2f, %.2f) zoom=%.2f\n", scope, vp.Center.Lon, vp.Center.Lat, vp.Zoom)
}

func renderRoute(w io.Writer, r screen.Route) {
	switch r.Target {
	case screen.TargetCountry:
		_, _ = fmt.Fprintf(w, "-> country profile: %s\n", r.Name)
	case screen.TargetUSMap:
		_, _ = fmt.Fprintln(w, "-> US state map")
	case screen.TargetState:
		_, _ = fmt.Fprintf(w, "-> state profile: %s\n", r.Name)
	default:
		_, _ = fmt.Fprintln(w, "nothing to open")
	}
}

// mapTable lays out one tooltip per highlighted region.
func mapTable(regions []string, tooltip func(string) view.Tooltip) ([]string, [][]string) {
	var headers []string
	cells := make([][]string, 0, len(regions))
	for _, name := range regions {
		t := tooltip(name)
		if headers == nil {
			headers = []string{"Region"}
			for _, l := range t.Lines {
				headers = append(headers, l.Label)
			}
		}
		row := []string{name}
		for _, l := range t.Lines {
			row = append(row, l.Value)
		}
		cells = append(cells, row)
	}
	return headers, cells
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
