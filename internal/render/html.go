package render

import (
	"fmt"
	"html/template"
	"io"

	"weekcal/internal/calendar"
	"weekcal/internal/grid"
	"weekcal/internal/model"
)

// HTMLOptions tunes the HTML page.
type HTMLOptions struct {
	Highlight Highlighter
	// BasePath is the page the prev/next links point at, e.g. "/week".
	BasePath string
}

type htmlCell struct {
	Span      int
	Title     string
	Event     bool
	Highlight bool
}

type htmlRow struct {
	Day   string
	Cells []htmlCell
}

type htmlPage struct {
	Label    string
	TimeZone string
	Hours    []string
	Rows     []htmlRow
	PrevHref string
	NextHref string
}

var pageTmpl = template.Must(template.New("week").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Week {{.Label}}</title>
<style>
body { font-family: sans-serif; margin: 1rem; }
table { border-collapse: collapse; width: 100%; table-layout: fixed; }
th, td { border: 1px solid #ccc; padding: 4px; font-size: 0.85rem; text-align: center; }
.time-col { width: 12rem; text-align: left; }
.event-cell { background: #dbe9ff; font-weight: bold; }
.event-cell.highlight { background: #ffd6d6; color: #a00; }
nav { display: flex; gap: 1rem; align-items: center; margin-bottom: 0.5rem; }
</style>
</head>
<body>
<div id="calendar" data-ready="true">
<nav>
<a id="prev-week" href="{{.PrevHref}}">&larr; Previous week</a>
<span id="week-label">{{.Label}}</span>
<a id="next-week" href="{{.NextHref}}">Next week &rarr;</a>
</nav>
<p id="timezone-info">Timezone: {{.TimeZone}}</p>
<div id="table-container">
<table>
<thead><tr><th class="time-col">Day / Time</th>{{range .Hours}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><th class="time-col">{{.Day}}</th>
{{- range .Cells}}{{if .Event}}<td class="event-cell{{if .Highlight}} highlight{{end}}" colspan="{{.Span}}">{{.Title}}</td>{{else}}<td colspan="{{.Span}}"></td>{{end}}{{end}}</tr>
{{- end}}
</tbody>
</table>
</div>
</div>
</body>
</html>
`))

// HTML writes v as a standalone page. Titles are escaped.
func HTML(w io.Writer, v calendar.View, opts HTMLOptions) error {
	base := opts.BasePath
	if base == "" {
		base = "/week"
	}

	page := htmlPage{
		Label:    v.Label,
		TimeZone: v.TimeZone,
		PrevHref: fmt.Sprintf("%s?date=%s", base, model.DateKey(v.ReferenceDate.AddDate(0, 0, -7))),
		NextHref: fmt.Sprintf("%s?date=%s", base, model.DateKey(v.ReferenceDate.AddDate(0, 0, 7))),
	}
	for _, h := range grid.Hours() {
		page.Hours = append(page.Hours, fmt.Sprintf("%02d:00", h))
	}
	for _, row := range v.Grid.Rows {
		hr := htmlRow{Day: DayLabel(row)}
		for _, c := range row.Cells {
			hr.Cells = append(hr.Cells, htmlCell{
				Span:      c.Span,
				Title:     c.Title,
				Event:     c.Event,
				Highlight: c.Event && opts.Highlight.Match(c.Title),
			})
		}
		page.Rows = append(page.Rows, hr)
	}

	return pageTmpl.Execute(w, page)
}

// DayLabel formats a row header, e.g. "Monday (10/03/2025)".
func DayLabel(r grid.Row) string {
	return fmt.Sprintf("%s (%s)", r.Date.Weekday(), r.Date.Format(calendar.LabelLayout))
}
