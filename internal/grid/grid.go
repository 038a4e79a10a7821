// Package grid lays a week of events out on a fixed hour axis.
//
// Each day becomes one row of cells. A cell is either empty or holds a
// single event, and spans a whole number of hour columns. The axis covers
// the half-open range [FirstHour, EndHour), i.e. 17 columns labelled
// 06:00 through 22:00.
package grid

import (
	"sort"
	"time"

	"weekcal/internal/model"
)

// Hour axis.
const (
	FirstHour = 6
	LastHour  = 22
	EndHour   = LastHour + 1
	Columns   = EndHour - FirstHour
)

// DaysPerWeek is the number of rows in a Grid.
const DaysPerWeek = 7

// Cell is one table cell of a row. Empty cells have no title.
type Cell struct {
	Span  int    `json:"span"`
	Title string `json:"title,omitempty"`
	Event bool   `json:"event"`
}

// Row is the layout of a single date.
type Row struct {
	Date  time.Time `json:"-"`
	Key   string    `json:"date"`
	Cells []Cell    `json:"cells"`
}

// Width is the total number of hour columns covered by the row. It is
// Columns for any day without overlapping events.
func (r Row) Width() int {
	w := 0
	for _, c := range r.Cells {
		w += c.Span
	}
	return w
}

// Grid is a week of rows, Monday first.
type Grid struct {
	Rows []Row `json:"rows"`
}

// Hours returns the column labels of the axis (6..22).
func Hours() []int {
	hours := make([]int, 0, Columns)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Render lays out every date of dates against data. Dates absent from
// data produce an all-empty row.
func Render(dates []time.Time, data model.Dataset) Grid {
	g := Grid{Rows: make([]Row, 0, len(dates))}
	for _, d := range dates {
		g.Rows = append(g.Rows, Row{
			Date:  d,
			Key:   model.DateKey(d),
			Cells: Layout(data.Day(d)),
		})
	}
	return g
}

// Layout places one day's events on the hour axis.
//
// Events are ordered by start hour; events sharing a start hour keep their
// input order. Gaps before an event become one empty cell, and an event
// running past the end of the axis is cut at EndHour. An event that would
// be cut to nothing (Start >= EndHour) is dropped.
//
// Overlaps are not reconciled: an event starting before the end of the
// previous one still gets its own cell, and the row then covers more than
// Columns hours.
func Layout(events []model.Event) []Cell {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	cells := make([]Cell, 0, 2*len(sorted)+1)
	cursor := FirstHour

	for _, ev := range sorted {
		span := min(ev.Duration, EndHour-ev.Start)
		if span <= 0 {
			continue
		}
		if gap := ev.Start - cursor; gap > 0 {
			cells = append(cells, Cell{Span: gap})
		}
		cells = append(cells, Cell{Span: span, Title: ev.Title, Event: true})
		cursor = ev.Start + span
	}

	if rest := EndHour - cursor; rest > 0 {
		cells = append(cells, Cell{Span: rest})
	}
	return cells
}
