package grid

import (
	"reflect"
	"testing"
	"time"

	"weekcal/internal/model"
)

func empty(n int) Cell { return Cell{Span: n} }

func event(title string, n int) Cell { return Cell{Span: n, Title: title, Event: true} }

func TestLayout(t *testing.T) {
	tests := []struct {
		name   string
		events []model.Event
		want   []Cell
	}{
		{
			name: "no events",
			want: []Cell{empty(17)},
		},
		{
			name:   "single event",
			events: []model.Event{{Start: 9, Duration: 2, Title: "A"}},
			want:   []Cell{empty(3), event("A", 2), empty(12)},
		},
		{
			name:   "clamped at end of axis",
			events: []model.Event{{Start: 21, Duration: 5, Title: "B"}},
			want:   []Cell{empty(15), event("B", 2)},
		},
		{
			name:   "event at first hour",
			events: []model.Event{{Start: 6, Duration: 1, Title: "early"}},
			want:   []Cell{event("early", 1), empty(16)},
		},
		{
			name:   "event filling the whole axis",
			events: []model.Event{{Start: 6, Duration: 17, Title: "all"}},
			want:   []Cell{event("all", 17)},
		},
		{
			name:   "last column",
			events: []model.Event{{Start: 22, Duration: 1, Title: "late"}},
			want:   []Cell{empty(16), event("late", 1)},
		},
		{
			name: "sorted by start",
			events: []model.Event{
				{Start: 14, Duration: 1, Title: "second"},
				{Start: 9, Duration: 1, Title: "first"},
			},
			want: []Cell{empty(3), event("first", 1), empty(4), event("second", 1), empty(8)},
		},
		{
			name: "adjacent events",
			events: []model.Event{
				{Start: 9, Duration: 1, Title: "A"},
				{Start: 10, Duration: 2, Title: "B"},
			},
			want: []Cell{empty(3), event("A", 1), event("B", 2), empty(11)},
		},
		{
			name: "equal start keeps input order",
			events: []model.Event{
				{Start: 10, Duration: 1, Title: "x"},
				{Start: 10, Duration: 1, Title: "y"},
			},
			// y overlaps x; the cursor ends at 11.
			want: []Cell{empty(4), event("x", 1), event("y", 1), empty(12)},
		},
		{
			name:   "start past axis is dropped",
			events: []model.Event{{Start: 23, Duration: 2, Title: "gone"}},
			want:   []Cell{empty(17)},
		},
		{
			name: "overlap is not reconciled",
			events: []model.Event{
				{Start: 9, Duration: 3, Title: "A"},
				{Start: 10, Duration: 1, Title: "B"},
			},
			// B starts inside A; no gap cell, cursor moves back to 11.
			want: []Cell{empty(3), event("A", 3), event("B", 1), empty(12)},
		},
		{
			name:   "start before axis",
			events: []model.Event{{Start: 4, Duration: 3, Title: "pre"}},
			want:   []Cell{event("pre", 3), empty(16)},
		},
		{
			name:   "non-positive duration is dropped",
			events: []model.Event{{Start: 9, Duration: 0, Title: "zero"}},
			want:   []Cell{empty(17)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layout(tt.events)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Layout() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLayoutOverlapWidensRow(t *testing.T) {
	row := Row{Cells: Layout([]model.Event{
		{Start: 9, Duration: 3, Title: "A"},
		{Start: 10, Duration: 1, Title: "B"},
	})}
	if row.Width() != Columns+2 {
		t.Fatalf("expected width %d, got %d", Columns+2, row.Width())
	}
}

func TestLayoutEqualStartIsOverlap(t *testing.T) {
	row := Row{Cells: Layout([]model.Event{
		{Start: 10, Duration: 1, Title: "x"},
		{Start: 10, Duration: 1, Title: "y"},
	})}
	if row.Width() != Columns+1 {
		t.Fatalf("expected width %d, got %d", Columns+1, row.Width())
	}
}

func TestLayoutDoesNotReorderInput(t *testing.T) {
	in := []model.Event{
		{Start: 14, Duration: 1, Title: "late"},
		{Start: 9, Duration: 1, Title: "early"},
	}
	Layout(in)
	if in[0].Title != "late" || in[1].Title != "early" {
		t.Fatalf("input was reordered: %+v", in)
	}
}

func TestRender(t *testing.T) {
	dates := WeekDates(time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC))
	data := model.Dataset{
		"2025-03-10": {{Start: 9, Duration: 2, Title: "A"}},
		"2025-03-16": {{Start: 21, Duration: 5, Title: "B"}},
		"2025-03-20": {{Start: 8, Duration: 1, Title: "next week"}},
	}

	g := Render(dates, data)
	if len(g.Rows) != DaysPerWeek {
		t.Fatalf("expected %d rows, got %d", DaysPerWeek, len(g.Rows))
	}
	if g.Rows[0].Key != "2025-03-10" || g.Rows[6].Key != "2025-03-16" {
		t.Fatalf("unexpected row keys %s..%s", g.Rows[0].Key, g.Rows[6].Key)
	}
	if !reflect.DeepEqual(g.Rows[0].Cells, []Cell{empty(3), event("A", 2), empty(12)}) {
		t.Fatalf("unexpected monday row %+v", g.Rows[0].Cells)
	}
	if !reflect.DeepEqual(g.Rows[6].Cells, []Cell{empty(15), event("B", 2)}) {
		t.Fatalf("unexpected sunday row %+v", g.Rows[6].Cells)
	}
	for i := 1; i < 6; i++ {
		if !reflect.DeepEqual(g.Rows[i].Cells, []Cell{empty(Columns)}) {
			t.Fatalf("row %d: expected all-empty, got %+v", i, g.Rows[i].Cells)
		}
		if g.Rows[i].Width() != Columns {
			t.Fatalf("row %d: expected width %d", i, Columns)
		}
	}
}

func TestRenderNilDataset(t *testing.T) {
	g := Render(WeekDates(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)), nil)
	for i, row := range g.Rows {
		if !reflect.DeepEqual(row.Cells, []Cell{empty(Columns)}) {
			t.Fatalf("row %d: expected all-empty, got %+v", i, row.Cells)
		}
	}
}

func TestHours(t *testing.T) {
	h := Hours()
	if len(h) != Columns || h[0] != 6 || h[len(h)-1] != 22 {
		t.Fatalf("unexpected hour axis %v", h)
	}
}
