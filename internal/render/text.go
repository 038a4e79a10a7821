package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"weekcal/internal/calendar"
	"weekcal/internal/grid"
)

const (
	// hourWidth is the printed width of one hour column, separator included.
	hourWidth = 6
	dayWidth  = 24
)

// TextOptions tunes terminal output.
type TextOptions struct {
	Highlight Highlighter
	// Color enables ANSI colours for event cells.
	Color bool
}

// Text writes v as a fixed-width table, one line per day. Cells spanning
// several hours are merged; titles that do not fit are truncated.
func Text(w io.Writer, v calendar.View, opts TextOptions) error {
	eventColor := color.New(color.FgBlack, color.BgCyan)
	highlightColor := color.New(color.FgHiWhite, color.BgRed, color.Bold)
	headColor := color.New(color.Bold)
	for _, c := range []*color.Color{eventColor, highlightColor, headColor} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n", headColor.Sprint(v.Label))
	fmt.Fprintf(bw, "Timezone: %s\n", v.TimeZone)

	var head strings.Builder
	head.WriteString(runewidth.FillRight("Day / Time", dayWidth))
	for _, h := range grid.Hours() {
		head.WriteString("|")
		head.WriteString(runewidth.FillRight(fmt.Sprintf("%02d:00", h), hourWidth-1))
	}
	head.WriteString("|")
	fmt.Fprintln(bw, head.String())
	fmt.Fprintln(bw, strings.Repeat("-", runewidth.StringWidth(head.String())))

	for _, row := range v.Grid.Rows {
		var line strings.Builder
		line.WriteString(runewidth.FillRight(DayLabel(row), dayWidth))
		for _, c := range row.Cells {
			line.WriteString("|")
			line.WriteString(textCell(c, opts.Highlight, eventColor, highlightColor))
		}
		line.WriteString("|")
		fmt.Fprintln(bw, line.String())
	}

	return bw.Flush()
}

func textCell(c grid.Cell, h Highlighter, eventColor, highlightColor *color.Color) string {
	width := c.Span*hourWidth - 1
	if width <= 0 {
		return ""
	}
	if !c.Event {
		return strings.Repeat(" ", width)
	}
	text := runewidth.FillRight(runewidth.Truncate(c.Title, width, "…"), width)
	if h.Match(c.Title) {
		return highlightColor.Sprint(text)
	}
	return eventColor.Sprint(text)
}
