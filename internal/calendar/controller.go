// Package calendar owns navigation between weeks.
//
// A State is an immutable value: the reference date plus the dataset
// fetched for it. Navigation returns a new State and never modifies the
// one passed in, so the caller decides which state is current.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weekcal/internal/events"
	"weekcal/internal/grid"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// LabelLayout formats the dates of the week label (en-GB style).
const LabelLayout = "02/01/2006"

// ErrDirection is returned for navigation steps other than Forward or
// Backward.
var ErrDirection = errors.New("calendar: direction must be +1 or -1")

// Direction is a one-week navigation step.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// ParseDirection maps "next"/"prev" (and aliases) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "next", "forward", "+1", "1":
		return Forward, nil
	case "prev", "previous", "back", "backward", "-1":
		return Backward, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrDirection, s)
	}
}

// Step moves ref one calendar week in dir without loading anything.
func Step(ref time.Time, dir Direction) (time.Time, error) {
	if dir != Forward && dir != Backward {
		return ref, fmt.Errorf("%w: got %d", ErrDirection, int(dir))
	}
	return ref.AddDate(0, 0, 7*int(dir)), nil
}

// State is what one render is computed from.
type State struct {
	ReferenceDate time.Time
	Dataset       model.Dataset
}

// Week returns the Monday-first dates of the state's week.
func (s State) Week() []time.Time {
	return grid.WeekDates(s.ReferenceDate)
}

// View is a rendered state, ready for presentation.
type View struct {
	ReferenceDate time.Time
	Week          []time.Time
	Grid          grid.Grid
	Label         string
	TimeZone      string
}

// Controller loads datasets and derives states. It holds no per-session
// state and is safe for concurrent use if its Loader is.
type Controller struct {
	loader events.Loader
	clock  Clock
}

// New returns a Controller. A nil clock uses the system clock in the
// local timezone; a nil loader yields empty datasets.
func New(loader events.Loader, clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if loader == nil {
		loader = events.Static(nil)
	}
	return &Controller{loader: loader, clock: clock}
}

// Clock returns the controller's clock.
func (c *Controller) Clock() Clock {
	return c.clock
}

// Init returns the state for today's week.
func (c *Controller) Init(ctx context.Context) State {
	return c.At(ctx, Today(c.clock))
}

// At returns the state for the week containing date, with a freshly
// loaded dataset.
func (c *Controller) At(ctx context.Context, date time.Time) State {
	ref := StartOfDay(date)
	return State{
		ReferenceDate: ref,
		Dataset:       c.load(ctx, ref),
	}
}

// Advance moves the reference date one week in dir and reloads the
// dataset. The input state is left untouched.
func (c *Controller) Advance(ctx context.Context, s State, dir Direction) (State, error) {
	ref, err := Step(s.ReferenceDate, dir)
	if err != nil {
		return s, err
	}
	appLog.Debug("advance week", "from", model.DateKey(s.ReferenceDate), "to", model.DateKey(ref))
	return State{
		ReferenceDate: ref,
		Dataset:       c.load(ctx, ref),
	}, nil
}

// View lays out s. It cannot fail: a missing or empty dataset gives
// all-empty rows.
func (c *Controller) View(s State) View {
	week := s.Week()
	return View{
		ReferenceDate: s.ReferenceDate,
		Week:          week,
		Grid:          grid.Render(week, s.Dataset),
		Label:         week[0].Format(LabelLayout) + " - " + week[len(week)-1].Format(LabelLayout),
		TimeZone:      s.ReferenceDate.Location().String(),
	}
}

func (c *Controller) load(ctx context.Context, ref time.Time) model.Dataset {
	week := grid.WeekDates(ref)
	w := events.Window{
		Start: week[0],
		End:   week[len(week)-1].AddDate(0, 0, 1),
	}
	data := c.loader.Load(ctx, w)
	if data == nil {
		data = model.Dataset{}
	}
	return data
}
