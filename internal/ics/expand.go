package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// Hours an occurrence must fit in to be kept; matches the JSON document
// validation.
const (
	firstHour = 6
	lastHour  = 22
)

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location is the display timezone; occurrences are bucketed by their
	// date in this zone. Nil means time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound occurrence start times, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. Zero uses 500.
	MaxOccurrencesPerEvent int
}

// Expand converts parsed events into a Dataset, expanding RRULE/EXDATE
// within the configured range. Only occurrences that start and end on the
// same display date and start inside the hour axis are kept; all-day and
// multi-day entries are not represented on the grid.
func Expand(parsed []ParsedEvent, cfg ExpandConfig) (model.Dataset, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("ics: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := model.Dataset{}
	for _, ev := range parsed {
		if ev.AllDay {
			continue
		}
		for _, start := range occurrences(ev, cfg) {
			end := start.Add(ev.End.Sub(ev.Start))
			if e, ok := toEvent(ev.Summary, start.In(cfg.Location), end.In(cfg.Location)); ok {
				key := model.DateKey(start.In(cfg.Location))
				out[key] = append(out[key], e)
			}
		}
	}
	return out, nil
}

func occurrences(ev ParsedEvent, cfg ExpandConfig) []time.Time {
	if ev.RawRRule == "" {
		if ev.Start.Before(cfg.RangeStart) || ev.Start.After(cfg.RangeEnd) {
			return nil
		}
		return []time.Time{ev.Start}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	times := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)
	if len(times) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("ics: truncated occurrences", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		times = times[:cfg.MaxOccurrencesPerEvent]
	}
	return times
}

// toEvent maps a timed occurrence onto whole grid hours. Partial hours
// round the duration up so a 30 minute meeting still takes one column.
func toEvent(title string, start, end time.Time) (model.Event, bool) {
	if !end.After(start) {
		return model.Event{}, false
	}
	if model.DateKey(start) != model.DateKey(end.Add(-time.Nanosecond)) {
		return model.Event{}, false
	}
	if start.Hour() < firstHour || start.Hour() > lastHour {
		return model.Event{}, false
	}
	endOffset := end.Sub(time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, start.Location()))
	hours := int((endOffset + time.Hour - 1) / time.Hour)
	return model.Event{Start: start.Hour(), Duration: hours, Title: title}, true
}
