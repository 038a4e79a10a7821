package model

import "time"

// DateLayout is the ISO date format used as the key of a Dataset.
const DateLayout = "2006-01-02"

// Event is a single time-ranged entry on one day. Hours are whole hours
// on the local clock; Duration is in hours.
type Event struct {
	Start    int    `json:"start" yaml:"start"`
	Duration int    `json:"duration" yaml:"duration"`
	Title    string `json:"title" yaml:"title"`
}

// Dataset maps an ISO date (YYYY-MM-DD) to the events of that day.
// The order of events within a day is not significant.
type Dataset map[string][]Event

// DateKey formats t as a Dataset key using t's own location, so a date
// near midnight is not shifted to a neighbouring day by UTC conversion.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Day returns the events stored for t's date. A missing date, or a nil
// Dataset, yields nil.
func (d Dataset) Day(t time.Time) []Event {
	if d == nil {
		return nil
	}
	return d[DateKey(t)]
}

// Merge returns a new Dataset holding d's events followed by other's for
// every date. Neither input is modified.
func (d Dataset) Merge(other Dataset) Dataset {
	out := make(Dataset, len(d)+len(other))
	for k, evs := range d {
		out[k] = append([]Event(nil), evs...)
	}
	for k, evs := range other {
		out[k] = append(out[k], evs...)
	}
	return out
}

// Len reports the total number of events across all dates.
func (d Dataset) Len() int {
	n := 0
	for _, evs := range d {
		n += len(evs)
	}
	return n
}
