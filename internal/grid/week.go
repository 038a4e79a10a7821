package grid

import "time"

// Monday returns midnight of the Monday of t's week, in t's location.
// Sunday belongs to the week that started six days earlier.
func Monday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// WeekDates returns the seven calendar dates, Monday through Sunday, of
// the week containing t.
func WeekDates(t time.Time) []time.Time {
	start := Monday(t)
	dates := make([]time.Time, DaysPerWeek)
	for i := range dates {
		// Calendar arithmetic rather than 24h steps keeps DST weeks intact.
		dates[i] = time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, start.Location())
	}
	return dates
}
