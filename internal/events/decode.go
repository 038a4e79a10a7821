package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// Accepted start hours. Anything outside is rejected on input so the grid
// never sees an event it cannot place.
const (
	minStart = 6
	maxStart = 22
)

// ErrNotObject is returned when the document is not a JSON object.
var ErrNotObject = errors.New("events: document is not a JSON object")

// rawEvent uses pointers so missing fields can be told apart from zeros.
type rawEvent struct {
	Start    *json.Number `json:"start"`
	Duration *json.Number `json:"duration"`
	Title    *string      `json:"title"`
}

// Decode parses an events document:
//
//	{"2025-03-10": [{"start": 9, "duration": 2, "title": "Standup"}], ...}
//
// Malformed entries are skipped one by one and logged; only a body that
// is not a JSON object fails as a whole. An empty body decodes to an
// empty Dataset.
func Decode(body []byte) (model.Dataset, error) {
	out := model.Dataset{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	for key, raw := range doc {
		if _, err := time.Parse(model.DateLayout, key); err != nil {
			appLog.Debug("events: skipping non-date key", "key", key)
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			appLog.Debug("events: skipping day that is not a list", "date", key)
			continue
		}

		day := make([]model.Event, 0, len(items))
		for i, item := range items {
			ev, err := decodeEvent(item)
			if err != nil {
				appLog.Debug("events: skipping malformed event", "date", key, "index", i, "reason", err.Error())
				continue
			}
			day = append(day, ev)
		}
		if len(day) > 0 {
			out[key] = day
		}
	}

	return out, nil
}

func decodeEvent(item json.RawMessage) (model.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()

	var r rawEvent
	if err := dec.Decode(&r); err != nil {
		return model.Event{}, err
	}
	switch {
	case r.Start == nil:
		return model.Event{}, errors.New("missing start")
	case r.Duration == nil:
		return model.Event{}, errors.New("missing duration")
	case r.Title == nil:
		return model.Event{}, errors.New("missing title")
	}

	start, err := wholeNumber(*r.Start)
	if err != nil {
		return model.Event{}, fmt.Errorf("start is not a whole hour: %w", err)
	}
	duration, err := wholeNumber(*r.Duration)
	if err != nil {
		return model.Event{}, fmt.Errorf("duration is not a whole hour count: %w", err)
	}
	if start < minStart || start > maxStart {
		return model.Event{}, fmt.Errorf("start %d outside %d..%d", start, minStart, maxStart)
	}
	if duration <= 0 {
		return model.Event{}, fmt.Errorf("duration %d is not positive", duration)
	}

	return model.Event{Start: int(start), Duration: int(duration), Title: *r.Title}, nil
}

// wholeNumber accepts any JSON number with an integral value, so 9, 9.0
// and 9e0 are the same hour.
func wholeNumber(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<31 {
		return 0, errors.New(n.String())
	}
	return int64(f), nil
}
