package ics

import (
	"context"
	"time"

	"weekcal/internal/events"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// Loader fetches a set of feeds and expands them over the requested
// window. It implements events.Loader.
type Loader struct {
	sources  []Source
	fetchers []*events.Fetcher
	location *time.Location
}

// NewLoader builds a Loader. Each source gets its own fetcher so the
// conditional-request cache is kept per URL.
func NewLoader(sources []Source, cacheDir string, timeout time.Duration, loc *time.Location) *Loader {
	l := &Loader{location: loc}
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		l.sources = append(l.sources, src)
		l.fetchers = append(l.fetchers, events.NewFetcher(events.Options{
			Location: src.URL,
			CacheDir: cacheDir,
			Timeout:  timeout,
		}))
	}
	return l
}

// Load implements events.Loader. Failing feeds are logged and skipped.
func (l *Loader) Load(ctx context.Context, w events.Window) model.Dataset {
	var parsed []ParsedEvent
	for i, src := range l.sources {
		res, err := l.fetchers[i].Fetch(ctx)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", events.RedactURL(src.URL))
			continue
		}
		evs, err := ParseICS(src, res.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", src.ID, "url", events.RedactURL(src.URL))
			continue
		}
		parsed = append(parsed, evs...)
	}

	if len(parsed) == 0 {
		return model.Dataset{}
	}

	data, err := Expand(parsed, ExpandConfig{
		Location:   l.location,
		RangeStart: w.Start,
		RangeEnd:   w.End,
	})
	if err != nil {
		appLog.Error("ics expand failed", err)
		return model.Dataset{}
	}
	return data
}
