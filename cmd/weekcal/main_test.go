package main

import (
	"testing"
	"time"

	"weekcal/internal/calendar"
	"weekcal/internal/capture"
	"weekcal/internal/config"
	"weekcal/internal/events"
)

func TestCaptureURL(t *testing.T) {
	tests := []struct {
		name   string
		listen string
		url    string
		want   string
	}{
		{"loopback", "127.0.0.1:8080", "", "http://127.0.0.1:8080/week"},
		{"any host", ":9000", "", "http://127.0.0.1:9000/week"},
		{"wildcard", "0.0.0.0:8080", "", "http://127.0.0.1:8080/week"},
		{"ipv6 wildcard", "[::]:8080", "", "http://127.0.0.1:8080/week"},
		{"named host", "calendar.lan:80", "", "http://calendar.lan:80/week"},
		{"explicit", "127.0.0.1:8080", "http://kiosk/week?date=2025-03-10", "http://kiosk/week?date=2025-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.DefaultConfig()
			conf.Listen = tt.listen
			conf.Capture.URL = tt.url
			if got := captureURL(conf); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBuildLoader(t *testing.T) {
	conf := config.DefaultConfig()
	f, ok := buildLoader(conf, time.UTC).(*events.Fetcher)
	if !ok {
		t.Fatal("expected a plain fetcher without ICS feeds")
	}
	if f.Location() != conf.EventsURL {
		t.Fatalf("expected fetcher for %s, got %s", conf.EventsURL, f.Location())
	}

	conf.ICS = []config.ICSConfig{{URL: "https://example.com/a.ics"}}
	m, ok := buildLoader(conf, time.UTC).(events.Multi)
	if !ok || len(m) != 2 {
		t.Fatalf("expected document and ICS loaders, got %#v", m)
	}
}

func TestCaptureOptionsCarryBasicAuth(t *testing.T) {
	conf := config.DefaultConfig()
	if h := captureOptions(conf).Headers; len(h) != 0 {
		t.Fatalf("expected no headers without basic auth, got %v", h)
	}

	conf.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	opts := captureOptions(conf)
	want := capture.BasicAuthHeaders("admin", "secret")["Authorization"]
	if opts.Headers["Authorization"] != want {
		t.Fatalf("expected Authorization %q, got %v", want, opts.Headers)
	}
	if opts.OutputPath != conf.Capture.Output || opts.URL != "http://127.0.0.1:8080/week" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestReferenceDate(t *testing.T) {
	clock := calendar.FixedClock(time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC))

	tests := []struct {
		name  string
		flags flagConfig
		want  string
	}{
		{"today", flagConfig{}, "2025-03-12"},
		{"explicit date", flagConfig{date: "2025-12-29"}, "2025-12-29"},
		{"forward", flagConfig{date: "2025-12-29", weeks: 2}, "2026-01-12"},
		{"backward", flagConfig{weeks: -1}, "2025-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := referenceDate(tt.flags, clock, time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Format("2006-01-02"))
			}
		})
	}

	if _, err := referenceDate(flagConfig{date: "12/03/2025"}, clock, time.UTC); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
