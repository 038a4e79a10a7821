// Package refresh periodically reloads the current week and, when
// enabled, snapshots the week page to a PNG.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weekcal/internal/calendar"
	"weekcal/internal/capture"
	appLog "weekcal/internal/log"
)

// CaptureFunc takes a screenshot; capture.CapturePNG in production.
type CaptureFunc func(ctx context.Context, opts capture.Options) error

// Options configures a Scheduler.
type Options struct {
	// Spec is a standard 5-field cron expression.
	Spec     string
	Location *time.Location

	// Capture is nil when snapshots are disabled.
	Capture     CaptureFunc
	CaptureOpts capture.Options
}

// Status describes the most recent run.
type Status struct {
	At          time.Time `json:"at"`
	Week        string    `json:"week"`
	EventCount  int       `json:"event_count"`
	Captured    bool      `json:"captured"`
	CaptureErr  string    `json:"capture_error,omitempty"`
	DurationSec float64   `json:"duration_sec"`
}

// Scheduler runs RunOnce on a cron schedule.
type Scheduler struct {
	ctrl *calendar.Controller
	opts Options
	cron *cron.Cron

	mu   sync.Mutex
	last *Status
}

// New validates the cron spec and returns a stopped Scheduler.
func New(ctrl *calendar.Controller, opts Options) (*Scheduler, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		ctrl: ctrl,
		opts: opts,
		cron: cron.New(cron.WithLocation(loc)),
	}
	if _, err := s.cron.AddFunc(opts.Spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *Scheduler) Start() {
	appLog.Info("refresh scheduler started", "spec", s.opts.Spec, "capture", s.opts.Capture != nil)
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce loads the current week and captures it if configured.
func (s *Scheduler) RunOnce(ctx context.Context) Status {
	began := time.Now()
	state := s.ctrl.Init(ctx)
	view := s.ctrl.View(state)

	st := Status{
		At:         began,
		Week:       view.Label,
		EventCount: state.Dataset.Len(),
	}

	if s.opts.Capture != nil {
		if err := s.opts.Capture(ctx, s.opts.CaptureOpts); err != nil {
			appLog.Error("refresh capture failed", err, "url", s.opts.CaptureOpts.URL)
			st.CaptureErr = err.Error()
		} else {
			st.Captured = true
		}
	}

	st.DurationSec = time.Since(began).Seconds()
	appLog.Info("refresh completed", "week", st.Week, "events", st.EventCount, "captured", st.Captured, "duration_sec", st.DurationSec)

	s.mu.Lock()
	s.last = &st
	s.mu.Unlock()
	return st
}

// Last returns the most recent run, if any.
func (s *Scheduler) Last() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Status{}, false
	}
	return *s.last, true
}
