package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"weekcal/internal/calendar"
	"weekcal/internal/capture"
	"weekcal/internal/config"
	"weekcal/internal/events"
	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/refresh"
	"weekcal/internal/render"
	"weekcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	date       string
	once       bool
	weeks      int
	noColor    bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		appLog.Error("failed to write default config; continuing with defaults", err, "config_path", flags.configPath)
	}
	if !flags.debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("unknown timezone; using local", err, "timezone", conf.Timezone)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"events", events.RedactURL(conf.EventsURL),
		"ics_count", len(conf.ICS),
		"refresh", conf.RefreshCron,
		"capture", conf.Capture.Enabled,
		"once", flags.once,
	)

	ctrl := calendar.New(buildLoader(conf, loc), calendar.SystemClock{Location: loc})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.once {
		if err := runOnce(ctx, ctrl, conf, flags, loc); err != nil {
			appLog.Error("render failed", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(ctx, ctrl, conf); err != nil {
		appLog.Error("server stopped with error", err)
		os.Exit(1)
	}
	appLog.Info("weekcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "weekcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Reference date YYYY-MM-DD (default: today)")
	flag.BoolVar(&cfg.once, "once", false, "Print one week to stdout and exit")
	flag.IntVar(&cfg.weeks, "weeks", 0, "With -once: move this many weeks from the reference date (negative goes back)")
	flag.BoolVar(&cfg.noColor, "no-color", false, "Disable colours in -once output")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

// buildLoader combines the events document with any ICS feeds.
func buildLoader(conf *config.Config, loc *time.Location) events.Loader {
	doc := events.NewFetcher(events.Options{
		Location: conf.EventsURL,
		CacheDir: conf.CacheDir,
		Timeout:  conf.FetchTimeout,
	})
	appLog.Debug("events source", "location", events.RedactURL(doc.Location()), "ics_count", len(conf.ICS))
	if len(conf.ICS) == 0 {
		return doc
	}

	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}
	return events.Multi{doc, ics.NewLoader(sources, conf.CacheDir, conf.FetchTimeout, loc)}
}

func runOnce(ctx context.Context, ctrl *calendar.Controller, conf *config.Config, flags flagConfig, loc *time.Location) error {
	ref, err := referenceDate(flags, ctrl.Clock(), loc)
	if err != nil {
		return err
	}

	return render.Text(os.Stdout, ctrl.View(ctrl.At(ctx, ref)), render.TextOptions{
		Highlight: render.NewHighlighter(conf.Highlight),
		Color:     !flags.noColor && !color.NoColor,
	})
}

// referenceDate resolves -date and -weeks before anything is loaded.
func referenceDate(flags flagConfig, clock calendar.Clock, loc *time.Location) (time.Time, error) {
	ref := calendar.Today(clock)
	if flags.date != "" {
		date, err := time.ParseInLocation(model.DateLayout, flags.date, loc)
		if err != nil {
			return time.Time{}, err
		}
		ref = date
	}

	dir := calendar.Forward
	steps := flags.weeks
	if steps < 0 {
		dir, steps = calendar.Backward, -steps
	}
	for i := 0; i < steps; i++ {
		next, err := calendar.Step(ref, dir)
		if err != nil {
			return time.Time{}, err
		}
		ref = next
	}
	return ref, nil
}

func runServer(ctx context.Context, ctrl *calendar.Controller, conf *config.Config) error {
	opts := refresh.Options{Spec: conf.RefreshCron}
	if conf.Capture.Enabled {
		opts.Capture = capture.CapturePNG
		opts.CaptureOpts = captureOptions(conf)
	}
	if loc, err := conf.Location(); err == nil {
		opts.Location = loc
	}

	sched, err := refresh.New(ctrl, opts)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	// First refresh once the listener is up so a capture can reach /week.
	go func() {
		select {
		case <-time.After(time.Second):
			sched.RunOnce(ctx)
		case <-ctx.Done():
		}
	}()

	return web.StartServer(ctx, web.NewServer(conf, ctrl, sched))
}

// captureOptions describes the scheduled snapshot. With basic auth on,
// the browser sends the configured credentials.
func captureOptions(conf *config.Config) capture.Options {
	opts := capture.Options{
		URL:        captureURL(conf),
		OutputPath: conf.Capture.Output,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
	}
	if conf.BasicAuthEnabled() {
		opts.Headers = capture.BasicAuthHeaders(conf.BasicAuth.Username, conf.BasicAuth.Password)
	}
	return opts
}

// captureURL points at the local week page unless configured otherwise.
func captureURL(conf *config.Config) string {
	if conf.Capture.URL != "" {
		return conf.Capture.URL
	}
	host, port, err := net.SplitHostPort(conf.Listen)
	if err != nil {
		return "http://" + conf.Listen + "/week"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/week"
}
