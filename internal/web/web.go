package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"weekcal/internal/calendar"
	"weekcal/internal/config"
	"weekcal/internal/grid"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/refresh"
	"weekcal/internal/render"
)

// StatusSource reports the last background refresh; *refresh.Scheduler.
type StatusSource interface {
	Last() (refresh.Status, bool)
}

// Server serves the week page and its JSON API.
type Server struct {
	cfg    *config.Config
	ctrl   *calendar.Controller
	status StatusSource
	mux    *http.ServeMux

	highlight render.Highlighter
}

// NewServer constructs a Server. status may be nil when no scheduler runs.
func NewServer(cfg *config.Config, ctrl *calendar.Controller, status StatusSource) *Server {
	s := &Server{
		cfg:       cfg,
		ctrl:      ctrl,
		status:    status,
		mux:       http.NewServeMux(),
		highlight: render.NewHighlighter(cfg.Highlight),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer listens on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/week", s.handleAPIWeek)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /week", s.handleWeekPage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /{$}", s.handleWeekPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// stateFromRequest resolves ?date=YYYY-MM-DD (default: today) and an
// optional ?dir=next|prev step.
func (s *Server) stateFromRequest(r *http.Request) (calendar.State, error) {
	q := r.URL.Query()

	ref := calendar.Today(s.ctrl.Clock())
	if raw := q.Get("date"); raw != "" {
		date, err := time.ParseInLocation(model.DateLayout, raw, ref.Location())
		if err != nil {
			return calendar.State{}, errBadRequest("date must be YYYY-MM-DD")
		}
		ref = date
	}

	if raw := q.Get("dir"); raw != "" {
		dir, err := calendar.ParseDirection(raw)
		if err != nil {
			return calendar.State{}, errBadRequest("dir must be next or prev")
		}
		if ref, err = calendar.Step(ref, dir); err != nil {
			return calendar.State{}, err
		}
	}
	return s.ctrl.At(r.Context(), ref), nil
}

// handleWeekPage renders the HTML table.
//
// GET /week?date=2025-03-10&dir=next
func (s *Server) handleWeekPage(w http.ResponseWriter, r *http.Request) {
	state, err := s.stateFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := render.HTML(&buf, s.ctrl.View(state), render.HTMLOptions{Highlight: s.highlight, BasePath: "/week"}); err != nil {
		appLog.Error("week page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// weekResponse is the JSON shape of /api/week.
type weekResponse struct {
	ReferenceDate string   `json:"reference_date"`
	WeekStart     string   `json:"week_start"`
	WeekEnd       string   `json:"week_end"`
	Label         string   `json:"label"`
	TimeZone      string   `json:"timezone"`
	Hours         []int    `json:"hours"`
	Rows          []rowDTO `json:"rows"`
	Prev          string   `json:"prev"`
	Next          string   `json:"next"`
}

type rowDTO struct {
	Date  string      `json:"date"`
	Day   string      `json:"day"`
	Width int         `json:"width"`
	Cells []grid.Cell `json:"cells"`
}

// handleAPIWeek returns the laid-out grid as JSON.
//
// GET /api/week?date=2025-03-10&dir=prev
func (s *Server) handleAPIWeek(w http.ResponseWriter, r *http.Request) {
	state, err := s.stateFromRequest(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	v := s.ctrl.View(state)
	resp := weekResponse{
		ReferenceDate: model.DateKey(v.ReferenceDate),
		WeekStart:     model.DateKey(v.Week[0]),
		WeekEnd:       model.DateKey(v.Week[len(v.Week)-1]),
		Label:         v.Label,
		TimeZone:      v.TimeZone,
		Hours:         grid.Hours(),
		Rows:          make([]rowDTO, 0, len(v.Grid.Rows)),
		Prev:          model.DateKey(v.ReferenceDate.AddDate(0, 0, -7)),
		Next:          model.DateKey(v.ReferenceDate.AddDate(0, 0, 7)),
	}
	for _, row := range v.Grid.Rows {
		resp.Rows = append(resp.Rows, rowDTO{
			Date:  row.Key,
			Day:   row.Date.Weekday().String(),
			Width: row.Width(),
			Cells: row.Cells,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus reports the last background refresh.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeError(w, http.StatusNotFound, "refresh scheduler not running")
		return
	}
	st, ok := s.status.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no refresh has run yet")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePreview serves the last captured PNG; 404 until one exists.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return badRequestError{msg: msg} }

func statusFor(err error) int {
	var br badRequestError
	if errors.As(err, &br) || errors.Is(err, calendar.ErrDirection) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
