// Package web serves the rendered year page and the JSON layout API.
package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"yearcal/internal/config"
	"yearcal/internal/ics"
	"yearcal/internal/layout"
	appLog "yearcal/internal/log"
	"yearcal/internal/store"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Server exposes the year page, the layout API, and the ICS export over a
// plain ServeMux. The event store is swappable (ICS refresh replaces the
// whole store); layouts are cached per month and dropped on swap.
type Server struct {
	cfg  *config.Config
	mux  *http.ServeMux
	tmpl *template.Template

	mu      sync.RWMutex
	store   *store.Store
	layouts map[monthKey]layout.MonthLayout
}

type monthKey struct {
	Year  int
	Month time.Month
}

// NewServer constructs a Server around an initial store.
func NewServer(cfg *config.Config, st *store.Store) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		tmpl:    tmpl,
		store:   st,
		layouts: make(map[monthKey]layout.MonthLayout),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the http.Handler, wrapped with basic auth if configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// SwapStore atomically replaces the event store and invalidates every cached
// layout. The old store stays valid for requests already holding it.
func (s *Server) SwapStore(st *store.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = st
	s.layouts = make(map[monthKey]layout.MonthLayout)
}

func (s *Server) currentStore() *store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// monthLayout returns the cached layout for (year, month), computing it on
// first use. Layout is pure, so a cache entry never goes stale except on
// store swap.
func (s *Server) monthLayout(year int, month time.Month) layout.MonthLayout {
	key := monthKey{Year: year, Month: month}

	s.mu.RLock()
	ml, ok := s.layouts[key]
	st := s.store
	s.mu.RUnlock()
	if ok {
		return ml
	}

	ml = layout.LayoutMonth(year, month, st)

	s.mu.Lock()
	// Only cache against the store the layout was computed from.
	if s.store == st {
		s.layouts[key] = ml
	}
	s.mu.Unlock()
	return ml
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="yearcal", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleEvent)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/api/year", s.handleYear)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns the full event list in insertion order.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.currentStore().Events())
}

// handleEvent returns a single event by ID (click-dispatch detail view).
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}
	ev, ok := s.currentStore().ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// monthResponse is the JSON shape for one laid-out month.
type monthResponse struct {
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	MonthName string              `json:"month_name"`
	Weeks     []layout.WeekLayout `json:"weeks"`
}

// yearResponse is the JSON shape for the whole year.
type yearResponse struct {
	Title  string          `json:"title"`
	Year   int             `json:"year"`
	Months []monthResponse `json:"months"`
}

func toMonthResponse(ml layout.MonthLayout) monthResponse {
	return monthResponse{
		Year:      ml.Year,
		Month:     int(ml.Month),
		MonthName: ml.Month.String(),
		Weeks:     ml.Weeks,
	}
}

// handleMonth returns the grid + placed segments for one month.
//
// GET /api/month?year=2026&month=10  (month is 1-12)
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "year must be an integer in 1..9999")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be an integer in 1..12")
		return
	}

	writeJSON(w, http.StatusOK, toMonthResponse(s.monthLayout(year, time.Month(month))))
}

// handleYear returns all twelve laid-out months.
//
// GET /api/year?year=2026 (year defaults to the configured one)
func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	year := s.cfg.Year
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			writeError(w, http.StatusBadRequest, "year must be an integer in 1..9999")
			return
		}
		year = n
	}

	resp := yearResponse{Title: s.cfg.Title, Year: year}
	for m := time.January; m <= time.December; m++ {
		resp.Months = append(resp.Months, toMonthResponse(s.monthLayout(year, m)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleICS serves the plan as an ICS feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.cfg.Title, s.currentStore().Events())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// handlePreview serves the last page snapshot from disk. http.ServeFile
// handles missing-file 404s.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.SnapshotPath)
}

// handleIndex renders the scrolling year page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page := buildPage(s.cfg.Title, s.cfg.Year, s.currentStore())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "year.gohtml", page); err != nil {
		appLog.Error("failed to render year page", err)
	}
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
