// Package web serves the dashboard page, its chart image and a JSON API over the dashboard view.
package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"aprScope/internal/dashboard"
	"aprScope/internal/health"
	"aprScope/internal/model"
)

// Dashboard is the selection container the server drives.
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	SelectPair(address string) error
	SelectWindow(w model.Window) error
	Select(address string, w model.Window) error
	Refetch()
}

// HealthSource reports the backend health monitor state.
type HealthSource interface {
	State() health.State
	IsHealthy() bool
}

// Options wires the server's collaborators. Health and Metrics are optional.
type Options struct {
	View     Dashboard
	Health   HealthSource
	Metrics  http.Handler
	Location *time.Location
	Logger   *zap.Logger
}

type server struct {
	view   Dashboard
	health HealthSource
	loc    *time.Location
	logger *zap.Logger
}

// NewServer builds the HTTP handler.
func NewServer(opts Options) http.Handler {
	s := &server{
		view:   opts.View,
		health: opts.Health,
		loc:    opts.Location,
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.Local
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	router.Get("/dashboard", s.handlePage)
	router.Post("/dashboard/select", s.handleSelect)
	router.Post("/dashboard/refetch", s.handleRefetch)
	router.Get("/dashboard/chart.png", s.handleChart)
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	cfg := huma.DefaultConfig("aprScope API", "1.0.0")
	cfg.DocsPath = "/api/docs"
	api := humachi.New(router, cfg)
	registerDashboardHandlers(api, s)
	registerHealthHandlers(api, s)

	return router
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := buildPage(r.URL.Path, s.view.Snapshot(), s.healthBadge(), s.loc)

	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		s.logger.Error("render dashboard", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("dashboard response write failed", zap.Error(err))
	}
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	current := s.view.Snapshot().Selection
	address := r.PostForm.Get("pair")
	if address == "" {
		address = current.Pair.Address
	}
	window := current.Window
	if raw := r.PostForm.Get("window"); raw != "" {
		parsed, err := model.ParseWindow(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		window = parsed
	}

	if err := s.view.Select(address, window); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *server) handleRefetch(w http.ResponseWriter, r *http.Request) {
	s.view.Refetch()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	m := s.view.Snapshot().Model
	if m.Status != dashboard.StatusReady {
		http.Error(w, "no chart data", http.StatusNotFound)
		return
	}
	png, err := renderChart(m.ChartData, chartWidth, chartHeight)
	if err != nil {
		s.logger.Error("render chart", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		s.logger.Debug("chart response write failed", zap.Error(err))
	}
}

func (s *server) healthBadge() healthBadge {
	if s.health == nil {
		return healthBadge{Loading: true}
	}
	st := s.health.State()
	badge := healthBadge{Loading: st.Loading && st.Data == nil && st.Err == nil, Healthy: s.health.IsHealthy()}
	switch {
	case st.Err != nil:
		badge.Detail = st.Err.Error()
	case st.Data != nil:
		badge.Detail = "status=" + st.Data.Status + " database=" + st.Data.Database + " api=" + st.Data.API
	}
	return badge
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, dashboard.ErrUnknownPair) || errors.Is(err, dashboard.ErrUnknownWindow) {
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
