package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/churnboard/internal/dashboard"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/KaramelBytes/churnboard/internal/logging"
	"github.com/KaramelBytes/churnboard/internal/views"
)

// Server exposes dashboard sessions as JSON over HTTP.
type Server struct {
	router *chi.Mux
	dash   *dashboard.Dashboard
	log    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*dashboard.Session
}

// New creates a server with its routes mounted.
func New(d *dashboard.Dashboard, log *zap.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		dash:     d,
		log:      logging.OrNop(log).Named("http"),
		sessions: make(map[string]*dashboard.Session),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) setupMiddleware() {
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/dimensions", s.handleDimensions)
	s.router.Post("/api/sessions", s.handleCreateSession)
	s.router.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Put("/filters/{dim}", s.handleSetFilter)
		r.Post("/triggers/{name}", s.handleTrigger)
		r.Post("/refresh", s.handleRefresh)
	})
}

// requestLogger logs one line per request with structured fields.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type sessionResponse struct {
	ID      string            `json:"id"`
	Inputs  views.Inputs      `json:"inputs"`
	Views   []views.Entry     `json:"views"`
	Changed []string          `json:"changed,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) session(r *http.Request) (string, *dashboard.Session, bool) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return id, sess, ok
}

func (s *Server) respond(w http.ResponseWriter, status int, id string, sess *dashboard.Session, rep views.Report) {
	in, entries := sess.Snapshot()
	resp := sessionResponse{ID: id, Inputs: in, Views: entries, Changed: rep.Recomputed}
	if len(rep.Errors) > 0 {
		resp.Errors = make(map[string]string, len(rep.Errors))
		for view, err := range rep.Errors {
			resp.Errors[view] = err.Error()
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	t := s.dash.Table()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"rows":    t.Len(),
		"dropped": t.Dropped(),
	})
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Domains())
}

type createRequest struct {
	Selection filter.Selection `json:"selection"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	sess, rep, err := s.dash.NewSession(r.Context(), req.Selection)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.log.Debug("session created", zap.String("session", id))
	s.respond(w, http.StatusCreated, id, sess, rep)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	s.respond(w, http.StatusOK, id, sess, views.Report{})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := sess.SetFilter(r.Context(), chi.URLParam(r, "dim"), req.Value)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.respond(w, http.StatusOK, id, sess, rep)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	rep, err := sess.Trigger(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.respond(w, http.StatusOK, id, sess, rep)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	s.respond(w, http.StatusOK, id, sess, sess.Refresh(r.Context()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrUnknownDimension):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnknownTrigger):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
