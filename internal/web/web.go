// Package web serves the event API, the orchestrated schedule API and a
// server-rendered month/week page.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"eventcal/internal/calendar"
	"eventcal/internal/config"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/notify"
	"eventcal/internal/schedule"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config  *config.Config
	Service *schedule.Service
	// Store backs the raw event API. It is normally the store behind Service.
	Store schedule.Persistence
	Feed  *notify.Feed
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Server provides the HTTP surface.
type Server struct {
	cfg      *config.Config
	svc      *schedule.Service
	store    schedule.Persistence
	feed     *notify.Feed
	now      func() time.Time
	holidays calendar.Holidays
	mux      *chi.Mux
}

// NewServer constructs a new Server with all routes registered.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:      d.Config,
		svc:      d.Service,
		store:    d.Store,
		feed:     d.Feed,
		now:      d.Now,
		holidays: calendar.Holidays(d.Config.Holidays),
		mux:      chi.NewRouter(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.feed == nil {
		s.feed = notify.NewFeed(0)
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in Basic Auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuth.Enabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.Use(s.logger)
	s.mux.Use(s.recoverer)

	s.mux.Get("/health", s.handleHealth)
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
	s.mux.Get("/calendar", s.handleCalendarPage)
	s.mux.Get("/preview.png", s.handlePreview)

	s.mux.Route("/api", func(r chi.Router) {
		// Raw persistence API; remote stores talk to it.
		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Put("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleDeleteEvent)
		})
		r.Post("/events-list", s.handleBulkCreate)
		r.Get("/events.ics", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/", s.handleScheduleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleScheduleEdit)
				r.Delete("/", s.handleScheduleDelete)
				r.Post("/move", s.handleScheduleMove)
			})
		})

		r.Get("/conflicts", s.handleConflicts)
		r.Get("/series/{id}", s.handleSeries)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/notifications", s.handleNotifications)
		r.Delete("/notifications/{id}", s.handleDismissNotification)
	})
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG snapshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="eventcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		appLog.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", rw.status,
			"remote", r.RemoteAddr, "duration", time.Since(start).String())
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				appLog.Error("http handler panic", fmt.Errorf("panic: %v", rec),
					"method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// today is the current naive date in the configured zone.
func (s *Server) today() model.Date {
	return model.DateOf(s.now().In(s.cfg.Location()))
}
