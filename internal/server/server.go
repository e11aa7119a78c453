// Package server exposes the console core over HTTP for the rendering
// layer: graph and backlog reads, drop dispatch, the connection workflow,
// schedule confirmation, layout runs, and stash management.
//
// The server is a thin JSON adapter: every mutation goes through the same
// components the CLI uses, and every failure degrades to an error response,
// never a crash. Write failures surface as 502-style JSON errors for the UI
// to show as a transient notification.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opsdeck/opsdeck/pkg/appstate"
	"github.com/opsdeck/opsdeck/pkg/buildinfo"
	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/connect"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/layout"
	"github.com/opsdeck/opsdeck/pkg/rel"
	"github.com/opsdeck/opsdeck/pkg/transport"
)

// Server wires the console components behind the HTTP API.
type Server struct {
	repos    *entity.Registry
	links    rel.Store
	sync     *flow.Synchronizer
	engine   *layout.Engine
	workflow *connect.Workflow
	router   *transport.Router
	state    *appstate.Service
	bus      *bus.Bus
	logger   *log.Logger

	viewMu sync.RWMutex
	view   *flow.View
}

// Config carries the components the server serves. Logger defaults to
// discard; Bus is optional and enables the change-driven view cache behind
// the graph and backlog reads. All other fields are required.
type Config struct {
	Repos    *entity.Registry
	Links    rel.Store
	Sync     *flow.Synchronizer
	Engine   *layout.Engine
	Workflow *connect.Workflow
	Router   *transport.Router
	State    *appstate.Service
	Bus      *bus.Bus
	Logger   *log.Logger
}

// New creates a server over the given components.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		repos:    cfg.Repos,
		links:    cfg.Links,
		sync:     cfg.Sync,
		engine:   cfg.Engine,
		workflow: cfg.Workflow,
		router:   cfg.Router,
		state:    cfg.State,
		bus:      cfg.Bus,
		logger:   logger,
	}
}

// WatchViews starts the change-driven view cache: a watcher rebuilds the
// graph view on every bus event and the server swaps it in for graph and
// backlog reads. A no-op when the server was built without a bus. The
// watcher stops when ctx is cancelled.
func (s *Server) WatchViews(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	w, err := flow.Watch(ctx, s.sync, s.bus)
	if err != nil {
		return err
	}
	go func() {
		for view := range w.Views() {
			s.viewMu.Lock()
			s.view = view
			s.viewMu.Unlock()
		}
	}()
	return nil
}

// currentView returns the cached view when the watcher runs, otherwise a
// fresh rebuild.
func (s *Server) currentView(ctx context.Context) (*flow.View, error) {
	s.viewMu.RLock()
	view := s.view
	s.viewMu.RUnlock()
	if view != nil {
		return view, nil
	}
	return s.sync.Rebuild(ctx)
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		r.Get("/graph", s.handleGraph)
		r.Get("/backlog", s.handleBacklog)

		r.Post("/drop", s.handleDrop)

		r.Post("/connect", s.handleConnect)
		r.Post("/connect/resolve", s.handleConnectResolve)

		r.Post("/schedule/confirm", s.handleScheduleConfirm)
		r.Post("/schedule/dismiss", s.handleScheduleDismiss)
		r.Get("/schedule/pending", s.handleSchedulePending)

		r.Post("/layout", s.handleLayout)

		r.Get("/stash", s.handleStashList)
		r.Delete("/stash", s.handleStashClear)
		r.Delete("/stash/{id}", s.handleStashRemove)
	})

	return r
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.WatchViews(ctx); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}
