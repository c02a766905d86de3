// Package ui provides the web-based harmonization workbench.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/harmonize/internal/notifier"
	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/ui/resources"
	"github.com/leapstack-labs/harmonize/internal/ui/router"
	"github.com/leapstack-labs/harmonize/internal/workbench"
	"golang.org/x/sync/errgroup"
)

// Server is the main UI server.
type Server struct {
	sessionStore *sessions.CookieStore
	registry     *workbench.Registry
	artifacts    *render.ArtifactStore
	reloads      *notifier.Notifier
	port         int
	codeLanguage string
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Service        workbench.Service
	Port           int
	SessionSecret  string
	Logger         *slog.Logger
	MaxSessions    int
	SessionTTL     time.Duration
	StatusInterval time.Duration
	CodeLanguage   string
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = workbench.DefaultSessionTTL
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	// The cookie outlives its workbench; an expired id is recreated.
	sessionStore.MaxAge(int((ttl + 24*time.Hour) / time.Second))
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	wbCfg := workbench.Config{StatusInterval: cfg.StatusInterval, CodeLanguage: cfg.CodeLanguage}
	registry := workbench.NewRegistry(cfg.MaxSessions, ttl, func(id string) *workbench.Workbench {
		logger.Debug("workbench created", "session", id)
		return workbench.New(id, cfg.Service, wbCfg, logger)
	})

	s := &Server{
		sessionStore: sessionStore,
		registry:     registry,
		artifacts:    render.NewArtifactStore(0, 0),
		port:         cfg.Port,
		codeLanguage: cfg.CodeLanguage,
		logger:       logger,
	}
	if s.IsDev() {
		s.reloads = notifier.New()
	}
	return s
}

// Handler builds the routed handler with the standard middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, router.Deps{
		Registry:     s.registry,
		SessionStore: s.sessionStore,
		Artifacts:    s.artifacts,
		Logger:       s.logger,
		CodeLanguage: s.codeLanguage,
		Reloads:      s.reloads,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
// Every session is closed before Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Reload open pages when assets change on disk
	if dir := resources.Dir(); s.reloads != nil && dir != "" {
		eg.Go(func() error {
			return s.watchAssets(egctx, dir)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		err := srv.Shutdown(shutdownCtx)
		s.registry.Close()
		if s.reloads != nil {
			s.reloads.Close()
		}
		return err
	})

	return eg.Wait()
}

// IsDev returns true if assets are served from the source tree.
func (s *Server) IsDev() bool {
	return resources.Dev
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.registry.Len()
}

// watchAssets broadcasts a reload whenever a file under dir is written.
func (s *Server) watchAssets(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch static assets", "path", dir, "error", err)
		// Don't fail - continue without watching
		return nil
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("asset changed, reloading pages", "file", name)
				s.reloads.Broadcast()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
