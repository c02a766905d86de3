// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/harmonize/internal/notifier"
	"github.com/leapstack-labs/harmonize/internal/render"
	workbenchFeature "github.com/leapstack-labs/harmonize/internal/ui/features/workbench"
	"github.com/leapstack-labs/harmonize/internal/ui/resources"
	wb "github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/starfederation/datastar-go/datastar"
)

// Deps are the shared services the routes are built on.
type Deps struct {
	Registry     *wb.Registry
	SessionStore sessions.Store
	Artifacts    *render.ArtifactStore
	Logger       *slog.Logger
	CodeLanguage string

	// Reloads, when set, enables the hot reload endpoints. A broadcast on
	// it reloads every open page.
	Reloads *notifier.Notifier
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	// Hot reload endpoint for dev mode
	isDev := deps.Reloads != nil
	if isDev {
		setupReload(router, deps.Reloads)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, HealthResponse{Status: "ok", Sessions: deps.Registry.Len()})
	})

	// Feature routes
	return workbenchFeature.SetupRoutes(
		router,
		deps.Registry,
		deps.SessionStore,
		deps.Artifacts,
		deps.Logger,
		deps.CodeLanguage,
		isDev,
	)
}

func setupReload(router chi.Router, reloads *notifier.Notifier) {
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		pings, release := reloads.Subscribe()
		defer release()

		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		// The first page after a server restart picks up the new build.
		hotReloadOnce.Do(reload)
		select {
		case _, ok := <-pings:
			if ok {
				reload()
			}
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		reloads.Broadcast()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
