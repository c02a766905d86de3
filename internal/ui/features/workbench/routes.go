// Package workbench provides the harmonization workbench page: the input
// panel, previews, transform results, downloads and the new-transformation
// modal.
package workbench

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/harmonize/internal/render"
	wb "github.com/leapstack-labs/harmonize/internal/workbench"
)

// SetupRoutes configures routes for the workbench feature.
func SetupRoutes(
	router chi.Router,
	registry *wb.Registry,
	sessionStore sessions.Store,
	artifacts *render.ArtifactStore,
	logger *slog.Logger,
	codeLanguage string,
	isDev bool,
) error {
	handlers := NewHandlers(registry, sessionStore, artifacts, logger, codeLanguage, isDev)

	router.Get("/", handlers.Page)
	router.Get("/updates", handlers.Updates)

	router.Route("/api", func(r chi.Router) {
		r.Post("/input", handlers.SetInput)
		r.Post("/type", handlers.SelectType)
		r.Post("/samples/{name}", handlers.LoadSample)
		r.Post("/transform", handlers.Transform)
		r.Post("/export", handlers.Export)
		r.Get("/download/{token}", handlers.Download)
		r.Post("/modal/open", handlers.OpenModal)
		r.Post("/modal/close", handlers.CloseModal)
		r.Post("/prompt", handlers.SetPrompt)
		r.Post("/prompt/sample", handlers.LoadSamplePrompt)
		r.Post("/generate", handlers.Generate)
		r.Post("/notice/dismiss", handlers.DismissNotice)
	})

	return nil
}
