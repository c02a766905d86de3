package workbench

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/ui/features/workbench/pages"
	wb "github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/samples"
	"github.com/starfederation/datastar-go/datastar"
)

// Session cookie settings.
const (
	SessionName  = "harmonize-session"
	sessionIDKey = "workbench_id"
)

// InputSignals carries the input textarea.
type InputSignals struct {
	Input string `json:"input"`
}

// TypeSignals carries the transform type menu.
type TypeSignals struct {
	TransformType string `json:"transformType"`
}

// PromptSignals carries the new-transformation prompt.
type PromptSignals struct {
	Prompt string `json:"prompt"`
}

// TransformSignals carries the fields a transform reads.
type TransformSignals struct {
	Input         string `json:"input"`
	TransformType string `json:"transformType"`
}

// Handlers provides HTTP handlers for the workbench feature.
type Handlers struct {
	registry     *wb.Registry
	sessionStore sessions.Store
	artifacts    *render.ArtifactStore
	logger       *slog.Logger
	codeLanguage string
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	registry *wb.Registry,
	sessionStore sessions.Store,
	artifacts *render.ArtifactStore,
	logger *slog.Logger,
	codeLanguage string,
	isDev bool,
) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		registry:     registry,
		sessionStore: sessionStore,
		artifacts:    artifacts,
		logger:       logger,
		codeLanguage: codeLanguage,
		isDev:        isDev,
	}
}

// workbench returns the caller's workbench, starting a session when the
// request carries none. It writes the cookie, so it must run before any SSE
// output.
func (h *Handlers) workbench(w http.ResponseWriter, r *http.Request) (*wb.Workbench, error) {
	sess, err := h.sessionStore.Get(r, SessionName)
	if err != nil {
		// Cookies signed with an old secret decode to a fresh session.
		h.logger.Debug("discarding unreadable session", "error", err)
	}

	id, _ := sess.Values[sessionIDKey].(string)
	if _, perr := uuid.Parse(id); perr != nil {
		id = uuid.NewString()
		sess.Values[sessionIDKey] = id
		if err := sess.Save(r, w); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		h.logger.Debug("session started", "session", id)
	}
	return h.registry.Get(id), nil
}

// =============================================================================
// Page and live updates
// =============================================================================

// Page renders the full workbench page.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	v, err := buildView(bench.Snapshot(), h.codeLanguage, h.isDev)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.WorkbenchPage(v).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Updates is the long-lived SSE endpoint of the page. It re-renders the
// workbench on every change of the session's state. Nothing is sent until
// the first change; the page itself carries the initial render.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pings, release := bench.Subscribe()
	defer release()

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-pings:
			if !ok {
				// The session expired; a reload starts a new one.
				_ = sse.ExecuteScript("window.location.reload()")
				return
			}
			if err := h.sendApp(sse, bench.Snapshot()); err != nil {
				_ = sse.ConsoleError(err)
				// Keep going; the next change renders again.
			}
		}
	}
}

// sendApp patches the dynamic part of the page and the server-owned signals.
func (h *Handlers) sendApp(sse *datastar.ServerSentEventGenerator, s wb.Snapshot) error {
	v, err := buildView(s, h.codeLanguage, h.isDev)
	if err != nil {
		return err
	}
	if err := sse.PatchElementTempl(pages.WorkbenchApp(v)); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(liveSignals(s))
}

// =============================================================================
// Input
// =============================================================================

// SetInput ingests the textarea contents.
func (h *Handlers) SetInput(w http.ResponseWriter, r *http.Request) {
	var signals InputSignals
	readErr := datastar.ReadSignals(r, &signals)

	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if readErr != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", readErr))
		return
	}
	bench.SetInput(signals.Input)
}

// SelectType selects the transform type.
func (h *Handlers) SelectType(w http.ResponseWriter, r *http.Request) {
	var signals TypeSignals
	readErr := datastar.ReadSignals(r, &signals)

	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if readErr != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", readErr))
		return
	}
	if err := bench.SelectType(signals.TransformType); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// LoadSample replaces the input with a bundled sample and pushes the new
// text and type back to the form.
func (h *Handlers) LoadSample(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	bench, err := h.workbench(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := samples.Get(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := bench.LoadSample(name); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	s := bench.Snapshot()
	_ = sse.MarshalAndPatchSignals(map[string]any{
		"input":         s.Input,
		"transformType": string(s.TransformType),
	})
}

// =============================================================================
// Transform and export
// =============================================================================

// Transform starts a transform of the current form contents. It does
// nothing while another transform is outstanding.
func (h *Handlers) Transform(w http.ResponseWriter, r *http.Request) {
	var signals TransformSignals
	readErr := datastar.ReadSignals(r, &signals)

	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	// Debounced edits may not have arrived yet; the click carries the latest.
	if readErr == nil {
		s := bench.Snapshot()
		if signals.Input != s.Input {
			bench.SetInput(signals.Input)
		}
		if signals.TransformType != "" && signals.TransformType != string(s.TransformType) {
			if err := bench.SelectType(signals.TransformType); err != nil {
				_ = sse.ConsoleError(err)
				return
			}
		}
	}

	switch err := bench.StartTransform(); {
	case err == nil:
	case errors.Is(err, wb.ErrBusy):
		h.logger.Debug("transform already in progress", "session", bench.ID())
	default:
		_ = sse.ConsoleError(err)
	}
}

// Export prepares the current document and sends the browser to its
// one-time download link. A failed export shows up as a notice.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	a, err := bench.Export()
	if err != nil {
		return
	}
	token := h.artifacts.Acquire(a)
	_ = sse.Redirect("/api/download/" + token)
}

// Download serves an exported artifact once and releases it.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	a, ok := h.artifacts.Take(token)
	if !ok {
		http.Error(w, "download expired or unknown", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(a.Data)
}

// =============================================================================
// New transformation
// =============================================================================

// OpenModal shows the new-transformation modal with the stored prompt.
func (h *Handlers) OpenModal(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	bench.OpenModal()
	s := bench.Snapshot()
	_ = sse.MarshalAndPatchSignals(map[string]any{"modalOpen": true, "prompt": s.Prompt})
}

// CloseModal hides the modal and keeps its text.
func (h *Handlers) CloseModal(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	bench.CloseModal()
	_ = sse.MarshalAndPatchSignals(map[string]any{"modalOpen": false})
}

// SetPrompt stores the prompt text.
func (h *Handlers) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var signals PromptSignals
	readErr := datastar.ReadSignals(r, &signals)

	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if readErr != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", readErr))
		return
	}
	bench.SetPrompt(signals.Prompt)
}

// LoadSamplePrompt fills the prompt from the bundled schema pair.
func (h *Handlers) LoadSamplePrompt(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	bench.LoadSamplePrompt()
	_ = sse.MarshalAndPatchSignals(map[string]any{"prompt": bench.Snapshot().Prompt})
}

// Generate starts generation from the prompt. It does nothing while
// another generation is outstanding.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var signals PromptSignals
	readErr := datastar.ReadSignals(r, &signals)

	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if readErr == nil && signals.Prompt != bench.Snapshot().Prompt {
		bench.SetPrompt(signals.Prompt)
	}

	switch err := bench.StartGenerate(); {
	case err == nil:
	case errors.Is(err, wb.ErrBusy):
		h.logger.Debug("generation already in progress", "session", bench.ID())
	case errors.Is(err, wb.ErrEmptyPrompt):
		// Reported to the user as a notice.
	default:
		_ = sse.ConsoleError(err)
	}
}

// DismissNotice clears the current notice.
func (h *Handlers) DismissNotice(w http.ResponseWriter, r *http.Request) {
	bench, err := h.workbench(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	bench.DismissNotice()
}
