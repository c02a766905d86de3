// Package workbench holds the per-session state of the harmonization
// workbench and runs its two request channels.
//
// A Workbench is the single owner of everything a session sees: the pasted
// input and its preview, the selected transform type, the last transform
// result, the new-transformation modal and the last generated response.
// Views never touch that state directly; they read a Snapshot and subscribe
// to change pings.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/harmonize/internal/notifier"
	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/status"
	"github.com/leapstack-labs/harmonize/pkg/fence"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/ingest"
	"github.com/leapstack-labs/harmonize/pkg/samples"
)

// Service is the remote harmonization service.
type Service interface {
	Transform(ctx context.Context, raw string, t harmonize.TransformType) (harmonize.TransformResult, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyPrompt is returned when generation is requested without a prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// TransformMessages rotate while a transform is outstanding.
var TransformMessages = []string{
	"Sending your data to the harmonization service...",
	"Mapping fields between schemas: please hold tight...",
	"Still working: large inputs take a little longer...",
}

// GenerationMessages rotate while a new transformation is being generated.
var GenerationMessages = []string{
	"Engaging our AI: this might take a minute or two...",
	"Reviewing schemas: please hold tight...",
	"Studying fields: our LLM is exploring the fields in each schema... ",
	"Matching taxonomies: kindly wait while we process the data...",
	"Generating transformation code: writing python code to harmonize data...",
	"Reviewing and documenting code: the AI is adding documentation for clarity...",
	"Creating output: rendering output message...",
}

// Config tunes a Workbench.
type Config struct {
	// StatusInterval is the rotation period of status messages.
	StatusInterval time.Duration
	// CodeLanguage is the fence tag extracted from generated responses.
	CodeLanguage string
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		StatusInterval: status.DefaultInterval,
		CodeLanguage:   "python",
	}
}

// NoticeLevel classifies a Notice.
type NoticeLevel string

// Notice levels.
const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Generated is the outcome of one generation request.
type Generated struct {
	// Message is the full response text.
	Message string
	// Code is the extracted fragment; HasCode is false when none was found.
	Code    string
	HasCode bool
}

// Workbench is the state aggregate of one session.
type Workbench struct {
	id     string
	svc    Service
	cfg    Config
	logger *slog.Logger
	notify *notifier.Notifier

	transform  *Channel
	generation *Channel

	// ctx bounds background requests; Close cancels it.
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu           sync.Mutex
	input        string
	preview      ingest.Preview
	transformTyp harmonize.TransformType
	result       harmonize.TransformResult
	hasResult    bool
	modalOpen    bool
	prompt       string
	generated    Generated
	hasGenerated bool
	notice       *Notice
	version      uint64
	closed       bool
}

// New creates a workbench for session id.
func New(id string, svc Service, cfg Config, logger *slog.Logger) *Workbench {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.CodeLanguage == "" {
		cfg.CodeLanguage = DefaultConfig().CodeLanguage
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workbench{
		id:           id,
		svc:          svc,
		cfg:          cfg,
		logger:       logger.With("session", id),
		notify:       notifier.New(),
		ctx:          ctx,
		cancel:       cancel,
		transformTyp: harmonize.DefaultType,
	}

	transformStatus := status.New(TransformMessages, cfg.StatusInterval)
	transformStatus.OnChange(func(int, string) { w.notify.Broadcast() })
	w.transform = newChannel("transform", transformStatus)

	generationStatus := status.New(GenerationMessages, cfg.StatusInterval)
	generationStatus.OnChange(func(int, string) { w.notify.Broadcast() })
	w.generation = newChannel("generation", generationStatus)

	return w
}

// ID returns the session id.
func (w *Workbench) ID() string {
	return w.id
}

// Subscribe returns a channel that is pinged on every change and closed when
// the workbench is closed, plus the function that releases it.
func (w *Workbench) Subscribe() (<-chan struct{}, func()) {
	return w.notify.Subscribe()
}

// changed bumps the version and pings subscribers. Callers must not hold mu.
func (w *Workbench) changed() {
	w.mu.Lock()
	w.version++
	w.mu.Unlock()
	w.notify.Broadcast()
}

// =============================================================================
// Input
// =============================================================================

// SetInput replaces the raw input and recomputes its preview.
func (w *Workbench) SetInput(raw string) ingest.Preview {
	p := ingest.Ingest(raw)

	w.mu.Lock()
	w.input = raw
	w.preview = p
	w.mu.Unlock()

	w.changed()
	return p
}

// SelectType selects the transform type for the next transform.
func (w *Workbench) SelectType(s string) error {
	t, err := harmonize.ParseTransformType(s)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.transformTyp = t
	w.mu.Unlock()

	w.changed()
	return nil
}

// LoadSample replaces the input with a canned sample and selects the
// transform type that goes with it.
func (w *Workbench) LoadSample(name string) error {
	s, err := samples.Get(name)
	if err != nil {
		return err
	}
	raw := s.Content()
	p := ingest.Ingest(raw)

	w.mu.Lock()
	w.input = raw
	w.preview = p
	w.transformTyp = s.TransformType
	w.mu.Unlock()

	w.changed()
	return nil
}

// =============================================================================
// Transform channel
// =============================================================================

// Transform sends the current input and waits for the result.
// It fails with ErrBusy while another transform is outstanding.
func (w *Workbench) Transform(ctx context.Context) error {
	rctx, err := w.transform.Begin(ctx)
	if err != nil {
		return err
	}
	return w.runTransform(rctx)
}

// StartTransform claims the transform channel and runs the request in the
// background. It returns ErrBusy without side effects while busy.
func (w *Workbench) StartTransform() error {
	return w.background(w.transform, w.runTransform)
}

// background claims c and runs fn on its own goroutine, tracked for Close.
func (w *Workbench) background(c *Channel, fn func(context.Context) error) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.wg.Add(1)
	w.mu.Unlock()

	rctx, err := c.Begin(w.ctx)
	if err != nil {
		w.wg.Done()
		return err
	}
	go func() {
		defer w.wg.Done()
		_ = fn(rctx)
	}()
	return nil
}

func (w *Workbench) runTransform(ctx context.Context) error {
	w.changed()
	defer func() {
		w.transform.End()
		w.changed()
	}()

	w.mu.Lock()
	raw, t := w.input, w.transformTyp
	w.mu.Unlock()

	start := time.Now()
	res, err := w.svc.Transform(ctx, raw, t)
	if err != nil {
		w.fail(w.transform, err)
		return fmt.Errorf("transform %s: %w", t, err)
	}

	w.mu.Lock()
	w.result = res
	w.hasResult = true
	w.notice = nil
	w.mu.Unlock()

	w.logger.Info("transform completed",
		"transform_type", t,
		"rows", res.Table.Len(),
		"document", res.HasDocument,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// =============================================================================
// Generation channel
// =============================================================================

// OpenModal shows the new-transformation modal.
func (w *Workbench) OpenModal() {
	w.mu.Lock()
	w.modalOpen = true
	w.mu.Unlock()
	w.changed()
}

// CloseModal hides the modal. The prompt text is kept.
func (w *Workbench) CloseModal() {
	w.mu.Lock()
	w.modalOpen = false
	w.mu.Unlock()
	w.changed()
}

// SetPrompt replaces the prompt text.
func (w *Workbench) SetPrompt(prompt string) {
	w.mu.Lock()
	w.prompt = prompt
	w.mu.Unlock()
	w.changed()
}

// LoadSamplePrompt fills the prompt from the canned schema pair.
func (w *Workbench) LoadSamplePrompt() {
	w.SetPrompt(samples.Prompt())
}

// Generate sends the prompt and waits for the generated response.
// It fails with ErrBusy while another generation is outstanding.
func (w *Workbench) Generate(ctx context.Context) error {
	if err := w.checkPrompt(); err != nil {
		return err
	}
	rctx, err := w.generation.Begin(ctx)
	if err != nil {
		return err
	}
	return w.runGenerate(rctx)
}

// StartGenerate claims the generation channel and runs the request in the
// background.
func (w *Workbench) StartGenerate() error {
	if err := w.checkPrompt(); err != nil {
		return err
	}
	return w.background(w.generation, w.runGenerate)
}

func (w *Workbench) checkPrompt() error {
	w.mu.Lock()
	empty := strings.TrimSpace(w.prompt) == ""
	w.mu.Unlock()
	if empty {
		w.setNotice(NoticeError, "Enter two schemas, or load the sample, before generating.")
		return ErrEmptyPrompt
	}
	return nil
}

func (w *Workbench) runGenerate(ctx context.Context) error {
	w.changed()
	defer func() {
		w.generation.End()
		w.changed()
	}()

	w.mu.Lock()
	prompt := w.prompt
	w.mu.Unlock()

	start := time.Now()
	msg, err := w.svc.Generate(ctx, prompt)
	if err != nil {
		w.fail(w.generation, err)
		return fmt.Errorf("generate: %w", err)
	}

	gen := Generated{Message: msg}
	if block, ok := fence.Extract(msg, w.cfg.CodeLanguage); ok {
		gen.Code = block.Body
		gen.HasCode = true
	}

	w.mu.Lock()
	w.generated = gen
	w.hasGenerated = true
	w.modalOpen = false
	w.prompt = ""
	w.notice = nil
	w.mu.Unlock()

	w.logger.Info("generation completed",
		"message_chars", len(msg),
		"code", gen.HasCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// fail logs a channel failure and surfaces it as a notice. Results already
// on display are left alone.
func (w *Workbench) fail(c *Channel, err error) {
	if errors.Is(err, context.Canceled) {
		w.logger.Debug("request cancelled", "channel", c.Name())
		return
	}
	w.logger.Error("request failed", "channel", c.Name(), "error", err)
	w.setNotice(NoticeError, describe(c.Name(), err))
}

func describe(channel string, err error) string {
	var (
		statusErr  *harmonize.StatusError
		serviceErr *harmonize.ServiceError
	)
	switch {
	case errors.Is(err, harmonize.ErrTransport):
		return fmt.Sprintf("The %s request could not reach the harmonization service.", channel)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The %s request failed with status %d.", channel, statusErr.StatusCode)
	case errors.As(err, &serviceErr):
		return fmt.Sprintf("The service rejected the %s request: %s", channel, serviceErr.Message)
	case errors.Is(err, harmonize.ErrDecode):
		return fmt.Sprintf("The service sent an unexpected %s reply.", channel)
	default:
		return fmt.Sprintf("The %s request failed: %v", channel, err)
	}
}

// =============================================================================
// Export
// =============================================================================

// Export prepares the current document for download.
// Failures are surfaced as a notice and returned as *render.ExportError.
func (w *Workbench) Export() (render.Artifact, error) {
	w.mu.Lock()
	doc := ""
	if w.hasResult && w.result.HasDocument {
		doc = w.result.Document
	}
	w.mu.Unlock()

	a, err := render.Export(doc)
	if err != nil {
		var ee *render.ExportError
		if errors.As(err, &ee) {
			w.setNotice(NoticeError, ee.Message)
		}
		w.logger.Warn("export failed", "error", err)
		return render.Artifact{}, err
	}
	return a, nil
}

// =============================================================================
// Notices, snapshots and lifecycle
// =============================================================================

func (w *Workbench) setNotice(level NoticeLevel, text string) {
	w.mu.Lock()
	w.notice = &Notice{Level: level, Text: text}
	w.mu.Unlock()
	w.changed()
}

// DismissNotice clears the current notice.
func (w *Workbench) DismissNotice() {
	w.mu.Lock()
	w.notice = nil
	w.mu.Unlock()
	w.changed()
}

// Snapshot is a read-only copy of the workbench state.
type Snapshot struct {
	ID      string
	Version uint64

	Input         string
	Preview       ingest.Preview
	TransformType harmonize.TransformType

	Result    harmonize.TransformResult
	HasResult bool

	TransformBusy   bool
	TransformStatus string

	ModalOpen        bool
	Prompt           string
	GenerationBusy   bool
	GenerationStatus string

	Generated    Generated
	HasGenerated bool

	Notice *Notice
}

// Snapshot returns the current state.
func (w *Workbench) Snapshot() Snapshot {
	w.mu.Lock()
	s := Snapshot{
		ID:            w.id,
		Version:       w.version,
		Input:         w.input,
		Preview:       w.preview,
		TransformType: w.transformTyp,
		Result:        w.result,
		HasResult:     w.hasResult,
		ModalOpen:     w.modalOpen,
		Prompt:        w.prompt,
		Generated:     w.generated,
		HasGenerated:  w.hasGenerated,
	}
	if w.notice != nil {
		n := *w.notice
		s.Notice = &n
	}
	w.mu.Unlock()

	s.TransformBusy = w.transform.Busy()
	s.TransformStatus = w.transform.StatusMessage()
	s.GenerationBusy = w.generation.Busy()
	s.GenerationStatus = w.generation.StatusMessage()
	return s
}

// Close cancels outstanding requests, stops status rotation, waits for
// background work and closes all subscriptions. It is idempotent.
//
// Concurrent callers all return once shutdown has finished.
func (w *Workbench) Close() {
	w.closeOnce.Do(w.shutdown)
}

// Closed reports whether Close has been called.
func (w *Workbench) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workbench) shutdown() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.transform.Close()
	w.generation.Close()
	w.wg.Wait()
	w.notify.Close()

	w.logger.Debug("workbench closed")
}
