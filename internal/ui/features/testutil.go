// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/ingest"
)

// FakeService stands in for the harmonization service.
// Unset funcs answer with a fixed document or message.
type FakeService struct {
	mu          sync.Mutex
	TransformFn func(ctx context.Context, raw string, t harmonize.TransformType) (harmonize.TransformResult, error)
	GenerateFn  func(ctx context.Context, prompt string) (string, error)

	transforms int
	generates  int
}

// Transform implements workbench.Service.
func (f *FakeService) Transform(ctx context.Context, raw string, t harmonize.TransformType) (harmonize.TransformResult, error) {
	f.mu.Lock()
	f.transforms++
	fn := f.TransformFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, raw, t)
	}
	doc, _ := ingest.FormatDocument(`{"harmonized": true}`)
	return harmonize.TransformResult{Document: doc, HasDocument: true}, nil
}

// Generate implements workbench.Service.
func (f *FakeService) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.generates++
	fn := f.GenerateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return "Here you go.\n\n```python\nprint('harmonized')\n```\n", nil
}

// Calls returns how many transform and generate calls were made.
func (f *FakeService) Calls() (transforms, generates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transforms, f.generates
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Service      *FakeService
	Registry     *workbench.Registry
	Artifacts    *render.ArtifactStore
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a fixture backed by a FakeService.
// Workbenches log nowhere: they may close after the test has returned.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	svc := &FakeService{}
	cfg := workbench.Config{StatusInterval: time.Hour, CodeLanguage: "python"}
	registry := workbench.NewRegistry(8, time.Hour, func(id string) *workbench.Workbench {
		return workbench.New(id, svc, cfg, nil)
	})
	t.Cleanup(registry.Close)

	return &TestFixture{
		Service:      svc,
		Registry:     registry,
		Artifacts:    render.NewArtifactStore(8, time.Minute),
		SessionStore: NewTestSessionStore(),
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
