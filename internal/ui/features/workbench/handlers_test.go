package workbench

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/harmonize/internal/ui/features"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

// browser replays the session cookie like a real browser would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func setupTestBrowser(t *testing.T) (*browser, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	router := chi.NewRouter()
	require.NoError(t, SetupRoutes(router, fixture.Registry, fixture.SessionStore, fixture.Artifacts, nil, "python", false))

	return &browser{t: t, handler: router}, fixture
}

func (b *browser) request(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	return req
}

func (b *browser) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		b.cookies = cookies
	}
	return rec
}

func (b *browser) do(method, path, body string) *httptest.ResponseRecorder {
	return b.serve(b.request(method, path, body))
}

func (b *browser) page() string {
	rec := b.do(http.MethodGet, "/", "")
	require.Equal(b.t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func (b *browser) eventuallyPage(contains string) {
	b.t.Helper()
	assert.Eventually(b.t, func() bool {
		return strings.Contains(b.page(), contains)
	}, 2*time.Second, 10*time.Millisecond, "page should contain %q", contains)
}

var downloadPattern = regexp.MustCompile(`/api/download/([0-9a-f-]{36})`)

// =============================================================================
// Page Tests
// =============================================================================

func TestPage(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Workbench - harmonize</title>",
		"data-init",
		"/updates",
		`id="app"`,
		"Sample IFRS JSON",
		"Transform IFRS-&gt;EFRAG",
		"Paste data or load a sample to see a preview.",
		"datastar.js",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.NotContains(t, body, "/reload", "no hot reload outside dev builds")

	require.Len(t, b.cookies, 1)
	assert.Equal(t, SessionName, b.cookies[0].Name)
}

func TestPage_SessionsAreIsolated(t *testing.T) {
	b, fixture := setupTestBrowser(t)

	b.page()
	b.page()
	assert.Equal(t, 1, fixture.Registry.Len(), "cookie reuses the workbench")

	other := &browser{t: t, handler: b.handler}
	other.page()
	assert.Equal(t, 2, fixture.Registry.Len())

	b.do(http.MethodPost, "/api/input", `{"input":"a,b\n1,2"}`)
	assert.Contains(t, b.page(), "<th>a</th>")
	assert.NotContains(t, other.page(), "<th>a</th>")
}

func TestPage_ForgedSessionStartsFresh(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	b.cookies = []*http.Cookie{{Name: SessionName, Value: "not-a-signed-value"}}

	rec := b.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fixture.Registry.Len())
	assert.NotEqual(t, "not-a-signed-value", b.cookies[0].Value)
}

// =============================================================================
// Input Tests
// =============================================================================

func TestSetInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPage []string
		notPage  []string
	}{
		{
			name:     "table preview",
			body:     `{"input":"a,b\n1,2"}`,
			wantPage: []string{"<th>a</th>", "<td>2</td>"},
		},
		{
			name:     "document preview",
			body:     `{"input":"{\"k\":[1]}"}`,
			wantPage: []string{`<div class="document">`},
			notPage:  []string{"<th>"},
		},
		{
			name:     "unknown input shows no preview",
			body:     `{"input":"just words"}`,
			wantPage: []string{"Paste data or load a sample"},
			notPage:  []string{`<div class="document">`, "<th>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := setupTestBrowser(t)

			rec := b.do(http.MethodPost, "/api/input", tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)

			page := b.page()
			for _, want := range tt.wantPage {
				assert.Contains(t, page, want)
			}
			for _, not := range tt.notPage {
				assert.NotContains(t, page, not)
			}
		})
	}
}

func TestLoadSample(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/samples/csv", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"transformType":"transform1"`)
	assert.Contains(t, body, "Rio de Janeiro")

	page := b.page()
	assert.Contains(t, page, "<th>City</th>")
	assert.Contains(t, page, "<td>Buenos Aires</td>")
}

func TestLoadSample_Unknown(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/samples/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectType(t *testing.T) {
	b, _ := setupTestBrowser(t)

	b.do(http.MethodPost, "/api/type", `{"transformType":"custom_type"}`)

	assert.Contains(t, b.page(), `<option value="custom_type" selected>`)
}

// =============================================================================
// Transform and Download Tests
// =============================================================================

func TestTransform_ThenDownload(t *testing.T) {
	b, fixture := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/transform", `{"input":"{\"x\":1}","transformType":"transform_json1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	b.eventuallyPage("harmonized")

	rec = b.do(http.MethodPost, "/api/export", "")
	m := downloadPattern.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "export should redirect to a download link, got %q", rec.Body.String())
	assert.Equal(t, 1, fixture.Artifacts.Len())

	rec = b.do(http.MethodGet, "/api/download/"+m[1], "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transformed.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "{\n  \"harmonized\": true\n}\n", rec.Body.String())
	assert.Equal(t, 0, fixture.Artifacts.Len(), "download releases the artifact")

	rec = b.do(http.MethodGet, "/api/download/"+m[1], "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransform_SendsLatestSignals(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	got := make(chan string, 1)
	fixture.Service.TransformFn = func(_ context.Context, raw string, tt harmonize.TransformType) (harmonize.TransformResult, error) {
		got <- string(tt) + "|" + raw
		return harmonize.TransformResult{}, nil
	}

	b.do(http.MethodPost, "/api/transform", `{"input":"a,b\n1,2","transformType":"transform1"}`)

	select {
	case s := <-got:
		assert.Equal(t, "transform1|a,b\n1,2", s)
	case <-time.After(2 * time.Second):
		t.Fatal("transform was not sent")
	}
	b.eventuallyPage("The service returned no data.")
}

func TestTransform_IgnoredWhileBusy(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	fixture.Service.TransformFn = func(ctx context.Context, _ string, _ harmonize.TransformType) (harmonize.TransformResult, error) {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return harmonize.TransformResult{}, nil
	}

	b.do(http.MethodPost, "/api/transform", `{"input":"x","transformType":"transform1"}`)
	<-entered
	assert.Contains(t, b.page(), "Transforming...")

	rec := b.do(http.MethodPost, "/api/transform", `{"input":"x","transformType":"transform1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "console.error")

	close(release)
	b.eventuallyPage(">Transform<")
	transforms, _ := fixture.Service.Calls()
	assert.Equal(t, 1, transforms)
}

func TestTransform_FailureShowsNotice(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	fixture.Service.TransformFn = func(context.Context, string, harmonize.TransformType) (harmonize.TransformResult, error) {
		return harmonize.TransformResult{}, &harmonize.StatusError{StatusCode: http.StatusBadGateway}
	}

	b.do(http.MethodPost, "/api/transform", `{"input":"x","transformType":"transform1"}`)

	b.eventuallyPage("The transform request failed with status 502.")

	b.do(http.MethodPost, "/api/notice/dismiss", "")
	assert.NotContains(t, b.page(), "failed with status 502")
}

func TestExport_NothingToExport(t *testing.T) {
	b, fixture := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/export", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/api/download/")
	assert.Equal(t, 0, fixture.Artifacts.Len())
	assert.Contains(t, b.page(), "There is no result to export yet.")
}

func TestDownload_UnknownToken(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodGet, "/api/download/0b7e0d7c-0000-4000-8000-000000000000", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// New Transformation Tests
// =============================================================================

func TestModal(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/modal/open", "")
	assert.Contains(t, rec.Body.String(), `"modalOpen":true`)

	b.do(http.MethodPost, "/api/prompt", `{"prompt":"draft"}`)
	rec = b.do(http.MethodPost, "/api/modal/close", "")
	assert.Contains(t, rec.Body.String(), `"modalOpen":false`)

	rec = b.do(http.MethodPost, "/api/modal/open", "")
	assert.Contains(t, rec.Body.String(), `"prompt":"draft"`, "closing keeps the prompt")
}

func TestLoadSamplePrompt(t *testing.T) {
	b, _ := setupTestBrowser(t)

	rec := b.do(http.MethodPost, "/api/prompt/sample", "")

	assert.Contains(t, rec.Body.String(), "Data Schema A:")
	assert.Contains(t, rec.Body.String(), "Data Schema B:")
}

func TestGenerate(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	b.do(http.MethodPost, "/api/modal/open", "")

	rec := b.do(http.MethodPost, "/api/generate", `{"prompt":"Data Schema A:\n\n{}\n\nData Schema B:\n\n{}"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	b.eventuallyPage("Generated transformation")
	page := b.page()
	assert.Contains(t, page, `<div class="code language-python">`)
	assert.Contains(t, page, "Here you go.")
	_, generates := fixture.Service.Calls()
	assert.Equal(t, 1, generates)

	rec = b.do(http.MethodPost, "/api/modal/open", "")
	assert.Contains(t, rec.Body.String(), `"prompt":""`, "success clears the prompt")
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	b, fixture := setupTestBrowser(t)

	b.do(http.MethodPost, "/api/generate", `{"prompt":"   "}`)

	assert.Contains(t, b.page(), "Enter two schemas")
	_, generates := fixture.Service.Calls()
	assert.Equal(t, 0, generates)
}

// =============================================================================
// Updates Tests - SSE endpoint for live updates only
// =============================================================================

func TestUpdates_SendsUpdateOnChange(t *testing.T) {
	b, _ := setupTestBrowser(t)
	b.page()

	req := b.request(http.MethodGet, "/updates", "")
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.handler.ServeHTTP(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	b.do(http.MethodPost, "/api/input", `{"input":"a,b\n1,2"}`)

	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, `id="app"`)
	assert.Contains(t, body, "<th>a</th>")
	assert.Contains(t, body, "datastar-patch-signals")
}

func TestUpdates_NoInitialState(t *testing.T) {
	b, _ := setupTestBrowser(t)
	b.page()

	req := b.request(http.MethodGet, "/updates", "")
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"), "should have no SSE events without a change")
}

func TestUpdates_ReloadsWhenSessionEnds(t *testing.T) {
	b, fixture := setupTestBrowser(t)
	b.page()

	req := b.request(http.MethodGet, "/updates", "")
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.handler.ServeHTTP(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	fixture.Registry.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("updates did not end with the session")
	}
	assert.Contains(t, rec.Body.String(), "window.location.reload()")
}
