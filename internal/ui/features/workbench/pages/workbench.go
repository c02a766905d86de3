package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/harmonize/internal/render"
)

// WorkbenchPage is the full workbench page.
func WorkbenchPage(v View) templ.Component {
	return Layout(v.Title, v.IsDev, v.Signals, v.HighlightCSS, workbenchBody(v))
}

func workbenchBody(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<main class="layout">`, "\n<div>\n")
		h.component(InputPanel(v))
		h.raw("</div>\n<div>\n")
		h.component(WorkbenchApp(v))
		h.raw("\n</div>\n</main>\n")
		h.component(NewTransformationModal(v))
		return h.err
	})
}

// InputPanel is the textarea with sample buttons and the type menu. It is
// rendered once; the form state travels as signals afterwards.
func InputPanel(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<section class="panel">`, "\n<h2>Input</h2>\n", `<div class="samples">`, "\n")
		for _, s := range v.Samples {
			h.raw(`<button type="button" class="secondary" data-on:click="@post('/api/samples/`)
			h.text(s.Name)
			h.raw(`')">`)
			h.text(s.Title)
			h.raw("</button>\n")
		}
		h.raw("</div>\n")
		h.raw(`<textarea id="input" rows="16" placeholder="Paste a JSON document or a CSV table" data-bind:input data-on:input__debounce.300ms="@post('/api/input')">`)
		h.text(v.Snap.Input)
		h.raw("</textarea>\n", `<div class="controls">`, "\n")
		h.raw(`<select id="transform-type" data-bind:transform-type data-on:change="@post('/api/type')">`, "\n")
		for _, t := range v.Types {
			h.raw(`<option value="`)
			h.text(t.Value)
			h.raw(`"`)
			h.attrIf(t.Selected, "selected")
			h.raw(">")
			h.text(t.Label)
			h.raw("</option>\n")
		}
		h.raw("</select>\n</div>\n</section>\n")
		return h.err
	})
}

// WorkbenchApp is the live part of the page, patched on every change.
func WorkbenchApp(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := v.Snap
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="app">`, "\n")

		if n := s.Notice; n != nil {
			h.raw(`<div class="notice notice-`)
			h.text(string(n.Level))
			h.raw(`" role="alert">`, "\n<span>")
			h.text(n.Text)
			h.raw("</span>\n", `<button type="button" class="secondary" data-on:click="@post('/api/notice/dismiss')">Dismiss</button>`, "\n</div>\n")
		}

		h.raw(`<section class="panel" id="preview">`, "\n<h2>Preview</h2>\n")
		switch {
		case v.ShowPreviewTable:
			h.component(DataTable(v.Preview))
		case v.ShowPreviewDocument:
			h.raw(`<div class="document">`, v.PreviewDocumentHTML, "</div>\n")
		default:
			h.raw(`<p class="muted">Paste data or load a sample to see a preview.</p>`, "\n")
		}
		h.raw("</section>\n")

		h.raw(`<section class="panel" id="result">`, "\n", `<div class="panel-head">`, "\n<h2>Result</h2>\n", `<div class="actions">`, "\n")
		h.raw(`<button id="transform" type="button" data-on:click="@post('/api/transform')"`)
		h.attrIf(s.TransformBusy, "disabled")
		h.raw(">")
		if s.TransformBusy {
			h.raw("Transforming...")
		} else {
			h.raw("Transform")
		}
		h.raw("</button>\n")
		h.raw(`<button id="export" type="button" class="secondary" data-on:click="@post('/api/export')"`)
		h.attrIf(!v.HasResultDocument, "disabled")
		h.raw(">Download JSON</button>\n")
		h.raw(`<button id="new-transformation" type="button" class="secondary" data-on:click="@post('/api/modal/open')">New transformation</button>`, "\n")
		h.raw("</div>\n</div>\n")

		if s.TransformBusy {
			h.raw(`<p class="status" aria-live="polite">`)
			h.text(s.TransformStatus)
			h.raw("</p>\n")
		}
		if !v.ResultTable.Empty() {
			h.component(DataTable(v.ResultTable))
		}
		if v.HasResultDocument {
			h.raw(`<div class="document">`, v.ResultDocumentHTML, "</div>\n")
		}
		switch {
		case s.HasResult && v.ResultTable.Empty() && !v.HasResultDocument:
			h.raw(`<p class="muted">The service returned no data.</p>`, "\n")
		case !s.HasResult && !s.TransformBusy:
			h.raw(`<p class="muted">Results appear here after a transform.</p>`, "\n")
		}
		h.raw("</section>\n")

		if s.GenerationBusy {
			h.raw(`<section class="panel" id="generation-status">`, "\n", `<p class="status" aria-live="polite">`)
			h.text(s.GenerationStatus)
			h.raw("</p>\n</section>\n")
		}
		if s.HasGenerated {
			h.component(GeneratedPanel(v))
		}
		h.raw("</div>")
		return h.err
	})
}

// GeneratedPanel shows the extracted code and the full response.
func GeneratedPanel(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<section class="panel" id="generated">`, "\n<h2>Generated transformation</h2>\n")
		if v.Snap.Generated.HasCode {
			h.raw("<h3>Code</h3>\n", `<div class="code language-`)
			h.text(v.CodeLanguage)
			h.raw(`">`, v.CodeHTML, "</div>\n")
		} else {
			h.raw(`<p class="muted">No single `)
			h.text(v.CodeLanguage)
			h.raw(" code block was found in the response.</p>\n")
		}
		h.raw("<h3>Response</h3>\n", `<div class="markdown">`, v.GeneratedHTML, "</div>\n</section>\n")
		return h.err
	})
}

// DataTable renders a table view. Headers and cells are escaped.
func DataTable(t render.TableView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div class="table-wrap">`, "\n<table>\n<thead><tr>")
		for _, hd := range t.Headers {
			h.raw("<th>")
			h.text(hd)
			h.raw("</th>")
		}
		h.raw("</tr></thead>\n<tbody>\n")
		for _, row := range t.Rows {
			h.raw("<tr>")
			for _, cell := range row {
				h.raw("<td>")
				h.text(cell)
				h.raw("</td>")
			}
			h.raw("</tr>\n")
		}
		h.raw("</tbody>\n</table>\n</div>\n")
		return h.err
	})
}

// NewTransformationModal is the prompt dialog. Its visibility and busy state
// follow signals, so it is never patched.
func NewTransformationModal(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div class="modal" data-show="$modalOpen" style="display: none">`, "\n")
		h.raw(`<div class="modal-body" role="dialog" aria-labelledby="modal-title">`, "\n")
		h.raw(`<h2 id="modal-title">New transformation</h2>`, "\n")
		h.raw(`<p class="muted">Describe the populated source schema (A) and the empty target schema (B).</p>`, "\n")
		h.raw(`<textarea id="prompt" rows="18" data-bind:prompt data-on:input__debounce.300ms="@post('/api/prompt')">`)
		h.text(v.Snap.Prompt)
		h.raw("</textarea>\n")
		h.raw(`<p class="status" data-show="$generationBusy" data-text="$generationStatus"></p>`, "\n")
		h.raw(`<div class="actions">`, "\n")
		h.raw(`<button type="button" class="secondary" data-on:click="@post('/api/prompt/sample')">Load sample schemas</button>`, "\n")
		h.raw(`<button id="generate" type="button" data-on:click="@post('/api/generate')" data-attr:disabled="$generationBusy">Generate</button>`, "\n")
		h.raw(`<button type="button" class="secondary" data-on:click="@post('/api/modal/close')">Close</button>`, "\n")
		h.raw("</div>\n</div>\n</div>\n")
		return h.err
	})
}
