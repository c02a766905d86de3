package workbench

import (
	"encoding/json"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/ui/features/workbench/pages"
	wb "github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/samples"
)

// signals is the client-side state bound to form fields.
type signals struct {
	Input            string `json:"input"`
	TransformType    string `json:"transformType"`
	Prompt           string `json:"prompt"`
	ModalOpen        bool   `json:"modalOpen"`
	GenerationBusy   bool   `json:"generationBusy"`
	GenerationStatus string `json:"generationStatus"`
}

// liveSignals are the server-owned signals pushed on every update. The
// prompt is only pushed while the modal is closed so typing is never
// overwritten.
func liveSignals(s wb.Snapshot) map[string]any {
	m := map[string]any{
		"modalOpen":        s.ModalOpen,
		"generationBusy":   s.GenerationBusy,
		"generationStatus": s.GenerationStatus,
	}
	if !s.ModalOpen {
		m["prompt"] = s.Prompt
	}
	return m
}

// highlighted renders a block with syntax highlighting, falling back to an
// escaped <pre> when the highlighter fails.
func highlighted(source, language string) string {
	out, err := render.Highlight(source, language)
	if err != nil {
		return "<pre>" + templ.EscapeString(source) + "</pre>"
	}
	return out
}

func buildView(s wb.Snapshot, codeLanguage string, isDev bool) (pages.View, error) {
	v := pages.View{
		Title:        "Workbench",
		IsDev:        isDev,
		CodeLanguage: codeLanguage,
		Snap:         s,
		Samples:      samples.All(),
	}

	selected := s.TransformType
	if selected == "" {
		selected = harmonize.DefaultType
	}
	known := false
	for _, t := range harmonize.KnownTypes() {
		v.Types = append(v.Types, pages.TypeOption{Value: string(t), Label: t.Label(), Selected: t == selected})
		known = known || t == selected
	}
	if !known {
		v.Types = append(v.Types, pages.TypeOption{Value: string(selected), Label: selected.Label(), Selected: true})
	}

	v.ShowPreviewTable = s.Preview.ShowTable()
	v.ShowPreviewDocument = s.Preview.ShowDocument()
	if v.ShowPreviewTable {
		v.Preview = render.ViewTable(s.Preview.Table)
	}
	if v.ShowPreviewDocument {
		v.PreviewDocumentHTML = highlighted(s.Preview.Document, "json")
	}

	if s.HasResult {
		v.ResultTable = render.ViewTable(s.Result.Table)
		v.HasResultDocument = s.Result.HasDocument
		if v.HasResultDocument {
			v.ResultDocumentHTML = highlighted(s.Result.Document, "json")
		}
	}

	if s.HasGenerated {
		html, err := render.MarkdownHTML(s.Generated.Message)
		if err != nil {
			return v, err
		}
		v.GeneratedHTML = html
		if s.Generated.HasCode {
			v.CodeHTML = highlighted(s.Generated.Code, codeLanguage)
		}
	}

	css, err := render.HighlightCSS()
	if err != nil {
		return v, err
	}
	v.HighlightCSS = css

	sig, err := json.Marshal(signals{
		Input:            s.Input,
		TransformType:    string(selected),
		Prompt:           s.Prompt,
		ModalOpen:        s.ModalOpen,
		GenerationBusy:   s.GenerationBusy,
		GenerationStatus: s.GenerationStatus,
	})
	if err != nil {
		return v, err
	}
	v.Signals = string(sig)
	return v, nil
}
