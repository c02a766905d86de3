// Package pages holds the templ components of the workbench feature.
package pages

import (
	"github.com/leapstack-labs/harmonize/internal/render"
	wb "github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/samples"
)

// TypeOption is one entry of the transform type menu.
type TypeOption struct {
	Value    string
	Label    string
	Selected bool
}

// View is everything the workbench components read. Fields ending in HTML
// are trusted markup produced by the render package.
type View struct {
	Title        string
	IsDev        bool
	CodeLanguage string
	Signals      string
	HighlightCSS string

	Snap    wb.Snapshot
	Types   []TypeOption
	Samples []samples.Sample

	Preview             render.TableView
	ShowPreviewTable    bool
	ShowPreviewDocument bool
	PreviewDocumentHTML string

	ResultTable        render.TableView
	HasResultDocument  bool
	ResultDocumentHTML string

	CodeHTML      string
	GeneratedHTML string
}
