// Package render turns transform results into things people look at or
// download: table views, exported documents and rendered markdown.
package render

import (
	"github.com/leapstack-labs/harmonize/pkg/ingest"
)

// Export defaults.
const (
	ExportFilename    = "transformed.json"
	ExportContentType = "application/json"
)

// Artifact is a downloadable file held in memory.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportError is returned when a document cannot be exported.
// Message is safe to show to the user.
type ExportError struct {
	Message string
	Err     error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Export re-parses document and re-indents it for download.
func Export(document string) (Artifact, error) {
	if document == "" {
		return Artifact{}, &ExportError{Message: "There is no result to export yet."}
	}
	doc, err := ingest.FormatDocument(document)
	if err != nil {
		return Artifact{}, &ExportError{
			Message: "The result is not a valid JSON document and cannot be exported.",
			Err:     err,
		}
	}
	return Artifact{
		Filename:    ExportFilename,
		ContentType: ExportContentType,
		Data:        []byte(doc + "\n"),
	}, nil
}
