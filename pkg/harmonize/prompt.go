package harmonize

import (
	"strings"

	"github.com/leapstack-labs/harmonize/pkg/ingest"
)

const (
	schemaALabel = "Data Schema A:"
	schemaBLabel = "Data Schema B:"
)

// BuildPrompt assembles the comparison prompt for a new transformation.
//
// Schema A is the populated source, schema B the empty target. JSON schemas
// are re-indented with two spaces; anything else is used as written.
func BuildPrompt(schemaA, schemaB string) string {
	var b strings.Builder
	b.WriteString(schemaALabel)
	b.WriteString("\n\n")
	b.WriteString(prettySchema(schemaA))
	b.WriteString("\n\n")
	b.WriteString(schemaBLabel)
	b.WriteString("\n\n")
	b.WriteString(prettySchema(schemaB))
	return b.String()
}

func prettySchema(s string) string {
	if doc, err := ingest.FormatDocument(s); err == nil {
		return doc
	}
	return strings.TrimSpace(s)
}
