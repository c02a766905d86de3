package ingest

// Kind is the classification of a piece of raw input.
type Kind int

// Input kinds.
const (
	KindUnknown Kind = iota
	KindTable
	KindDocument
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Preview is the derived view state for one raw input.
type Preview struct {
	Kind     Kind
	Table    Table
	Document string
}

// ShowTable reports whether the table view should be visible.
func (p Preview) ShowTable() bool {
	return !p.Table.Empty()
}

// ShowDocument reports whether the document preview should be visible.
// The two views are mutually exclusive: a non-empty table always wins.
func (p Preview) ShowDocument() bool {
	return p.Table.Empty() && p.Kind == KindDocument
}

// Classify decides what raw looks like.
//
// JSON objects and arrays are documents. Anything else is a table when the
// first line parses as a header with at least one record beneath it.
func Classify(raw string) Kind {
	return Ingest(raw).Kind
}

// Ingest classifies raw and computes the matching preview.
// It is deterministic and never fails.
func Ingest(raw string) Preview {
	if isDocumentShaped(raw) {
		doc, err := FormatDocument(raw)
		if err == nil {
			return Preview{Kind: KindDocument, Document: doc}
		}
	}

	t := ParseTable(raw)
	if !t.Empty() {
		return Preview{Kind: KindTable, Table: t}
	}
	return Preview{Kind: KindUnknown}
}
