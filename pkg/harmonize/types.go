// Package harmonize is the client side of the remote harmonization service.
//
// It owns the wire contract of the two endpoints the workbench talks to:
//
//	POST /transform          {data, transform_type} -> {data}
//	POST /newtransformation  {newTransformation}    -> {message}
//
// and the payload rules that differ by transform type. The service itself
// is a black box; nothing in this package transforms data locally.
package harmonize

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/harmonize/pkg/ingest"
)

// TransformType names a schema-to-schema transform known to the service.
type TransformType string

// Known transform types. The two JSON transforms are canonical: fixed schema
// pairs whose payloads travel as JSON string literals. Everything else is a
// free-form, CSV-oriented transform that only the service understands.
const (
	TypeIFRSToEFRAG     TransformType = "transform_json1"
	TypeEFRAGToIFRS     TransformType = "transform_json2"
	TypeCityEmissions   TransformType = "transform1"
	TypeCityEmissionsES TransformType = "transform2"
)

// DefaultType is the transform selected when nothing else was chosen.
const DefaultType = TypeIFRSToEFRAG

var typeLabels = map[TransformType]string{
	TypeIFRSToEFRAG:     "Transform IFRS->EFRAG",
	TypeEFRAGToIFRS:     "Transform EFRAG->IFRS",
	TypeCityEmissions:   "Transform city emissions (yearly totals)",
	TypeCityEmissionsES: "Transform city emissions (Spanish columns)",
}

// KnownTypes lists the transform types offered in menus and completions.
func KnownTypes() []TransformType {
	return []TransformType{TypeIFRSToEFRAG, TypeEFRAGToIFRS, TypeCityEmissions, TypeCityEmissionsES}
}

// ParseTransformType validates s as a transform type.
// Any single non-empty token is accepted; unknown tokens are free-form.
func ParseTransformType(s string) (TransformType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("transform type is required")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", fmt.Errorf("invalid transform type %q: must be a single token", s)
	}
	return TransformType(s), nil
}

// Canonical reports whether t is one of the fixed JSON schema pairs.
func (t TransformType) Canonical() bool {
	return t == TypeIFRSToEFRAG || t == TypeEFRAGToIFRS
}

// Label returns a human readable name for menus.
func (t TransformType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t TransformType) String() string {
	return string(t)
}

// TransformRequest is the body of POST /transform.
type TransformRequest struct {
	Data          string        `json:"data"`
	TransformType TransformType `json:"transform_type"`
}

// NewTransformRequest encodes raw for the given transform type.
//
// Canonical types carry raw as a JSON string literal (the text is quoted and
// escaped before it is placed in the data field, so it is double-encoded on
// the wire). Free-form types carry raw verbatim.
func NewTransformRequest(raw string, t TransformType) TransformRequest {
	data := raw
	if t.Canonical() {
		data = ingest.EncodeString(raw)
	}
	return TransformRequest{Data: data, TransformType: t}
}

// TransformResult is what a transform reply decodes into. Either view, or
// both, may be populated.
type TransformResult struct {
	Table       ingest.Table
	Document    string
	HasDocument bool
}

// Empty reports whether neither view has content.
func (r TransformResult) Empty() bool {
	return r.Table.Empty() && !r.HasDocument
}

// DecodeTransformResult interprets the data field of a transform reply.
//
// For canonical types data must be a JSON document; it is re-indented for
// display. For free-form types data is delimited text. Independently of the
// type, data that strictly parses as delimited text with at least one record
// also fills the table view.
func DecodeTransformResult(t TransformType, data string) (TransformResult, error) {
	var res TransformResult

	if t.Canonical() {
		doc, err := ingest.FormatDocument(data)
		if err != nil {
			return TransformResult{}, fmt.Errorf("%w: %s reply is not a JSON document: %v", ErrDecode, t, err)
		}
		res.Document = doc
		res.HasDocument = true
		if tbl, err := ingest.ParseTableStrict(data); err == nil && !tbl.Empty() {
			res.Table = tbl
		}
		return res, nil
	}

	res.Table = ingest.ParseTable(data)
	return res, nil
}

// GenerationRequest is the body of POST /newtransformation.
type GenerationRequest struct {
	NewTransformation string `json:"newTransformation"`
}
