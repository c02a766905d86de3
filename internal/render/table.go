package render

import (
	"github.com/leapstack-labs/harmonize/pkg/ingest"
)

// TableView is a table ready for display. Headers follow the key order of the
// first record; every row lists values in the same order.
type TableView struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether there is nothing to show.
func (v TableView) Empty() bool {
	return len(v.Rows) == 0
}

// ViewTable builds the display form of t. An empty table has no headers.
func ViewTable(t ingest.Table) TableView {
	if t.Empty() {
		return TableView{}
	}
	headers := make([]string, len(t.Header))
	copy(headers, t.Header)

	rows := make([][]string, 0, t.Len())
	for _, rec := range t.Rows {
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}
	return TableView{Headers: headers, Rows: rows}
}

// Records returns the rows as header-keyed maps.
func (v TableView) Records() []map[string]string {
	out := make([]map[string]string, 0, len(v.Rows))
	for _, row := range v.Rows {
		rec := make(map[string]string, len(v.Headers))
		for i, h := range v.Headers {
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}
