// Package ingest turns pasted text into the previews shown by the workbench.
//
// Raw input carries no format tag. The package decides what it is looking at
// with a single classification function (Classify) and derives the table or
// document preview from that decision, so the two views can never disagree.
package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Table is an ordered sequence of records that share one key set.
// Keys come from the header line; every row is aligned to Header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table holds no records.
// A header without records counts as empty.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Value returns the cell for key in the given row, or "" when absent.
func (t Table) Value(row int, key string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	for i, h := range t.Header {
		if h == key {
			return t.Rows[row][i]
		}
	}
	return ""
}

// Records returns the table as a slice of key/value maps.
// Key order is lost in the maps; use Header when order matters.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// Delimiters lists the field separators ParseTable recognises, in the order
// that breaks ties.
var Delimiters = []rune{',', '\t', ';', '|'}

// ParseTable parses delimited text with a header line. The delimiter is the
// one from Delimiters that occurs most often in the header line outside
// quotes; comma when none does.
//
// Parsing is lenient: bare quotes are accepted, ragged rows are padded or
// truncated to the header width and blank lines are skipped. Input that
// cannot be read at all yields an empty Table rather than an error.
func ParseTable(raw string) Table {
	t, err := parse(raw, true)
	if err != nil {
		return Table{}
	}
	return t
}

// ParseTableStrict parses delimited text like ParseTable but fails on
// malformed quoting. It is used to decide whether a service reply really is
// delimited text.
func ParseTableStrict(raw string) (Table, error) {
	return parse(raw, false)
}

func parse(raw string, lenient bool) (Table, error) {
	if strings.TrimSpace(raw) == "" {
		return Table{}, nil
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.Comma = SniffDelimiter(raw)
	r.FieldsPerRecord = -1
	r.LazyQuotes = lenient
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, nil
		}
		return Table{}, err
	}
	header = uniqueHeader(header)

	t := Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if lenient {
				// keep what was readable so far
				break
			}
			return Table{}, err
		}
		if isBlankRecord(rec) {
			continue
		}
		t.Rows = append(t.Rows, align(rec, len(header)))
	}
	return t, nil
}

// SniffDelimiter picks the field separator of raw from its first non-blank
// line.
func SniffDelimiter(raw string) rune {
	line := raw
	for line != "" {
		var rest string
		line, rest, _ = strings.Cut(line, "\n")
		if strings.TrimSpace(line) != "" {
			break
		}
		line = rest
	}

	counts := make(map[rune]int, len(Delimiters))
	inQuotes := false
	for _, c := range line {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range Delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// uniqueHeader renames repeated header names to name_1, name_2, ...
// so every record has a distinct key set.
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if n, ok := seen[h]; ok {
			for {
				n++
				name = h + "_" + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func align(rec []string, width int) []string {
	row := make([]string, width)
	copy(row, rec)
	return row
}

func isBlankRecord(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}
