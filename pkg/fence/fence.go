// Package fence finds fenced code blocks in markdown-style text.
//
// Grammar, one line at a time:
//
//	open  = indent{0,3} marker info?
//	close = indent{0,3} marker' space*
//	marker = "```"+ | "~~~"+
//
// A closing marker uses the same character as its opening marker and is at
// least as long. The language tag is the first word of the info string.
// Backtick info strings may not contain backticks. Anything between the
// opening and closing lines is the body, taken verbatim.
package fence

import (
	"strings"
)

// Block is one well-formed fenced block.
type Block struct {
	// Lang is the language tag, empty when the fence has none.
	Lang string
	// Info is the full info string after the opening marker.
	Info string
	// Body is the text between the fence lines, without a trailing newline.
	Body string
	// StartLine and EndLine are the zero-based lines of the two fences.
	StartLine int
	EndLine   int
}

// Result is the outcome of Parse.
type Result struct {
	Blocks []Block
	// Unterminated is set when an opening fence is never closed.
	Unterminated bool
}

type marker struct {
	char   byte
	length int
	indent int
	info   string
}

// Parse scans text for fenced blocks. It never fails.
func Parse(text string) Result {
	var res Result

	lines := splitLines(text)
	var (
		open  *marker
		start int
		body  []string
	)

	for i, line := range lines {
		if open == nil {
			m, ok := parseOpen(line)
			if !ok {
				continue
			}
			open = &m
			start = i
			body = body[:0]
			continue
		}

		if isClose(line, *open) {
			res.Blocks = append(res.Blocks, Block{
				Lang:      langOf(open.info),
				Info:      open.info,
				Body:      strings.Join(body, "\n"),
				StartLine: start,
				EndLine:   i,
			})
			open = nil
			continue
		}
		body = append(body, stripIndent(line, open.indent))
	}

	if open != nil {
		res.Unterminated = true
	}
	return res
}

// Extract returns the single code fragment tagged with lang.
//
// Candidates are blocks that carry a language tag, compared case-insensitively
// with lang when lang is non-empty. The fragment is found only when there is
// exactly one candidate and no unterminated fence; zero candidates, several
// candidates or malformed fences all report false.
func Extract(text, lang string) (Block, bool) {
	res := Parse(text)
	if res.Unterminated {
		return Block{}, false
	}

	var found []Block
	for _, b := range res.Blocks {
		if b.Lang == "" {
			continue
		}
		if lang != "" && !strings.EqualFold(b.Lang, lang) {
			continue
		}
		found = append(found, b)
	}
	if len(found) != 1 {
		return Block{}, false
	}
	return found[0], true
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

func parseOpen(line string) (marker, bool) {
	indent := leadingSpaces(line)
	if indent > 3 {
		return marker{}, false
	}
	rest := line[indent:]
	if rest == "" || (rest[0] != '`' && rest[0] != '~') {
		return marker{}, false
	}

	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return marker{}, false
	}

	info := strings.TrimSpace(rest[n:])
	if ch == '`' && strings.ContainsRune(info, '`') {
		return marker{}, false
	}
	return marker{char: ch, length: n, indent: indent, info: info}, true
}

func isClose(line string, open marker) bool {
	indent := leadingSpaces(line)
	if indent > 3 {
		return false
	}
	rest := line[indent:]
	n := 0
	for n < len(rest) && rest[n] == open.char {
		n++
	}
	if n < open.length {
		return false
	}
	return strings.TrimSpace(rest[n:]) == ""
}

func langOf(info string) string {
	if info == "" {
		return ""
	}
	return strings.Fields(info)[0]
}

// stripIndent removes up to n leading spaces, mirroring the opening fence.
func stripIndent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}
