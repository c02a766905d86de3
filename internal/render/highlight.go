package render

import (
	"bytes"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style of highlighted blocks.
const HighlightStyle = "dracula"

var highlighter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.TabWidth(4),
)

// Highlight renders source as a syntax-highlighted HTML block. Tokens carry
// CSS classes; HighlightCSS returns the matching rules. An unknown language
// is rendered as plain text. Source text is HTML-escaped.
func Highlight(source, language string) (string, error) {
	lexer := lexers.Get(strings.ToLower(language))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := highlighter.Format(&buf, styles.Get(HighlightStyle), it); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var highlightCSS = sync.OnceValues(func() (string, error) {
	var buf bytes.Buffer
	if err := highlighter.WriteCSS(&buf, styles.Get(HighlightStyle)); err != nil {
		return "", err
	}
	return buf.String(), nil
})

// HighlightCSS returns the stylesheet for blocks rendered by Highlight.
func HighlightCSS() (string, error) {
	return highlightCSS()
}
