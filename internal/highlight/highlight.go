// Package highlight renders code fragments as inline-styled HTML spans.
//
// The lexer registry bundled with chroma is the grammar table: it is
// loaded once per process and immutable afterwards. A Highlighter is a
// pure function of (registry, style, code, language) and is safe to
// share across goroutines.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrUnknownLanguage is returned when a language tag resolves to no
// lexer. Callers must treat this as recoverable and emit the code as
// plain escaped text instead of failing the surrounding render.
var ErrUnknownLanguage = errors.New("unknown language")

// Highlighter converts code fragments into HTML.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New creates a Highlighter using the named chroma style. An empty or
// unknown style name falls back to chroma's default style. The
// formatter emits inline styles without a surrounding <pre>, so
// highlighted code carries no background of its own and inherits the
// page's.
func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style: style,
		formatter: chromahtml.New(
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight renders code as HTML spans for the given language tag.
// The tag is resolved against the lexer registry by name first, then
// by alias. The whole fragment is tokenized in one pass so lexer state
// carries across lines; multi-line strings and comments tokenize the
// same way they would in a real source file.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenize %q fragment: %w", language, err)
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("format %q fragment: %w", language, err)
	}
	return buf.String(), nil
}
