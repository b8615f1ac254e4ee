// Package markdown converts post bodies from Markdown to HTML.
//
// Two modes exist: Raw is a plain structural translation used for the
// feed's description field; WithHighlighting additionally reroutes
// fenced code blocks through the syntax highlighter and wraps them in a
// styling container.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"

	"github.com/plutodev/plutogen/internal/highlight"
)

// Mode selects how code blocks are treated during rendering.
type Mode int

const (
	// Raw translates markdown structure only; fenced code blocks come
	// out as goldmark's plain <pre><code> with no wrapper and no
	// highlighting.
	Raw Mode = iota

	// WithHighlighting wraps fenced code blocks in <div class="code">
	// and replaces their text with highlighter output where the fence
	// declares a known language.
	WithHighlighting
)

// Renderer converts markdown to HTML. It holds no per-document state,
// is safe for concurrent Render calls, and is deterministic for a
// given (input, mode) pair.
type Renderer struct {
	raw         goldmark.Markdown
	highlighted goldmark.Markdown
}

// NewRenderer builds a Renderer around the given highlighter. The
// highlighter is injected rather than ambient so tests can substitute a
// fixture grammar table.
func NewRenderer(h *highlight.Highlighter) *Renderer {
	return &Renderer{
		raw: goldmark.New(),
		highlighted: goldmark.New(
			goldmark.WithExtensions(&codeBlockExtension{highlighter: h}),
		),
	}
}

// Render converts a markdown document to an HTML fragment.
func (r *Renderer) Render(source string, mode Mode) (string, error) {
	md := r.raw
	if mode == WithHighlighting {
		md = r.highlighted
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
