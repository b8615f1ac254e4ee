package markdown

import (
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/plutodev/plutogen/internal/highlight"
)

// fenceState tracks whether rendering is currently inside a fenced code
// block and which language the fence declared. Fenced blocks do not
// nest, so a single slot suffices. One fenceState lives per block, so
// documents rendered on separate goroutines never share fence state.
// Exit clears the language when the block's emission finishes so a
// stale language can never leak into later output.
type fenceState struct {
	inside   bool
	language string
}

func (s *fenceState) Enter(language string) {
	s.inside = true
	s.language = language
}

func (s *fenceState) Exit() {
	s.inside = false
	s.language = ""
}

// Language returns the declared language and whether rendering is
// inside a code block at all.
func (s *fenceState) Language() (string, bool) {
	return s.language, s.inside
}

// codeBlockExtension replaces goldmark's fenced code block rendering
// with highlighter output wrapped in a styling container.
type codeBlockExtension struct {
	highlighter *highlight.Highlighter
}

func (e *codeBlockExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&codeBlockRenderer{highlighter: e.highlighter}, 100),
	))
}

type codeBlockRenderer struct {
	highlighter *highlight.Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)

	if !entering {
		_, _ = w.WriteString("</code></pre></div>\n")
		return ast.WalkContinue, nil
	}

	var state fenceState
	state.Enter(string(n.Language(source)))
	defer state.Exit()
	_, _ = w.WriteString(`<div class="code"><pre><code>`)

	var code []byte
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		code = append(code, line.Value(source)...)
	}

	if language, ok := state.Language(); ok && language != "" {
		highlighted, err := r.highlighter.Highlight(string(code), language)
		if err == nil {
			_, _ = w.WriteString(highlighted)
			return ast.WalkContinue, nil
		}
		// Unknown language or tokenizer failure: the block still
		// renders, just unhighlighted.
	}

	_, _ = w.WriteString(html.EscapeString(string(code)))
	return ast.WalkContinue, nil
}
