package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
		<a href="/post/hello.html">Hello</a>
		<a href="https://external.example/page">External</a>
		<img src="/images/cat.png" alt="cat">
		<a href="#top">Top</a>
		<a href="mailto:me@example.com">Mail</a>
	</body></html>`

	links, err := ExtractLinks(strings.NewReader(page), "https://pluto.dev")
	require.NoError(t, err)
	require.Len(t, links, 5)

	assert.Equal(t, "/post/hello.html", links[0].URL)
	assert.Equal(t, "Hello", links[0].Text)
	assert.True(t, links[0].IsInternal)
	assert.False(t, links[1].IsInternal)
	assert.Equal(t, "img", links[2].Tag)
	assert.True(t, links[3].IsInternal)
	assert.False(t, links[4].IsInternal)
}

func TestExtractLinksSameHostIsInternal(t *testing.T) {
	page := `<a href="https://pluto.dev/post/x.html">x</a>`
	links, err := ExtractLinks(strings.NewReader(page), "https://pluto.dev")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].IsInternal)
}

func TestVerifyTreeCleanSite(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":      `<a href="/post/hello.html">Hello</a>`,
		"post/hello.html": `<a href="/index.html">Home</a>`,
	})

	issues, err := VerifyTree(root, "https://pluto.dev")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestVerifyTreeReportsBrokenLinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<a href="/post/missing.html">Gone</a>`,
	})

	issues, err := VerifyTree(root, "https://pluto.dev")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "index.html", issues[0].Page)
	assert.Equal(t, "/post/missing.html", issues[0].Link.URL)
}

func TestVerifyTreeIgnoresExternalsAndAnchors(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<a href="https://external.example/404">x</a><a href="#section">y</a>`,
	})

	issues, err := VerifyTree(root, "https://pluto.dev")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestVerifyTreeResolvesRelativeLinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"post/a.html": `<a href="b.html">B</a><a href="c.html">C</a>`,
		"post/b.html": `ok`,
	})

	issues, err := VerifyTree(root, "https://pluto.dev")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "c.html", issues[0].Link.URL)
}
