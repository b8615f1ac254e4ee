package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodev/plutogen/internal/storage"
)

func writeMarkdown(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func postFile(title, version string, published bool) string {
	p := "false"
	if published {
		p = "true"
	}
	return "---\ntitle: " + title + "\nversion: \"" + version + "\"\npublished: " + p + "\n---\nBody of " + title + "\n"
}

func newTestImporter(t *testing.T) (*Importer, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, nil), store
}

func TestImportDirInsertsNewPosts(t *testing.T) {
	imp, store := newTestImporter(t)
	dir := t.TempDir()
	writeMarkdown(t, dir, "hello.md", postFile("Hello", "1", true))
	writeMarkdown(t, dir, "draft.md", postFile("Draft", "1", false))
	writeMarkdown(t, dir, "notes.txt", "not markdown")

	summary, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hello", "draft"}, summary.Imported)
	assert.Empty(t, summary.Failed)

	hello, err := store.Post(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", hello.Title)
	assert.NotNil(t, hello.Published)

	draft, err := store.Post(context.Background(), "draft")
	require.NoError(t, err)
	assert.Nil(t, draft.Published)
}

func TestImportSkipsUnchangedVersion(t *testing.T) {
	imp, _ := newTestImporter(t)
	dir := t.TempDir()
	writeMarkdown(t, dir, "hello.md", postFile("Hello", "1", true))

	_, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)

	summary, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, summary.Imported)
	assert.Equal(t, []string{"hello"}, summary.Unchanged)
}

func TestImportUpdatePreservesCreatedAndPublished(t *testing.T) {
	imp, store := newTestImporter(t)
	imp.now = func() time.Time { return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC) }
	dir := t.TempDir()
	ctx := context.Background()

	writeMarkdown(t, dir, "hello.md", postFile("Hello", "1", true))
	_, err := imp.ImportDir(ctx, dir)
	require.NoError(t, err)

	first, err := store.Post(ctx, "hello")
	require.NoError(t, err)

	imp.now = func() time.Time { return time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC) }
	writeMarkdown(t, dir, "hello.md", postFile("Hello again", "2", true))
	summary, err := imp.ImportDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, summary.Imported)

	second, err := store.Post(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", second.Title)
	assert.True(t, second.Created.Equal(first.Created))
	require.NotNil(t, second.Published)
	assert.True(t, second.Published.Equal(*first.Published))
	assert.True(t, second.Updated.After(first.Updated))
}

func TestImportContinuesPastBrokenFiles(t *testing.T) {
	imp, store := newTestImporter(t)
	dir := t.TempDir()
	writeMarkdown(t, dir, "broken.md", "no front matter here")
	writeMarkdown(t, dir, "good.md", postFile("Good", "1", true))

	summary, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, summary.Imported)
	require.Len(t, summary.Failed, 1)
	assert.Contains(t, summary.Failed[0], "broken.md")

	_, err = store.Post(context.Background(), "good")
	require.NoError(t, err)
}
