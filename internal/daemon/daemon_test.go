package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodev/plutogen/internal/build"
	"github.com/plutodev/plutogen/internal/config"
	"github.com/plutodev/plutogen/internal/feed"
	"github.com/plutodev/plutogen/internal/highlight"
	"github.com/plutodev/plutogen/internal/markdown"
	"github.com/plutodev/plutogen/internal/models"
	"github.com/plutodev/plutogen/internal/site"
	"github.com/plutodev/plutogen/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func daemonConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Site:     config.SiteConfig{Title: "Test", BaseURL: "https://pluto.dev"},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "posts.db")},
		Output:   config.OutputConfig{Directory: filepath.Join(dir, "site"), Clean: true},
		Feed:     config.FeedConfig{Limit: 20},
		Daemon:   config.DaemonConfig{Interval: time.Hour},
	}
}

func newDaemonPipeline(t *testing.T, cfg *config.Config) (*build.Pipeline, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	when := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SavePost(context.Background(), models.Post{
		Slug: "hello", Title: "Hello", Created: when, Updated: when,
		Published: &when, Content: "hi\n",
	}, nil))

	renderer := markdown.NewRenderer(highlight.New("monokai"))
	return build.NewPipeline(store, site.NewAssembler(renderer), feed.NewBuilder(renderer),
		nil, cfg, nil, nil), store
}

type recordingPublisher struct {
	events chan RenderedEvent
}

func (r *recordingPublisher) PublishRendered(event RenderedEvent) error {
	r.events <- event
	return nil
}

func (r *recordingPublisher) Close() {}

func TestDaemonStartupRender(t *testing.T) {
	cfg := daemonConfig(t)
	pipeline, _ := newDaemonPipeline(t, cfg)
	publisher := &recordingPublisher{events: make(chan RenderedEvent, 4)}

	d, err := New(cfg, pipeline, publisher, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	select {
	case event := <-publisher.events:
		assert.Equal(t, "startup", event.Trigger)
		assert.NotEmpty(t, event.BuildID)
	case <-time.After(10 * time.Second):
		t.Fatal("no startup render observed")
	}

	_, err = os.Stat(filepath.Join(cfg.Output.Directory, "post", "hello.html"))
	assert.NoError(t, err)
}

func TestDaemonDoubleStart(t *testing.T) {
	cfg := daemonConfig(t)
	pipeline, _ := newDaemonPipeline(t, cfg)

	d, err := New(cfg, pipeline, nil, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	t.Cleanup(func() { _ = d.Stop(ctx) })

	assert.Error(t, d.Start(ctx))
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := daemonConfig(t)
	pipeline, _ := newDaemonPipeline(t, cfg)

	d, err := New(cfg, pipeline, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))
}

func TestWatcherTriggersOnDatabaseChange(t *testing.T) {
	cfg := daemonConfig(t)
	require.NoError(t, os.WriteFile(cfg.Database.Path, []byte("db"), 0644))

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(cfg, func() { changed <- struct{}{} }, testLogger())
	require.NoError(t, err)
	w.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(cfg.Database.Path, []byte("db2"), 0644))

	select {
	case <-changed:
	case <-time.After(10 * time.Second):
		t.Fatal("watcher did not fire on database write")
	}
}

func TestWatcherRelevance(t *testing.T) {
	cfg := daemonConfig(t)
	require.NoError(t, os.WriteFile(cfg.Database.Path, []byte("db"), 0644))

	w, err := NewWatcher(cfg, func() {}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	dbDir := filepath.Dir(w.dbPath)
	assert.True(t, w.relevant(fsnotify.Event{Name: w.dbPath, Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: w.dbPath + "-wal", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dbDir, "unrelated.txt"), Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: w.dbPath, Op: fsnotify.Chmod}))
}
