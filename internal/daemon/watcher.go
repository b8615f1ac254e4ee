package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plutodev/plutogen/internal/config"
)

// Watcher re-renders when the post database or the asset tree changes.
// Events are debounced so one editing session produces one render.
type Watcher struct {
	watcher      *fsnotify.Watcher
	onChange     func()
	logger       *slog.Logger
	dbPath       string
	assetsDir    string
	stopChan     chan struct{}
	changeChan   chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher over the database file and the asset
// directory named in cfg.
func NewWatcher(cfg *config.Config, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dbPath, err := filepath.Abs(cfg.Database.Path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	return &Watcher{
		watcher:      fsw,
		onChange:     onChange,
		logger:       logger,
		dbPath:       dbPath,
		assetsDir:    cfg.Output.Assets,
		stopChan:     make(chan struct{}),
		changeChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins watching. The database's parent directory is watched
// rather than the file itself; sqlite replaces the file on write.
func (w *Watcher) Start(ctx context.Context) error {
	dbDir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dbDir); err != nil {
		return fmt.Errorf("watch database directory %s: %w", dbDir, err)
	}
	if w.assetsDir != "" {
		if err := w.watcher.Add(w.assetsDir); err != nil {
			w.logger.Warn("asset directory not watchable", "dir", w.assetsDir, "error", err)
		}
	}

	w.logger.Info("watching for changes", "db", w.dbPath, "assets", w.assetsDir)
	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop closes the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			select {
			case w.changeChan <- struct{}{}:
			default:
				// A change is already pending.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// relevant filters database-directory noise: only the database file
// itself (and its sqlite journals) or asset files count.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if w.assetsDir != "" {
		if rel, err := filepath.Rel(w.assetsDir, event.Name); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	base := filepath.Base(w.dbPath)
	name := filepath.Base(event.Name)
	return name == base || name == base+"-wal" || name == base+"-journal"
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.changeChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceTime, w.onChange)
		}
	}
}
