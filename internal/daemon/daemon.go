// Package daemon keeps the site continuously rendered: it re-runs the
// pipeline on a schedule and when the post database changes on disk.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/plutodev/plutogen/internal/build"
	"github.com/plutodev/plutogen/internal/config"
	"github.com/plutodev/plutogen/internal/metrics"
)

// Daemon owns the scheduler, the file watcher, and the optional event
// publisher and metrics endpoint.
type Daemon struct {
	cfg       *config.Config
	pipeline  *build.Pipeline
	logger    *slog.Logger
	publisher Publisher
	recorder  metrics.Recorder

	scheduler gocron.Scheduler
	watcher   *Watcher
	metricsrv *http.Server

	mu      sync.Mutex
	running bool
}

// New wires a daemon around an existing pipeline. publisher may be nil.
func New(cfg *config.Config, pipeline *build.Pipeline, publisher Publisher,
	recorder metrics.Recorder, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		pipeline:  pipeline,
		logger:    logger,
		publisher: publisher,
		recorder:  recorder,
		scheduler: scheduler,
	}, nil
}

// Start begins periodic rendering and, when configured, file watching
// and the metrics endpoint. It renders once immediately so the site is
// never stale at startup.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already started")
	}

	_, err := d.scheduler.NewJob(
		gocron.DurationJob(d.cfg.Daemon.Interval),
		gocron.NewTask(d.renderOnce, ctx, "schedule"),
		gocron.WithName("periodic-render"),
	)
	if err != nil {
		return fmt.Errorf("schedule periodic render: %w", err)
	}
	d.scheduler.Start()

	if d.cfg.Daemon.Watch {
		watcher, err := NewWatcher(d.cfg, func() {
			d.renderOnce(ctx, "file-change")
		}, d.logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		d.watcher = watcher
	}

	if d.cfg.Daemon.MetricsAddr != "" {
		d.startMetricsServer()
	}

	d.running = true
	d.logger.Info("daemon started",
		"interval", d.cfg.Daemon.Interval,
		"watch", d.cfg.Daemon.Watch)

	go d.renderOnce(ctx, "startup")
	return nil
}

// Stop shuts everything down and waits for in-flight jobs.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false

	var errs []error
	if err := d.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.metricsrv != nil {
		if err := d.metricsrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	if d.publisher != nil {
		d.publisher.Close()
	}
	d.logger.Info("daemon stopped")
	return errors.Join(errs...)
}

// renderOnce runs one batch and publishes the outcome. Render failures
// are logged, not fatal; the daemon keeps running.
func (d *Daemon) renderOnce(ctx context.Context, trigger string) {
	d.logger.Info("render triggered", "trigger", trigger)

	result, err := d.pipeline.Run(ctx)
	if err != nil {
		d.logger.Error("render batch failed", "trigger", trigger, "error", err)
		return
	}

	if d.publisher != nil {
		if err := d.publisher.PublishRendered(RenderedEvent{
			BuildID:  result.BuildID,
			Trigger:  trigger,
			Pages:    result.PagesWritten,
			Errors:   len(result.PageErrors),
			Duration: result.Duration,
			At:       time.Now().UTC(),
		}); err != nil {
			d.logger.Warn("publish render event failed", "error", err)
		}
	}
}

func (d *Daemon) startMetricsServer() {
	handler, ok := d.recorder.(interface{ HTTPHandler() http.Handler })
	if !ok {
		d.logger.Warn("metrics address configured but recorder has no HTTP handler")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.HTTPHandler())
	d.metricsrv = &http.Server{
		Addr:              d.cfg.Daemon.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.metricsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", "error", err)
		}
	}()
	d.logger.Info("metrics endpoint listening", "addr", d.cfg.Daemon.MetricsAddr)
}
