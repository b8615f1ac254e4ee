// Package build orchestrates one render batch: snapshot the database,
// render every page, write the feed, and copy static assets.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/plutodev/plutogen/internal/config"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
	"github.com/plutodev/plutogen/internal/feed"
	"github.com/plutodev/plutogen/internal/metrics"
	"github.com/plutodev/plutogen/internal/models"
	"github.com/plutodev/plutogen/internal/site"
	"github.com/plutodev/plutogen/internal/storage"
)

// BannerSource provides the webring banner for the overview page.
// Implementations that fail produce a page without the banner, never a
// failed batch.
type BannerSource interface {
	Banner(ctx context.Context) (string, error)
}

// Result summarizes one render batch.
type Result struct {
	BuildID      string
	PagesWritten int
	// PageErrors holds per-page failures. The batch continues past
	// them; the affected pages are simply absent from the output.
	PageErrors []error
	Duration   time.Duration
}

// Outcome classifies the batch for logs and metrics.
func (r *Result) Outcome() string {
	if len(r.PageErrors) == 0 {
		return "success"
	}
	return "partial"
}

// Pipeline renders the whole site from one database snapshot.
type Pipeline struct {
	store     storage.Store
	assembler *site.Assembler
	feed      *feed.Builder
	banner    BannerSource // nil when the webring is disabled
	cfg       *config.Config
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewPipeline wires a render pipeline. banner may be nil.
func NewPipeline(store storage.Store, assembler *site.Assembler, feedBuilder *feed.Builder,
	banner BannerSource, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		assembler: assembler,
		feed:      feedBuilder,
		banner:    banner,
		cfg:       cfg,
		recorder:  recorder,
		logger:    logger,
	}
}

// Run executes one batch. A storage failure aborts the batch; a page
// that fails to render is logged, counted, and skipped so the rest of
// the site still updates.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: uuid.NewString()}
	logger := p.logger.With("build_id", result.BuildID)

	snapshot, err := p.store.Snapshot(ctx)
	if err != nil {
		p.recorder.IncBuildOutcome("failed")
		return nil, siteerrors.Wrap(err, siteerrors.CategoryStorage, siteerrors.SeverityFatal,
			"snapshot post database")
	}
	logger.Info("starting render batch",
		"published_posts", len(snapshot.Published),
		"output", p.cfg.Output.Directory)

	if err := p.prepareOutput(); err != nil {
		p.recorder.IncBuildOutcome("failed")
		return nil, err
	}

	p.renderPosts(snapshot, result, logger)
	p.renderTags(snapshot, result, logger)
	p.renderOverview(ctx, snapshot, result, logger)

	if err := p.writeFeed(snapshot); err != nil {
		result.PageErrors = append(result.PageErrors, err)
		logger.Error("feed generation failed", "error", err)
	} else {
		result.PagesWritten++
	}

	if p.cfg.Output.Assets != "" {
		if err := p.copyAssets(); err != nil {
			result.PageErrors = append(result.PageErrors, err)
			logger.Error("asset copy failed", "error", err)
		}
	}

	result.Duration = time.Since(start)
	p.recorder.ObserveBuildDuration(result.Duration)
	p.recorder.IncBuildOutcome(result.Outcome())
	logger.Info("render batch finished",
		"pages", result.PagesWritten,
		"errors", len(result.PageErrors),
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) prepareOutput() error {
	out := p.cfg.Output.Directory
	if p.cfg.Output.Clean {
		if err := os.RemoveAll(out); err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityFatal,
				"clean output directory").WithContext("dir", out)
		}
	}
	for _, kind := range site.Kinds() {
		if err := os.MkdirAll(kind.Dir(out), 0755); err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityFatal,
				"create output directory").WithContext("dir", kind.Dir(out))
		}
	}
	return nil
}

func (p *Pipeline) renderPosts(snapshot *models.Snapshot, result *Result, logger *slog.Logger) {
	for _, post := range snapshot.Published {
		page, err := p.assembler.RenderPost(post, snapshot.TagsByPost[post.Slug], snapshot.Published)
		if err == nil {
			err = p.writePage(site.PagePost, post.Slug, page)
		}
		if err != nil {
			p.recorder.IncPageFailures(metrics.PageKindPost)
			result.PageErrors = append(result.PageErrors, err)
			logger.Error("post page failed", "slug", post.Slug, "error", err)
			continue
		}
		p.recorder.IncPagesRendered(metrics.PageKindPost)
		result.PagesWritten++
	}
}

// renderTags writes one page per display-enabled tag that has at least
// one published post. A tag in use without a metadata row fails only
// its own page.
func (p *Pipeline) renderTags(snapshot *models.Snapshot, result *Result, logger *slog.Logger) {
	seen := map[string]bool{}
	for _, post := range snapshot.Published {
		for _, tag := range snapshot.TagsByPost[post.Slug] {
			seen[tag] = true
		}
	}
	names := make([]string, 0, len(seen))
	for tag := range seen {
		names = append(names, tag)
	}
	sort.Strings(names)
	for _, tag := range names {
		if _, ok := snapshot.TagMeta[tag]; ok {
			continue
		}
		err := siteerrors.New(siteerrors.CategoryRender, siteerrors.SeverityError,
			"tag has no metadata row").WithContext("tag", tag)
		p.recorder.IncPageFailures(metrics.PageKindTag)
		result.PageErrors = append(result.PageErrors, err)
		logger.Error("tag page failed", "tag", tag, "error", err)
	}

	for _, meta := range snapshot.DisplayTags() {
		posts := snapshot.PostsWithTag(meta.Name)
		if len(posts) == 0 {
			continue
		}
		page, err := p.assembler.RenderTag(meta, posts)
		if err == nil {
			err = p.writePage(site.PageTag, meta.Name, page)
		}
		if err != nil {
			p.recorder.IncPageFailures(metrics.PageKindTag)
			result.PageErrors = append(result.PageErrors, err)
			logger.Error("tag page failed", "tag", meta.Name, "error", err)
			continue
		}
		p.recorder.IncPagesRendered(metrics.PageKindTag)
		result.PagesWritten++
	}
}

func (p *Pipeline) renderOverview(ctx context.Context, snapshot *models.Snapshot, result *Result, logger *slog.Logger) {
	banner := ""
	if p.banner != nil {
		b, err := p.banner.Banner(ctx)
		if err != nil {
			logger.Warn("webring banner unavailable, omitting", "error", err)
		} else {
			banner = b
		}
	}

	page, err := p.assembler.RenderOverview(snapshot.Published, banner)
	if err == nil {
		err = p.writeFile(filepath.Join(p.cfg.Output.Directory, "index.html"), page)
	}
	if err != nil {
		p.recorder.IncPageFailures(metrics.PageKindOverview)
		result.PageErrors = append(result.PageErrors, err)
		logger.Error("overview page failed", "error", err)
		return
	}
	p.recorder.IncPagesRendered(metrics.PageKindOverview)
	result.PagesWritten++
}

func (p *Pipeline) writeFeed(snapshot *models.Snapshot) error {
	raw, err := p.feed.Build(snapshot.Published, p.cfg.Feed.Limit, feed.SiteInfo{
		Title:       p.cfg.Site.Title,
		BaseURL:     p.cfg.Site.BaseURL,
		Description: p.cfg.Site.Description,
	})
	if err != nil {
		return err
	}
	return p.writeFile(filepath.Join(p.cfg.Output.Directory, "rss.xml"), string(raw))
}

func (p *Pipeline) writePage(kind site.PageKind, key, content string) error {
	return p.writeFile(kind.PathOf(p.cfg.Output.Directory, key), content)
}

func (p *Pipeline) writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
			"write output file").WithContext("path", path)
	}
	return nil
}

// copyAssets mirrors the static asset directory into the output tree.
func (p *Pipeline) copyAssets() error {
	src := p.cfg.Output.Assets
	dst := p.cfg.Output.Directory

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"walk asset directory").WithContext("path", path)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open asset %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create asset %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy asset %s: %w", dst, err)
	}
	return out.Close()
}
