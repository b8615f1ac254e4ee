package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/plutodev/plutogen/internal/build"
	"github.com/plutodev/plutogen/internal/config"
	"github.com/plutodev/plutogen/internal/daemon"
	"github.com/plutodev/plutogen/internal/deploy"
	"github.com/plutodev/plutogen/internal/editor"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
	"github.com/plutodev/plutogen/internal/feed"
	"github.com/plutodev/plutogen/internal/highlight"
	"github.com/plutodev/plutogen/internal/importer"
	"github.com/plutodev/plutogen/internal/linkverify"
	"github.com/plutodev/plutogen/internal/markdown"
	"github.com/plutodev/plutogen/internal/metrics"
	"github.com/plutodev/plutogen/internal/site"
	"github.com/plutodev/plutogen/internal/storage"
	"github.com/plutodev/plutogen/internal/webring"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"plutogen.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Render struct {
		Output string `short:"o" help:"Output directory, overrides the configured one"`
	} `cmd:"" help:"Render the whole site from the post database"`

	Edit struct {
		Slug string `arg:"" help:"Post slug to edit (created if it doesn't exist)"`
	} `cmd:"" help:"Edit a post in your editor and save it back"`

	List struct {
		Filter string `arg:"" optional:"" help:"Only list posts whose slug contains this"`
	} `cmd:"" help:"List posts in the database"`

	Import struct {
		Dir string `arg:"" help:"Directory of markdown files to import"`
	} `cmd:"" help:"Import markdown files into the post database"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Verify struct{} `cmd:"" help:"Check the rendered site for broken internal links"`

	Deploy struct{} `cmd:"" help:"Publish the rendered site"`

	Daemon struct{} `cmd:"" help:"Keep the site rendered continuously"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "render":
		err = runRender()
	case "edit <slug>":
		err = runEdit(CLI.Edit.Slug)
	case "list", "list <filter>":
		err = runList(CLI.List.Filter)
	case "import <dir>":
		err = runImport(CLI.Import.Dir)
	case "init":
		err = runInit()
	case "verify":
		err = runVerify()
	case "deploy":
		err = runDeploy()
	case "daemon":
		err = runDaemon()
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		siteerrors.NewCLIErrorAdapter(CLI.Verbose, logger).HandleError(err)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(CLI.Config)
}

func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(cfg.Database.Path)
}

func newPipeline(cfg *config.Config, store storage.Store, recorder metrics.Recorder) *build.Pipeline {
	renderer := markdown.NewRenderer(highlight.New(cfg.Site.CodeStyle))

	var banner build.BannerSource
	if cfg.Webring.Enabled {
		banner = webring.NewClient(cfg.Webring.DataURL, cfg.Webring.SiteURL)
	}

	return build.NewPipeline(store, site.NewAssembler(renderer), feed.NewBuilder(renderer),
		banner, cfg, recorder, slog.Default())
}

func runRender() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Render.Output != "" {
		cfg.Output.Directory = CLI.Render.Output
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := newPipeline(cfg, store, nil).Run(context.Background())
	if err != nil {
		return err
	}
	if len(result.PageErrors) > 0 {
		slog.Warn("Render finished with page errors",
			"pages", result.PagesWritten, "errors", len(result.PageErrors))
		for _, pageErr := range result.PageErrors {
			slog.Error("Page error", "error", pageErr)
		}
		return nil
	}
	slog.Info("Render finished", "pages", result.PagesWritten, "duration", result.Duration)
	return nil
}

func runEdit(slug string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session := &editor.ShellSession{Command: cfg.Editor.Command}
	if err := editor.New(store, session).EditPost(context.Background(), slug); err != nil {
		return err
	}
	slog.Info("Post saved", "slug", slug)
	return nil
}

func runList(filter string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	posts, err := store.List(context.Background(), filter, 100)
	if err != nil {
		return err
	}
	for _, post := range posts {
		status := "draft"
		if post.IsPublished() {
			status = post.Published.Format("2006-01-02")
		}
		fmt.Printf("%-30s %-10s %s\n", post.Slug, status, post.Title)
	}
	slog.Info("Listed posts", "count", len(posts), "filter", filter)
	return nil
}

func runImport(dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := importer.New(store, slog.Default()).ImportDir(context.Background(), dir)
	if err != nil {
		return err
	}
	slog.Info("Import finished",
		"imported", len(summary.Imported),
		"unchanged", len(summary.Unchanged),
		"failed", len(summary.Failed))
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed to import", len(summary.Failed))
	}
	return nil
}

func runInit() error {
	slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	return config.Init(CLI.Config, CLI.Init.Force)
}

func runVerify() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	issues, err := linkverify.VerifyTree(cfg.Output.Directory, cfg.Site.BaseURL)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		slog.Error("Broken link",
			"page", issue.Page,
			"url", issue.Link.URL,
			"reason", issue.Reason)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d broken link(s) found", len(issues))
	}
	slog.Info("No broken internal links", "root", cfg.Output.Directory)
	return nil
}

func runDeploy() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var deployer deploy.Deployer
	switch cfg.Deploy.Method {
	case "sftp":
		deployer = deploy.NewSFTPDeployer(cfg.Deploy.SFTP)
	case "git":
		deployer = deploy.NewGitDeployer(cfg.Deploy.Git)
	default:
		return fmt.Errorf("unknown deploy method: %s", cfg.Deploy.Method)
	}

	slog.Info("Deploying site", "method", cfg.Deploy.Method, "dir", cfg.Output.Directory)
	start := time.Now()
	if err := deployer.Deploy(context.Background(), cfg.Output.Directory); err != nil {
		return err
	}
	slog.Info("Deploy finished", "duration", time.Since(start))
	return nil
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Daemon.MetricsAddr != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
	}

	var publisher daemon.Publisher
	if cfg.Daemon.NATSURL != "" {
		publisher, err = daemon.NewNATSPublisher(cfg.Daemon.NATSURL, cfg.Daemon.Subject)
		if err != nil {
			return err
		}
	}

	d, err := daemon.New(cfg, newPipeline(cfg, store, recorder), publisher, recorder, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("Shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return d.Stop(shutdownCtx)
}
