// Package importer bulk-loads markdown files into the post database.
// Files carry the same front matter as the edit workflow; the slug is
// the file name without extension.
package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plutodev/plutogen/internal/editor"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
	"github.com/plutodev/plutogen/internal/models"
	"github.com/plutodev/plutogen/internal/storage"
)

// Summary reports what one import run did.
type Summary struct {
	Imported  []string // slugs inserted or updated
	Unchanged []string // slugs skipped because the version matched
	Failed    []string // files that didn't parse
}

// Importer loads markdown files into the store.
type Importer struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Importer.
func New(store storage.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger, now: time.Now}
}

// ImportDir walks dir and imports every .md file. A file whose version
// matches the stored post is skipped; a file that fails to parse is
// reported and skipped. The run continues past individual failures.
func (i *Importer) ImportDir(ctx context.Context, dir string) (*Summary, error) {
	summary := &Summary{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"walk import directory").WithContext("path", path)
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		slug := strings.TrimSuffix(filepath.Base(path), ".md")
		changed, err := i.importFile(ctx, path, slug)
		if err != nil {
			summary.Failed = append(summary.Failed, path)
			i.logger.Error("import failed", "file", path, "error", err)
			return nil
		}
		if changed {
			summary.Imported = append(summary.Imported, slug)
			i.logger.Info("imported post", "slug", slug)
		} else {
			summary.Unchanged = append(summary.Unchanged, slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// importFile upserts one file. Returns false when the stored version
// already matches and nothing was written.
func (i *Importer) importFile(ctx context.Context, path, slug string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
			"read import file").WithContext("path", path)
	}

	doc, err := editor.ParseDocument(string(raw))
	if err != nil {
		return false, err
	}

	now := i.now().UTC()
	post := models.Post{
		Slug:    slug,
		Title:   doc.Meta.Title,
		Version: doc.Meta.Version,
		Created: now,
		Updated: now,
		Content: doc.Content,
	}

	existing, err := i.store.Post(ctx, slug)
	switch {
	case err == nil:
		if existing.Version == doc.Meta.Version {
			return false, nil
		}
		post.Created = existing.Created
		if doc.Meta.Published && existing.Published != nil {
			post.Published = existing.Published
		}
	case storage.IsNotFound(err):
		// First import of this slug.
	default:
		return false, err
	}

	if doc.Meta.Published && post.Published == nil {
		post.Published = &now
	}

	if err := i.store.SavePost(ctx, post, doc.Meta.Tags); err != nil {
		return false, siteerrors.Wrap(err, siteerrors.CategoryStorage, siteerrors.SeverityError,
			"save imported post").WithContext("slug", slug)
	}
	return true, nil
}
