// Package storage provides the post database behind the rendering
// pipeline and the edit workflow.
package storage

import (
	"context"

	"github.com/plutodev/plutogen/internal/models"
)

// Store is the narrow capability the rest of the program sees. The
// render pipeline only reads (Snapshot); the edit and import workflows
// also write.
type Store interface {
	// Snapshot reads the full consistent view used by one render
	// batch: published posts in navigation order, tag associations,
	// and tag metadata.
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	// Post fetches a single post by slug, published or not.
	// Returns ErrNotFound if no such post exists.
	Post(ctx context.Context, slug string) (*models.Post, error)

	// PostTags returns the sorted tag names attached to a post.
	PostTags(ctx context.Context, slug string) ([]string, error)

	// List returns up to limit posts whose slug matches the LIKE
	// filter, ordered by slug.
	List(ctx context.Context, filter string, limit int) ([]models.Post, error)

	// SavePost replaces the post row and its tag set in one
	// transaction. Timestamp handling (preserving created, bumping
	// updated) is the caller's responsibility.
	SavePost(ctx context.Context, post models.Post, tags []string) error

	// Close releases the underlying database handle.
	Close() error
}

// ErrNotFound is returned when a post doesn't exist.
type ErrNotFound struct {
	Slug string
}

func (e ErrNotFound) Error() string {
	return "post not found: " + e.Slug
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
