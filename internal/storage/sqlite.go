package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/plutodev/plutogen/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the post database.
// Use ":memory:" for an in-memory database in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		created INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		published INTEGER,
		content TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS tags (
		tag TEXT NOT NULL,
		slug TEXT NOT NULL,
		PRIMARY KEY (tag, slug)
	);
	CREATE TABLE IF NOT EXISTS tags_meta (
		tag TEXT PRIMARY KEY,
		display INTEGER NOT NULL DEFAULT 1,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_posts_published_created ON posts(published, created);
	CREATE INDEX IF NOT EXISTS idx_tags_slug ON tags(slug);
	`
	_, err := s.db.Exec(schema)
	return err
}

const postColumns = "slug, title, version, created, updated, published, content"

// Snapshot reads the published posts in navigation order plus all tag
// data. Ordering is fixed in SQL (created DESC, slug ASC) so repeated
// runs over the same data produce identical output.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE published IS NOT NULL ORDER BY created DESC, slug ASC")
	if err != nil {
		return nil, fmt.Errorf("query published posts: %w", err)
	}
	defer rows.Close()

	published, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Published:  published,
		TagsByPost: make(map[string][]string),
		TagMeta:    make(map[string]models.TagMeta),
	}

	tagRows, err := s.db.QueryContext(ctx, "SELECT tag, slug FROM tags ORDER BY tag, slug")
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag, slug string
		if err := tagRows.Scan(&tag, &slug); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		snapshot.TagsByPost[slug] = append(snapshot.TagsByPost[slug], tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}

	metaRows, err := s.db.QueryContext(ctx, "SELECT tag, display, description FROM tags_meta ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("query tag metadata: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var meta models.TagMeta
		if err := metaRows.Scan(&meta.Name, &meta.Display, &meta.Description); err != nil {
			return nil, fmt.Errorf("scan tag metadata row: %w", err)
		}
		snapshot.TagMeta[meta.Name] = meta
	}
	if err := metaRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag metadata rows: %w", err)
	}

	return snapshot, nil
}

// Post fetches a single post by slug.
func (s *SQLiteStore) Post(ctx context.Context, slug string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE slug = ?", slug)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound{Slug: slug}
	}
	if err != nil {
		return nil, fmt.Errorf("query post %q: %w", slug, err)
	}
	return post, nil
}

// PostTags returns the sorted tag names attached to a post.
func (s *SQLiteStore) PostTags(ctx context.Context, slug string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM tags WHERE slug = ? ORDER BY tag", slug)
	if err != nil {
		return nil, fmt.Errorf("query tags for %q: %w", slug, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	sort.Strings(tags)
	return tags, nil
}

// List returns up to limit posts whose slug matches the LIKE filter.
func (s *SQLiteStore) List(ctx context.Context, filter string, limit int) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE slug LIKE ? ORDER BY slug LIMIT ?",
		"%"+filter+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// SavePost replaces the post row and its tag set in one transaction.
func (s *SQLiteStore) SavePost(ctx context.Context, post models.Post, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var published any
	if post.Published != nil {
		published = post.Published.Unix()
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE slug = ?", post.Slug); err != nil {
		return fmt.Errorf("delete post %q: %w", post.Slug, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		post.Slug, post.Title, post.Version,
		post.Created.Unix(), post.Updated.Unix(), published, post.Content,
	); err != nil {
		return fmt.Errorf("insert post %q: %w", post.Slug, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE slug = ?", post.Slug); err != nil {
		return fmt.Errorf("delete tags for %q: %w", post.Slug, err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (tag, slug) VALUES (?, ?)", tag, post.Slug); err != nil {
			return fmt.Errorf("insert tag %q for %q: %w", tag, post.Slug, err)
		}
	}

	return tx.Commit()
}

// SaveTagMeta inserts or updates a tag's metadata row.
func (s *SQLiteStore) SaveTagMeta(ctx context.Context, meta models.TagMeta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags_meta (tag, display, description) VALUES (?, ?, ?)
		 ON CONFLICT(tag) DO UPDATE SET display = excluded.display, description = excluded.description`,
		meta.Name, meta.Display, meta.Description)
	if err != nil {
		return fmt.Errorf("save tag metadata %q: %w", meta.Name, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var created, updated int64
	var published sql.NullInt64

	err := row.Scan(&post.Slug, &post.Title, &post.Version, &created, &updated, &published, &post.Content)
	if err != nil {
		return nil, err
	}

	post.Created = time.Unix(created, 0).UTC()
	post.Updated = time.Unix(updated, 0).UTC()
	if published.Valid {
		when := time.Unix(published.Int64, 0).UTC()
		post.Published = &when
	}
	return &post, nil
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}
