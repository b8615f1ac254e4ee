// Package models defines the records read from the post database.
package models

import (
	"sort"
	"time"
)

// Post is one blog post row. The rendering pipeline treats posts as
// read-only input; only the edit and import workflows write them.
type Post struct {
	// Slug is the unique key, used in URLs and output file paths.
	Slug    string
	Title   string
	Version string
	Created time.Time
	Updated time.Time
	// Published is nil for drafts. A draft is excluded from every piece
	// of public output (pages, tables, navigation, feed).
	Published *time.Time
	// Content is the raw markdown body with front matter already stripped.
	Content string
}

// IsPublished reports whether the post appears in public output.
func (p *Post) IsPublished() bool { return p.Published != nil }

// Tag associates a tag name with a post slug.
type Tag struct {
	Name string
	Slug string
}

// TagMeta carries the per-tag page data.
type TagMeta struct {
	Name        string
	Display     bool
	Description string
}

// Snapshot is the full read-only copy of the database taken once at the
// start of a render batch. Every page of a batch is derived from the
// same snapshot; nothing re-reads the store mid-render.
type Snapshot struct {
	// Published holds the published posts ordered by created descending,
	// slug ascending. The order is the navigation order.
	Published []Post

	// TagsByPost maps a post slug to its tag names, sorted.
	TagsByPost map[string][]string

	// TagMeta maps a tag name to its metadata row.
	TagMeta map[string]TagMeta
}

// PostsWithTag returns the published posts carrying the given tag,
// preserving the snapshot's reverse-chronological order.
func (s *Snapshot) PostsWithTag(name string) []Post {
	var posts []Post
	for _, p := range s.Published {
		for _, t := range s.TagsByPost[p.Slug] {
			if t == name {
				posts = append(posts, p)
				break
			}
		}
	}
	return posts
}

// DisplayTags returns the metadata rows of tags with the display flag
// set, sorted by name for deterministic page generation.
func (s *Snapshot) DisplayTags() []TagMeta {
	tags := make([]TagMeta, 0, len(s.TagMeta))
	for _, meta := range s.TagMeta {
		if meta.Display {
			tags = append(tags, meta)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}
