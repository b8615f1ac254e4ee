package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func snapPost(slug string, created time.Time) Post {
	return Post{Slug: slug, Title: slug, Created: created, Updated: created, Published: &created}
}

func testSnapshot() *Snapshot {
	jan := snapPost("jan", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	feb := snapPost("feb", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))
	mar := snapPost("mar", time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC))
	return &Snapshot{
		Published: []Post{mar, feb, jan},
		TagsByPost: map[string][]string{
			"jan": {"go"},
			"mar": {"go", "unix"},
		},
		TagMeta: map[string]TagMeta{
			"go":     {Name: "go", Display: true, Description: "Posts about Go.\n"},
			"unix":   {Name: "unix", Display: true},
			"hidden": {Name: "hidden", Display: false},
		},
	}
}

func TestIsPublished(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Post{Published: &now}).IsPublished())
	assert.False(t, (&Post{}).IsPublished())
}

func TestPostsWithTagPreservesOrder(t *testing.T) {
	s := testSnapshot()
	posts := s.PostsWithTag("go")
	// Snapshot order is reverse-chronological; filtering must not reorder.
	assert.Equal(t, []string{"mar", "jan"}, []string{posts[0].Slug, posts[1].Slug})
}

func TestPostsWithTagUnknownTag(t *testing.T) {
	assert.Empty(t, testSnapshot().PostsWithTag("nope"))
}

func TestDisplayTagsSortedAndFiltered(t *testing.T) {
	tags := testSnapshot().DisplayTags()
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"go", "unix"}, names)
	// The full metadata row comes through, not just the name.
	assert.Equal(t, "Posts about Go.\n", tags[0].Description)
}
