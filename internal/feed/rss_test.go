package feed

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodev/plutogen/internal/highlight"
	"github.com/plutodev/plutogen/internal/markdown"
	"github.com/plutodev/plutogen/internal/models"
)

func newTestBuilder() *Builder {
	return NewBuilder(markdown.NewRenderer(highlight.New("monokai")))
}

func feedPost(slug, title string, created time.Time) models.Post {
	return models.Post{
		Slug:      slug,
		Title:     title,
		Created:   created,
		Updated:   created,
		Published: &created,
		Content:   "Body of " + title + "\n",
	}
}

func testInfo() SiteInfo {
	return SiteInfo{
		Title:       "Jonas' personal website",
		BaseURL:     "https://pluto.dev",
		Description: "Here I'll post stuff from time to time.",
	}
}

func TestBuildFeedRoundTrip(t *testing.T) {
	b := newTestBuilder()
	created := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)

	raw, err := b.Build([]models.Post{feedPost("hello", "Hello", created)}, 0, testInfo())
	require.NoError(t, err)

	var doc rssXML
	require.NoError(t, xml.Unmarshal(raw, &doc))

	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, "Jonas' personal website", doc.Channel.Title)
	require.Len(t, doc.Channel.Items, 1)

	item := doc.Channel.Items[0]
	assert.Equal(t, "Hello", item.Title)
	assert.Equal(t, "https://pluto.dev/post/hello.html", item.Link)
	assert.Equal(t, item.Link, item.GUID)

	when, err := time.Parse(time.RFC1123Z, item.PubDate)
	require.NoError(t, err)
	assert.True(t, when.Equal(created))
}

func TestBuildFeedDescriptionIsRawRender(t *testing.T) {
	b := newTestBuilder()
	created := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	post := feedPost("code", "Code", created)
	post.Content = "```go\npackage main\n```\n"

	raw, err := b.Build([]models.Post{post}, 0, testInfo())
	require.NoError(t, err)

	var doc rssXML
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.Len(t, doc.Channel.Items, 1)

	description := doc.Channel.Items[0].Description
	assert.Contains(t, description, "package main")
	assert.NotContains(t, description, "<span style=")
	assert.NotContains(t, description, `<div class="code">`)
}

func TestBuildFeedHonorsLimit(t *testing.T) {
	b := newTestBuilder()
	var posts []models.Post
	for i := 0; i < 25; i++ {
		created := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i)
		posts = append(posts, feedPost("p", "P", created))
	}

	raw, err := b.Build(posts, 20, testInfo())
	require.NoError(t, err)

	var doc rssXML
	require.NoError(t, xml.Unmarshal(raw, &doc))
	assert.Len(t, doc.Channel.Items, 20)
}

func TestBuildFeedEmptySet(t *testing.T) {
	b := newTestBuilder()

	raw, err := b.Build(nil, 0, testInfo())
	require.NoError(t, err)

	var doc rssXML
	require.NoError(t, xml.Unmarshal(raw, &doc))
	assert.Empty(t, doc.Channel.Items)
	assert.Equal(t, "https://pluto.dev", doc.Channel.Link)
}

func TestBuildFeedEscapesMarkup(t *testing.T) {
	b := newTestBuilder()
	created := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	post := feedPost("amp", "Fish & Chips <deluxe>", created)

	raw, err := b.Build([]models.Post{post}, 0, testInfo())
	require.NoError(t, err)

	// Well-formedness survives titles with markup characters.
	var doc rssXML
	require.NoError(t, xml.Unmarshal(raw, &doc))
	assert.Equal(t, "Fish & Chips <deluxe>", doc.Channel.Items[0].Title)
}
