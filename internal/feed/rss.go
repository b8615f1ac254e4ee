// Package feed serializes the most recent published posts into an
// RSS 2.0 document.
package feed

import (
	"encoding/xml"
	"strings"
	"time"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
	"github.com/plutodev/plutogen/internal/markdown"
	"github.com/plutodev/plutogen/internal/models"
	"github.com/plutodev/plutogen/internal/site"
)

// DefaultLimit caps the number of feed entries.
const DefaultLimit = 20

// SiteInfo carries the channel-level feed fields.
type SiteInfo struct {
	Title       string
	BaseURL     string
	Description string
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// Builder projects post records into the feed document.
type Builder struct {
	renderer *markdown.Renderer
}

// NewBuilder creates a feed Builder. Descriptions use the renderer's
// Raw mode: plain markdown-to-HTML with no code highlighting.
func NewBuilder(r *markdown.Renderer) *Builder {
	return &Builder{renderer: r}
}

// Build serializes at most limit of the given posts, which must be
// ordered by created descending. Entry links are absolute: the site
// base URL joined with the post's page URL; the GUID equals the link.
func (b *Builder) Build(published []models.Post, limit int, info SiteInfo) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(published) > limit {
		published = published[:limit]
	}

	base := strings.TrimRight(info.BaseURL, "/")
	items := make([]rssItem, 0, len(published))
	for _, post := range published {
		description, err := b.renderer.Render(post.Content, markdown.Raw)
		if err != nil {
			return nil, siteerrors.Wrap(err, siteerrors.CategoryFeed, siteerrors.SeverityError,
				"render feed description").WithContext("slug", post.Slug)
		}
		link := base + site.PagePost.URLOf(post.Slug)
		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			GUID:        link,
			PubDate:     post.Created.Format(time.RFC1123Z),
			Description: description,
		})
	}

	doc := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       info.Title,
			Link:        info.BaseURL,
			Description: info.Description,
			Items:       items,
		},
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryFeed, siteerrors.SeverityError,
			"serialize feed document")
	}
	return append([]byte(xml.Header), body...), nil
}
