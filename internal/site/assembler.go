package site

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/plutodev/plutogen/internal/markdown"
	"github.com/plutodev/plutogen/internal/models"
)

//go:embed skeleton.html
var skeletonSource string

// skeleton is the fixed page layout with four named slots. Each slot is
// substituted verbatim; escaping is the producing component's job, so
// this is a text template, not an HTML one.
var skeleton = template.Must(template.New("skeleton").Parse(skeletonSource))

type pageSlots struct {
	Title            string
	Body             string
	Copyright        string
	BottomNavigation string
}

// Assembler builds complete HTML pages from snapshot data.
type Assembler struct {
	renderer *markdown.Renderer
}

// NewAssembler creates an Assembler around the given markdown renderer.
func NewAssembler(r *markdown.Renderer) *Assembler {
	return &Assembler{renderer: r}
}

// RenderPost builds a full post page: highlighted body, tag links,
// prev/next navigation, wrapped in the layout. published must be the
// snapshot's navigation order and contain post.
func (a *Assembler) RenderPost(post models.Post, tags []string, published []models.Post) (string, error) {
	body, err := a.renderer.Render(post.Content, markdown.WithHighlighting)
	if err != nil {
		return "", fmt.Errorf("render post %q: %w", post.Slug, err)
	}
	body += tagList(tags)

	nav, err := bottomNavigation(post, published)
	if err != nil {
		return "", fmt.Errorf("navigation for post %q: %w", post.Slug, err)
	}

	return applySkeleton(pageSlots{
		Title:            post.Title,
		Body:             body,
		Copyright:        CopyrightYears(post.Created, post.Updated),
		BottomNavigation: nav,
	})
}

// RenderTag builds a tag page: the tag's markdown description followed
// by a reverse-chronological table of the published posts carrying the
// tag. Tag pages are not chained, so they carry no bottom navigation.
func (a *Assembler) RenderTag(meta models.TagMeta, posts []models.Post) (string, error) {
	title := "Posts with tag " + upper(meta.Name)
	body := "<h1>" + title + "</h1>"

	description, err := a.renderer.Render(meta.Description, markdown.WithHighlighting)
	if err != nil {
		return "", fmt.Errorf("render tag %q description: %w", meta.Name, err)
	}
	body += description
	body += postTable(posts)

	return applySkeleton(pageSlots{
		Title: title,
		Body:  body,
	})
}

// RenderOverview builds the index page: a reverse-chronological table
// of every published post plus the webring banner fragment. banner is
// an opaque pre-rendered string and may be empty when the webring is
// unavailable. With zero published posts the table is empty and the
// copyright line is blank.
func (a *Assembler) RenderOverview(published []models.Post, banner string) (string, error) {
	body := "<h1>Blog Posts</h1>"
	body += postTable(published)
	body += banner

	copyright := ""
	if len(published) > 0 {
		oldest := published[len(published)-1].Created
		newest := published[0].Created
		copyright = CopyrightYears(oldest, newest)
	}

	return applySkeleton(pageSlots{
		Title:     "Overview",
		Body:      body,
		Copyright: copyright,
	})
}

// CopyrightYears formats the copyright span of two dates: the earlier
// year alone when both fall in the same year, "Y1-Y2" otherwise.
func CopyrightYears(from, to time.Time) string {
	copyright := from.Format("2006")
	if end := to.Format("2006"); end != copyright {
		copyright += "-" + end
	}
	return copyright
}

func applySkeleton(slots pageSlots) (string, error) {
	var buf strings.Builder
	if err := skeleton.Execute(&buf, slots); err != nil {
		return "", fmt.Errorf("apply page skeleton: %w", err)
	}
	return buf.String(), nil
}

// tagList renders the post page's tag link row, or an empty string for
// an untagged post.
func tagList(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	var links strings.Builder
	for _, tag := range tags {
		fmt.Fprintf(&links, `<a href="%s">%s</a> `, PageTag.URLOf(tag), upper(tag))
	}
	return "<br><strong>Tags:</strong> " + links.String() + "<br>"
}

// postTable renders the (title, url, date) table shared by the
// overview and tag pages. posts must already be in display order.
func postTable(posts []models.Post) string {
	var buf strings.Builder
	buf.WriteString("<hr>")
	buf.WriteString(`<table class="post-list">`)
	buf.WriteString("<th>Post</th><th>Date</th>")
	for _, post := range posts {
		fmt.Fprintf(&buf, `<tr><td><a href="%s">%s</a></td><td>%s</td></tr>`,
			PagePost.URLOf(post.Slug), post.Title, post.Created.Format("02-01-2006"))
	}
	buf.WriteString("</table><hr>")
	return buf.String()
}

func bottomNavigation(post models.Post, published []models.Post) (string, error) {
	prev, next, err := Neighbors(post, published)
	if err != nil {
		return "", err
	}

	link := func(label string, target models.Post) string {
		return fmt.Sprintf(` <a href="%s" class="bottom-nav-button">%s</a> `,
			PagePost.URLOf(target.Slug), label)
	}

	return link("← "+prev.Label, prev.Post) + link(next.Label+" →", next.Post), nil
}

// upper uppercases a tag name for display. Tag names may be arbitrary
// Unicode, so this goes through x/text rather than strings.ToUpper.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
