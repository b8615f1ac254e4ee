// Package linkverify checks the rendered output tree for broken
// internal links before it gets deployed.
package linkverify

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text or alt text
	Tag        string // HTML tag (a, img, script, link)
	IsInternal bool   // True if link targets this site
}

// ExtractLinks extracts all links from an HTML reader.
func ExtractLinks(r io.Reader, baseURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryValidation, siteerrors.SeverityError,
			"parse HTML")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryValidation, siteerrors.SeverityError,
			"invalid base URL").WithContext("base_url", baseURL)
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if link, ok := elementLink(n, base); ok {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	var target, text string
	switch n.Data {
	case "a":
		target, text = getAttr(n, "href"), extractText(n)
	case "img":
		target, text = getAttr(n, "src"), getAttr(n, "alt")
	case "script":
		target = getAttr(n, "src")
	case "link":
		target, text = getAttr(n, "href"), getAttr(n, "rel")
	default:
		return Link{}, false
	}
	if target == "" {
		return Link{}, false
	}
	return Link{
		URL:        target,
		Text:       text,
		Tag:        n.Data,
		IsInternal: isInternalLink(target, base),
	}, true
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

func isInternalLink(linkURL string, base *url.URL) bool {
	if strings.HasPrefix(linkURL, "#") {
		return true
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	if u.Scheme == "mailto" || u.Scheme == "tel" || u.Scheme == "javascript" || u.Scheme == "data" {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// shouldVerify filters out links that have no file behind them by
// design: anchors, special protocols, and externals.
func shouldVerify(link Link) bool {
	if !link.IsInternal {
		return false
	}
	if link.URL == "" || strings.HasPrefix(link.URL, "#") {
		return false
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		return false
	}
	return u.Scheme == "" || u.Host != ""
}
