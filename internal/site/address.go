// Package site composes rendered markdown, navigation, and tag data
// into the final HTML pages of the output tree.
package site

import "path/filepath"

// PageKind enumerates the output page categories that have one page
// per key. The overview and the feed are singletons, not kinds.
type PageKind int

const (
	PagePost PageKind = iota
	PageTag
)

// Name returns the kind's URL and directory segment.
func (k PageKind) Name() string {
	switch k {
	case PagePost:
		return "post"
	case PageTag:
		return "tag"
	}
	return "unknown"
}

// URLOf returns the site-absolute URL of the page for key. The mapping
// is a pure function and stable across runs; published URLs are linked
// externally and must never move.
func (k PageKind) URLOf(key string) string {
	return "/" + k.Name() + "/" + key + ".html"
}

// PathOf returns the output file path of the page for key, rooted at
// the output tree's base directory.
func (k PageKind) PathOf(baseDir, key string) string {
	return filepath.Join(baseDir, k.Name(), key+".html")
}

// Dir returns the kind's output directory under baseDir.
func (k PageKind) Dir(baseDir string) string {
	return filepath.Join(baseDir, k.Name())
}

// Kinds returns every page kind.
func Kinds() []PageKind {
	return []PageKind{PagePost, PageTag}
}
