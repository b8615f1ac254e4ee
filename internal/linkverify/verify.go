package linkverify

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

// Issue is one broken internal link.
type Issue struct {
	Page   string // output-tree-relative path of the page holding the link
	Link   Link
	Reason string
}

// VerifyTree walks the rendered output tree and reports internal links
// that don't resolve to a file in the tree. External links are not
// fetched.
func VerifyTree(root, baseURL string) ([]Issue, error) {
	var issues []Issue

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"walk output tree").WithContext("path", p)
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		file, err := os.Open(p)
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"open page").WithContext("path", p)
		}
		links, extractErr := ExtractLinks(file, baseURL)
		_ = file.Close()
		if extractErr != nil {
			return extractErr
		}

		for _, link := range links {
			if !shouldVerify(link) {
				continue
			}
			if reason, broken := checkInternal(root, rel, link); broken {
				issues = append(issues, Issue{Page: rel, Link: link, Reason: reason})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// checkInternal resolves the link target against the output tree.
func checkInternal(root, page string, link Link) (string, bool) {
	u, err := url.Parse(link.URL)
	if err != nil {
		return "unparseable URL", true
	}

	target := u.Path
	if target == "" {
		return "", false
	}
	if !strings.HasPrefix(target, "/") {
		// Relative to the linking page's directory.
		target = path.Join("/", path.Dir(filepath.ToSlash(page)), target)
	}
	if strings.HasSuffix(target, "/") {
		target += "index.html"
	}

	fsPath := filepath.Join(root, filepath.FromSlash(target))
	info, err := os.Stat(fsPath)
	if err != nil {
		return "target file does not exist", true
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(fsPath, "index.html")); err != nil {
			return "directory has no index.html", true
		}
	}
	return "", false
}
