// Package editor implements the interactive edit workflow: a post is
// checked out of the database into a scratch markdown file with a YAML
// front matter block, opened in the user's editor, and written back.
package editor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
	"github.com/plutodev/plutogen/internal/models"
	"github.com/plutodev/plutogen/internal/storage"
)

// ScratchPath is the working file the editor is opened on.
const ScratchPath = ".edit.md"

// PostMeta is the front matter block of the scratch file.
type PostMeta struct {
	Title     string   `yaml:"title"`
	Version   string   `yaml:"version,omitempty"`
	Published bool     `yaml:"published"`
	Tags      []string `yaml:"tags,omitempty"`
}

// Document is a post in its editable form: front matter plus body.
type Document struct {
	Meta    PostMeta
	Content string
}

// ParseDocument splits a scratch file into front matter and body. The
// front matter sits between the first two "---" separators; further
// separators belong to the body.
func ParseDocument(raw string) (*Document, error) {
	parts := strings.Split(raw, "---")
	if len(parts) < 3 {
		return nil, siteerrors.New(siteerrors.CategoryEditor, siteerrors.SeverityError,
			"missing front matter block (expected a section delimited by ---)")
	}

	var meta PostMeta
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryEditor, siteerrors.SeverityError,
			"parse front matter")
	}
	if meta.Title == "" {
		return nil, siteerrors.New(siteerrors.CategoryEditor, siteerrors.SeverityError,
			"front matter is missing a title")
	}

	return &Document{
		Meta:    meta,
		Content: strings.Join(parts[2:], "---"),
	}, nil
}

// Marshal renders the document back into scratch-file form.
func (d *Document) Marshal() ([]byte, error) {
	meta, err := yaml.Marshal(d.Meta)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryEditor, siteerrors.SeverityError,
			"marshal front matter")
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---")
	b.WriteString(d.Content)
	return []byte(b.String()), nil
}

// Session abstracts the interactive parts so tests can drive the loop
// without a terminal.
type Session interface {
	// OpenEditor blocks until the user closes their editor on path.
	OpenEditor(path string) error
	// ReadLine reads one line of user input after a parse failure.
	ReadLine() (string, error)
}

// ShellSession runs the configured editor command through the shell
// and reads answers from stdin.
type ShellSession struct {
	Command string // editor command, falls back to $EDITOR then vim
	Stdin   io.Reader
}

func (s *ShellSession) OpenEditor(path string) error {
	command := s.Command
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = "vim"
	}

	cmd := exec.Command("sh", "-c", command+" "+path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (s *ShellSession) ReadLine() (string, error) {
	in := s.Stdin
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Editor runs edit sessions against the post database.
type Editor struct {
	store   storage.Store
	session Session
	now     func() time.Time

	// Scratch is the working file path, ScratchPath by default.
	Scratch string
}

// New creates an Editor.
func New(store storage.Store, session Session) *Editor {
	return &Editor{store: store, session: session, now: time.Now, Scratch: ScratchPath}
}

// EditPost checks the post out into the scratch file, loops the editor
// until the file parses (or the user types q to abort), and writes the
// result back. Created is preserved across edits; the published
// timestamp is set the first time the front matter flips published to
// true and kept on subsequent edits.
func (e *Editor) EditPost(ctx context.Context, slug string) error {
	original, err := e.checkout(ctx, slug)
	if err != nil {
		return err
	}

	edited, err := e.editLoop()
	if err != nil {
		return err
	}

	post := models.Post{
		Slug:    slug,
		Title:   edited.Meta.Title,
		Version: edited.Meta.Version,
		Created: e.now().UTC(),
		Updated: e.now().UTC(),
		Content: edited.Content,
	}
	if original != nil {
		post.Created = original.Created
	}
	if edited.Meta.Published {
		if original != nil && original.Published != nil {
			post.Published = original.Published
		} else {
			when := e.now().UTC()
			post.Published = &when
		}
	}

	if err := e.store.SavePost(ctx, post, edited.Meta.Tags); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryStorage, siteerrors.SeverityError,
			"save edited post").WithContext("slug", slug)
	}

	_ = os.Remove(e.Scratch)
	return nil
}

// checkout writes the scratch file. A missing post starts from an
// empty template instead of failing, so new posts are created by
// editing a slug that doesn't exist yet.
func (e *Editor) checkout(ctx context.Context, slug string) (*models.Post, error) {
	post, err := e.store.Post(ctx, slug)
	if err != nil {
		if !storage.IsNotFound(err) {
			return nil, err
		}
		doc := &Document{Meta: PostMeta{Title: "", Published: false}, Content: "\n"}
		raw, err := doc.Marshal()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(e.Scratch, raw, 0644); err != nil {
			return nil, siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"write scratch file")
		}
		return nil, nil
	}

	tags, err := e.store.PostTags(ctx, slug)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Meta: PostMeta{
			Title:     post.Title,
			Version:   post.Version,
			Published: post.IsPublished(),
			Tags:      tags,
		},
		Content: post.Content,
	}
	raw, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(e.Scratch, raw, 0644); err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
			"write scratch file")
	}
	return post, nil
}

func (e *Editor) editLoop() (*Document, error) {
	for {
		if err := e.session.OpenEditor(e.Scratch); err != nil {
			return nil, siteerrors.Wrap(err, siteerrors.CategoryEditor, siteerrors.SeverityError,
				"open editor")
		}

		raw, err := os.ReadFile(e.Scratch)
		if err != nil {
			return nil, siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"read scratch file")
		}

		doc, err := ParseDocument(string(raw))
		if err == nil {
			return doc, nil
		}

		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Press q to abort, anything else to reopen the editor.")
		line, readErr := e.session.ReadLine()
		if readErr != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "q") {
			return nil, err
		}
	}
}
