package deploy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/plutodev/plutogen/internal/config"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

// GitDeployer copies the output tree into a checked-out repository,
// commits the changes, and pushes.
type GitDeployer struct {
	cfg config.GitDeployConfig
	now func() time.Time

	// push is overridable so tests can run without a remote.
	push func(repo *git.Repository) error
}

// NewGitDeployer creates a git deployer for the given repository.
func NewGitDeployer(cfg config.GitDeployConfig) *GitDeployer {
	d := &GitDeployer{cfg: cfg, now: time.Now}
	d.push = func(repo *git.Repository) error {
		return repo.Push(&git.PushOptions{RemoteName: cfg.Remote})
	}
	return d
}

// Deploy syncs localDir into the repository worktree, commits, and
// pushes. A worktree with no changes commits nothing and succeeds.
func (d *GitDeployer) Deploy(ctx context.Context, localDir string) error {
	repo, err := git.PlainOpen(d.cfg.RepoPath)
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"open deploy repository").WithContext("repo_path", d.cfg.RepoPath)
	}

	if err := d.syncTree(ctx, localDir); err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"open worktree")
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"stage changes")
	}

	status, err := worktree.Status()
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"read worktree status")
	}
	if status.IsClean() {
		return nil
	}

	message := fmt.Sprintf("Publish site %s", d.now().UTC().Format("2006-01-02 15:04"))
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  d.authorName(),
			Email: d.cfg.AuthorEmail,
			When:  d.now(),
		},
	})
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"commit site")
	}

	if err := d.push(repo); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"push to remote").WithContext("remote", d.cfg.Remote)
	}
	return nil
}

func (d *GitDeployer) authorName() string {
	if d.cfg.AuthorName != "" {
		return d.cfg.AuthorName
	}
	return "plutogen"
}

// syncTree copies localDir into the repository, skipping .git.
func (d *GitDeployer) syncTree(ctx context.Context, localDir string) error {
	return filepath.WalkDir(localDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"walk output tree").WithContext("path", p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(d.cfg.RepoPath, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := io.Copy(out, in); err != nil {
			return err
		}
		return out.Close()
	})
}
