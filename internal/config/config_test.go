package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plutogen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  base_url: https://pluto.dev
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Blog", cfg.Site.Title)
	assert.Equal(t, "monokai", cfg.Site.CodeStyle)
	assert.Equal(t, "posts.db", cfg.Database.Path)
	assert.Equal(t, "./site", cfg.Output.Directory)
	assert.Equal(t, 20, cfg.Feed.Limit)
	assert.Equal(t, 15*time.Minute, cfg.Daemon.Interval)
	assert.Equal(t, "plutogen.render", cfg.Daemon.Subject)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
site:
  title: No URL here
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("PLUTOGEN_TEST_DB", "/tmp/posts.db")
	path := writeConfig(t, `
site:
  base_url: https://pluto.dev
database:
  path: ${PLUTOGEN_TEST_DB}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/posts.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestInitWritesExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plutogen.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My personal website", cfg.Site.Title)
	assert.Equal(t, "sftp", cfg.Deploy.Method)
}

func TestInitRefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plutogen.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, Init(path, true))
}
