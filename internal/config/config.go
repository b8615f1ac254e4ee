// Package config loads the site configuration from a YAML file, with
// environment variable expansion and sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Feed     FeedConfig     `yaml:"feed"`
	Webring  WebringConfig  `yaml:"webring"`
	Editor   EditorConfig   `yaml:"editor"`
	Deploy   DeployConfig   `yaml:"deploy"`
	Daemon   DaemonConfig   `yaml:"daemon"`
}

// SiteConfig carries the channel-level site identity.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url"`
	CodeStyle   string `yaml:"code_style,omitempty"` // chroma style name
}

// DatabaseConfig locates the post database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Assets    string `yaml:"assets,omitempty"` // static files copied verbatim
	Clean     bool   `yaml:"clean"`            // Clean output directory before build
}

// FeedConfig controls RSS generation.
type FeedConfig struct {
	Limit int `yaml:"limit,omitempty"`
}

// WebringConfig controls the webring banner on the overview page.
type WebringConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataURL string `yaml:"data_url,omitempty"`
	SiteURL string `yaml:"site_url,omitempty"` // our own entry in the member list
}

// EditorConfig controls the edit workflow.
type EditorConfig struct {
	Command string `yaml:"command,omitempty"` // falls back to $EDITOR, then vim
}

// DeployConfig selects and configures a deployment method.
type DeployConfig struct {
	Method string           `yaml:"method,omitempty"` // "sftp" or "git"
	SFTP   SFTPDeployConfig `yaml:"sftp,omitempty"`
	Git    GitDeployConfig  `yaml:"git,omitempty"`
}

// SFTPDeployConfig uploads the rendered tree over SSH.
type SFTPDeployConfig struct {
	Host      string `yaml:"host"`
	User      string `yaml:"user"`
	KeyPath   string `yaml:"key_path"`
	RemoteDir string `yaml:"remote_dir"`
	// KnownHosts is the file host keys are verified against.
	// Empty means ~/.ssh/known_hosts.
	KnownHosts string `yaml:"known_hosts,omitempty"`
}

// GitDeployConfig commits and pushes the rendered tree.
type GitDeployConfig struct {
	RepoPath    string `yaml:"repo_path"`
	Remote      string `yaml:"remote,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// DaemonConfig controls continuous rendering.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval,omitempty"`
	Watch       bool          `yaml:"watch"`
	NATSURL     string        `yaml:"nats_url,omitempty"`
	Subject     string        `yaml:"subject,omitempty"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if config.Site.BaseURL == "" {
		return nil, fmt.Errorf("site.base_url must be set")
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Blog"
	}
	if c.Site.CodeStyle == "" {
		c.Site.CodeStyle = "monokai"
	}
	if c.Database.Path == "" {
		c.Database.Path = "posts.db"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
	}
	if c.Feed.Limit == 0 {
		c.Feed.Limit = 20
	}
	if c.Deploy.Method == "" {
		c.Deploy.Method = "sftp"
	}
	if c.Deploy.Git.Remote == "" {
		c.Deploy.Git.Remote = "origin"
	}
	if c.Daemon.Interval == 0 {
		c.Daemon.Interval = 15 * time.Minute
	}
	if c.Daemon.Subject == "" {
		c.Daemon.Subject = "plutogen.render"
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Title:       "My personal website",
			Description: "Here I'll post stuff from time to time.",
			BaseURL:     "https://example.com",
			CodeStyle:   "monokai",
		},
		Database: DatabaseConfig{
			Path: "posts.db",
		},
		Output: OutputConfig{
			Directory: "./site",
			Assets:    "./assets",
			Clean:     true,
		},
		Feed: FeedConfig{
			Limit: 20,
		},
		Webring: WebringConfig{
			Enabled: false,
			DataURL: "https://example.org/members.json",
			SiteURL: "https://example.com",
		},
		Deploy: DeployConfig{
			Method: "sftp",
			SFTP: SFTPDeployConfig{
				Host:       "example.com:22",
				User:       "deploy",
				KeyPath:    "${HOME}/.ssh/id_ed25519",
				RemoteDir:  "/var/www/site",
				KnownHosts: "${HOME}/.ssh/known_hosts",
			},
		},
		Daemon: DaemonConfig{
			Interval: 15 * time.Minute,
			Watch:    true,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
