package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/version"
)

// Config holds the settings shared by every aur-autoupdater command.
type Config struct {
	// UserAgent is the identification header sent with every HTTP request.
	UserAgent string `yaml:"user_agent"`
	// CacheDir is where package repositories are cloned.
	CacheDir string `yaml:"cache_dir"`
	// GitHubAPIURL is the base URL of the GitHub REST API.
	GitHubAPIURL string `yaml:"github_api_url"`
	// GitHubToken authenticates GitHub API calls; GITHUB_TOKEN is used when empty.
	GitHubToken string `yaml:"github_token"`
	// PyPIURL is the base URL of the PyPI JSON API.
	PyPIURL string `yaml:"pypi_url"`
	// AURURL is the base URL of the AUR web interface.
	AURURL string `yaml:"aur_url"`
	// RepositoryTemplate turns a package name into a clone URL; %s is the name.
	RepositoryTemplate string `yaml:"repository_template"`
	// Branch is the remote branch package repositories are reset to.
	Branch string `yaml:"branch"`
	// HelperScript optionally replaces the built-in PKGBUILD evaluation script.
	HelperScript string `yaml:"helper_script"`
	// Timeout bounds a single HTTP request, including archive downloads.
	Timeout time.Duration `yaml:"timeout"`
	// MaxResponseBytes bounds decoded API responses such as the PyPI project index.
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level"`
	// Build describes how packages are rebuilt after an update.
	Build Build `yaml:"build"`
}

// Build holds the makepkg invocation used to verify an updated package.
type Build struct {
	// Command is the build tool executable.
	Command string `yaml:"command"`
	// Args are passed to Command.
	Args []string `yaml:"args"`
	// Env is appended to the process environment, as KEY=VALUE entries.
	Env []string `yaml:"env"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "aur-autoupdater.yaml"

	// DefaultGitHubAPIURL is the public GitHub REST API.
	DefaultGitHubAPIURL = "https://api.github.com"

	// DefaultPyPIURL is the public PyPI JSON API.
	DefaultPyPIURL = "https://pypi.org/pypi/"

	// DefaultAURURL is the public AUR web interface.
	DefaultAURURL = "https://aur.archlinux.org"

	// DefaultRepositoryTemplate clones packages over the AUR SSH remote.
	DefaultRepositoryTemplate = "aur.archlinux.org:%s.git"

	// DefaultBranch is the branch AUR repositories publish from.
	DefaultBranch = "master"

	// DefaultTimeout is generous because archives are streamed through the same client.
	DefaultTimeout = 5 * time.Minute

	// DefaultMaxResponseBytes leaves room for large PyPI project indexes.
	DefaultMaxResponseBytes = 32 << 20

	// DefaultBuildCommand builds the package to make sure the update is sound.
	DefaultBuildCommand = "makepkg"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// cacheDirName is the directory created under the user cache directory.
	cacheDirName = "aur-autoupdater"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadRepositoryTemplate is returned when the template has no %s verb.
	errBadRepositoryTemplate = errors.New("repository template must contain exactly one %s")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// DefaultBuildArgs make makepkg non-interactive and self-cleaning.
func DefaultBuildArgs() []string {
	return []string{"--clean", "--force", "--syncdeps", "--noconfirm"}
}

// DefaultBuildEnv lets makepkg resolve AUR dependencies through yay without sudo.
func DefaultBuildEnv() []string {
	return []string{"PACMAN=yay", "PACMAN_AUTH=nice"}
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	cfg := new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from path and validates it.
// A missing file at the default location yields the defaults; an explicitly
// requested file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default()
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// The file may hold a GitHub token.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	if cfg.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("determine cache directory: %w", err)
		}

		cfg.CacheDir = filepath.Join(dir, cacheDirName)
	}

	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = DefaultGitHubAPIURL
	}

	if cfg.PyPIURL == "" {
		cfg.PyPIURL = DefaultPyPIURL
	}

	if cfg.AURURL == "" {
		cfg.AURURL = DefaultAURURL
	}

	if cfg.RepositoryTemplate == "" {
		cfg.RepositoryTemplate = DefaultRepositoryTemplate
	}

	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	if cfg.Build.Command == "" {
		cfg.Build.Command = DefaultBuildCommand
		cfg.Build.Args = DefaultBuildArgs()
		cfg.Build.Env = DefaultBuildEnv()
	}

	if strings.Count(cfg.RepositoryTemplate, "%s") != 1 {
		return fmt.Errorf("%w: %q", errBadRepositoryTemplate, cfg.RepositoryTemplate)
	}

	for name, raw := range map[string]string{
		"github_api_url": cfg.GitHubAPIURL,
		"pypi_url":       cfg.PyPIURL,
		"aur_url":        cfg.AURURL,
	} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	return nil
}

// RepositoryFor returns the clone URL of the named package.
func (c *Config) RepositoryFor(name string) string {
	return fmt.Sprintf(c.RepositoryTemplate, name)
}

// Token returns the configured GitHub token, falling back to GITHUB_TOKEN.
// The environment value is never written back by Save.
func (c *Config) Token() string {
	if c.GitHubToken != "" {
		return c.GitHubToken
	}

	return os.Getenv("GITHUB_TOKEN")
}

// CloneDirectory returns where the named package is cloned.
func (c *Config) CloneDirectory(name string) string {
	return filepath.Join(c.CacheDir, name)
}
