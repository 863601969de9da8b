package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Catalog contains connection settings for the remote media catalog.
type Catalog struct {
	BaseURL             string   `toml:"base_url"`
	Username            string   `toml:"username"`
	Password            string   `toml:"password"`
	RequestTimeout      int      `toml:"request_timeout"`
	SessionMaxAgeMin    int      `toml:"session_max_age_minutes"`
	LocatorPollAttempts int      `toml:"locator_poll_attempts"`
	LocatorPollSeconds  int      `toml:"locator_poll_seconds"`
	DeprecatedHosts     []string `toml:"deprecated_hosts"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Resolver contains tuning for title matching and worker sharding.
type Resolver struct {
	MinSimilarity  float64 `toml:"min_similarity"`
	ShortTitleLen  int     `toml:"short_title_len"`
	YearTolerance  int     `toml:"year_tolerance"`
	Workers        int     `toml:"workers"`
	BackgroundJobs int     `toml:"background_jobs"`
}

// Repair contains configuration for the audit/repair loop.
type Repair struct {
	Enabled             bool `toml:"enabled"`
	PassIntervalMinutes int  `toml:"pass_interval_minutes"`
	ItemDelaySeconds    int  `toml:"item_delay_seconds"`
	MissingCeiling      int  `toml:"missing_ceiling"`
	SuspectCeiling      int  `toml:"suspect_ceiling"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Resolved       bool   `toml:"resolved"`
	Repairs        bool   `toml:"repairs"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinevibe.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Catalog: remote catalog credentials and session/polling tuning
//   - TMDB: metadata enrichment via The Movie Database
//   - Resolver: similarity threshold, sharding, year gate
//   - Repair: audit loop intervals and retry ceilings
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Catalog       Catalog       `toml:"catalog"`
	TMDB          TMDB          `toml:"tmdb"`
	Resolver      Resolver      `toml:"resolver"`
	Repair        Repair        `toml:"repair"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cinevibe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinevibe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionMaxAge returns the configured session staleness age.
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.Catalog.SessionMaxAgeMin) * time.Minute
}

// RepairPassInterval returns the sleep between full audit passes.
func (c *Config) RepairPassInterval() time.Duration {
	return time.Duration(c.Repair.PassIntervalMinutes) * time.Minute
}

// RepairItemDelay returns the throttle delay between audited items.
func (c *Config) RepairItemDelay() time.Duration {
	return time.Duration(c.Repair.ItemDelaySeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
