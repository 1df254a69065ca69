package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SessionEnvVar is the environment variable carrying the _session_id cookie value
const SessionEnvVar = "STORYPARK_SESSION_ID"

// Config holds all configuration options for the archiver
type Config struct {
	Storypark StoryparkConfig `yaml:"storypark" json:"storypark"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Crawl     CrawlConfig     `yaml:"crawl" json:"crawl"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// StoryparkConfig holds API access settings
type StoryparkConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// OutputConfig controls where and how files are written
type OutputConfig struct {
	RootPath string `yaml:"root_path" json:"root_path"`
	// LegacyNames disables cleaning of path separators in story titles
	LegacyNames  bool   `yaml:"legacy_names" json:"legacy_names"`
	ManifestFile string `yaml:"manifest_file" json:"manifest_file"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
}

// CrawlConfig controls the fan-out over child profiles
type CrawlConfig struct {
	ConcurrentChildren int `yaml:"concurrent_children" json:"concurrent_children"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration for API and media requests
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storypark: StoryparkConfig{
			BaseURL:   "https://app.storypark.com/api/v3",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			Timeout:             60 * time.Second,
		},
		Crawl: CrawlConfig{
			ConcurrentChildren: 1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionID := os.Getenv(SessionEnvVar); sessionID != "" {
		c.Storypark.SessionID = sessionID
	}
	if baseURL := os.Getenv("STORYPARK_BASE_URL"); baseURL != "" {
		c.Storypark.BaseURL = baseURL
	}
	if userAgent := os.Getenv("STORYPARK_USER_AGENT"); userAgent != "" {
		c.Storypark.UserAgent = userAgent
	}
	if rootPath := os.Getenv("STORYPARK_ROOT_PATH"); rootPath != "" {
		c.Output.RootPath = rootPath
	}

	if v := os.Getenv("STORYPARK_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STORYPARK_CONCURRENT_DOWNLOADS: %w", err)
		}
		c.Download.ConcurrentDownloads = n
	}
	if v := os.Getenv("STORYPARK_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STORYPARK_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = n
	}

	if logLevel := os.Getenv("STORYPARK_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".storypark.yaml",
		".storypark.yml",
		filepath.Join(home, ".config", "storypark", "config.yaml"),
		filepath.Join(home, ".config", "storypark", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The session credential is
// checked separately by RequireSession.
func (c *Config) Validate() error {
	var errs []error

	if c.Storypark.BaseURL == "" {
		errs = append(errs, errors.New("storypark base URL is required"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 16 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 16"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Crawl.ConcurrentChildren <= 0 {
		errs = append(errs, errors.New("concurrent children must be positive"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive when retry is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// RequireSession fails when no session credential has been supplied
func (c *Config) RequireSession() error {
	if strings.TrimSpace(c.Storypark.SessionID) == "" {
		return fmt.Errorf("%s is not set and no stored credential was found", SessionEnvVar)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if rootPath, ok := flags["root-path"].(string); ok && rootPath != "" {
		c.Output.RootPath = rootPath
	}
	if concurrent, ok := flags["concurrent-downloads"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if children, ok := flags["concurrent-children"].(int); ok && children > 0 {
		c.Crawl.ConcurrentChildren = children
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm >= 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if legacy, ok := flags["legacy-names"].(bool); ok {
		c.Output.LegacyNames = legacy
	}
	if manifest, ok := flags["manifest-file"].(string); ok && manifest != "" {
		c.Output.ManifestFile = manifest
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".storypark.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
