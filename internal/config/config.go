package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
)

// Config file locations, searched in order after CHRONICLE_CONFIG.
const (
	UserConfigPath  = "~/.config/chronicle-mcp/config.toml"
	LocalConfigPath = "chronicle.toml"
)

// EnvConfig names an explicit config file and wins over both search paths.
const EnvConfig = "CHRONICLE_CONFIG"

// Config holds all chronicle-mcp configuration. It is read once at startup
// and treated as read-only afterwards.
type Config struct {
	Defaults DefaultsConfig  `yaml:"default" toml:"default"`
	Logging  LoggingConfig   `yaml:"logging" toml:"logging"`
	Cache    CacheConfig     `yaml:"cache" toml:"cache"`
	Security SecurityConfig  `yaml:"security" toml:"security"`
	Advanced AdvancedConfig  `yaml:"advanced" toml:"advanced"`
	Server   ServerConfig    `yaml:"server" toml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks" toml:"webhooks"`
}

type DefaultsConfig struct {
	Browser  string `yaml:"browser" toml:"browser"`
	Limit    int    `yaml:"limit" toml:"limit"`
	Format   string `yaml:"format" toml:"format"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

type CacheConfig struct {
	Enabled      bool `yaml:"enabled" toml:"enabled"`
	TTLSeconds   int  `yaml:"ttl_seconds" toml:"ttl_seconds"`
	MaxEntries   int  `yaml:"max_entries" toml:"max_entries"`
	WatchSources bool `yaml:"watch_sources" toml:"watch_sources"`
}

type SecurityConfig struct {
	SensitiveParams []string `yaml:"sensitive_params" toml:"sensitive_params"`
}

type AdvancedConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" toml:"fuzzy_threshold"`
	MaxQueryLimit  int     `yaml:"max_query_limit" toml:"max_query_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type WebhookConfig struct {
	URL    string   `yaml:"url" toml:"url"`
	Events []string `yaml:"events" toml:"events"`
	Secret string   `yaml:"secret" toml:"secret"`
}

// Load reads a config file at path and merges it with defaults. Files ending
// in .yaml or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// Locate returns the config file to load, or "" when none exists and the
// defaults apply. An explicit CHRONICLE_CONFIG that does not exist is an error.
func Locate(getenv func(string) string) (string, error) {
	if explicit := getenv(EnvConfig); explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file from %s: %w", EnvConfig, err)
		}
		return path, nil
	}

	for _, candidate := range []string{UserConfigPath, LocalConfigPath} {
		path, err := expandPath(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// LoadDefault locates and loads the config file (if any), then applies
// environment overrides. An explicit path skips discovery.
func LoadDefault(explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		var err error
		path, err = Locate(os.Getenv)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		path, err = expandPath(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from CHRONICLE_* environment variables.
// Numeric values that fail to parse are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("CHRONICLE_BROWSER"); ok && v != "" {
		c.Defaults.Browser = v
	}
	if v, ok := lookup("CHRONICLE_FORMAT"); ok && v != "" {
		c.Defaults.Format = v
	}
	if v, ok := lookup("CHRONICLE_LOG_LEVEL"); ok && v != "" {
		c.Defaults.LogLevel = v
		c.Logging.Level = v
	}
	if v, ok := lookup("CHRONICLE_HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if n, ok := envInt(lookup, "CHRONICLE_LIMIT"); ok {
		c.Defaults.Limit = n
	}
	if n, ok := envInt(lookup, "CHRONICLE_CACHE_TTL"); ok {
		c.Cache.TTLSeconds = n
	}
	if n, ok := envInt(lookup, "CHRONICLE_PORT"); ok {
		c.Server.Port = n
	}
	c.normalize()
}

// Validate reports the first setting that the rest of the program cannot run with.
func (c *Config) Validate() error {
	if !browser.Supported(c.Defaults.Browser) {
		return fmt.Errorf("default browser %q is not supported (valid: %s)",
			c.Defaults.Browser, strings.Join(browser.Names(), ", "))
	}
	if c.Defaults.Format != "markdown" && c.Defaults.Format != "json" {
		return fmt.Errorf("default format %q must be markdown or json", c.Defaults.Format)
	}
	if c.Defaults.Limit < 1 || c.Defaults.Limit > 100 {
		return fmt.Errorf("default limit %d must be between 1 and 100", c.Defaults.Limit)
	}
	if c.Cache.Enabled && (c.Cache.TTLSeconds <= 0 || c.Cache.MaxEntries <= 0) {
		return fmt.Errorf("cache ttl_seconds and max_entries must be positive")
	}
	if c.Advanced.FuzzyThreshold < 0 || c.Advanced.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold %.2f must be between 0.0 and 1.0", c.Advanced.FuzzyThreshold)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	return nil
}

func (c *Config) normalize() {
	c.Defaults.Browser = strings.ToLower(strings.TrimSpace(c.Defaults.Browser))
	c.Defaults.Format = strings.ToLower(strings.TrimSpace(c.Defaults.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = c.Defaults.LogLevel
	}
}

func envInt(lookup func(string) (string, bool), key string) (int, bool) {
	v, ok := lookup(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
