package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "trackview"

// Config holds the application configuration
type Config struct {
	// APIBase is the backend origin, also used to resolve relative screenshot paths
	APIBase string `yaml:"api_base"`

	// Token is sent as a bearer token when set
	Token string `yaml:"token"`

	// DBPath is the sqlite cache location
	DBPath string `yaml:"db_path"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// Theme is the catppuccin flavor (mocha, macchiato, frappe, latte)
	Theme string `yaml:"theme"`

	// RequestTimeout bounds each API call; zero leaves calls unbounded
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// DownloadDir is the initial screenshot download directory
	DownloadDir string `yaml:"download_dir"`
}

// Dir returns ~/.config/trackview
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appName), nil
}

// Default returns the default configuration
func Default() *Config {
	dir, err := Dir()
	if err != nil {
		dir = "."
	}
	download := dir
	if home, err := os.UserHomeDir(); err == nil {
		download = filepath.Join(home, "Downloads")
	}
	return &Config{
		APIBase:     "http://localhost:8000",
		DBPath:      filepath.Join(dir, appName+".db"),
		LogFile:     filepath.Join(dir, appName+".log"),
		LogLevel:    "info",
		Theme:       "mocha",
		DownloadDir: download,
	}
}

// DefaultPath is the config file location used when --config is not given.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.yaml")
	}
	dir, err := Dir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config from a YAML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path)) //nolint:gosec // user-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api_base must be an http(s) URL, got %q", c.APIBase)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	switch c.Theme {
	case "", "mocha", "macchiato", "frappe", "latte":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}
