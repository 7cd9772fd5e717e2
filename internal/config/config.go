// Package config handles the global vt configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pomdtr/vt/internal/api"
)

const (
	DefaultExtension = "tsx"
	DefaultEnvFile   = ".env"
	DefaultEditor    = "vim"
	DefaultLogLevel  = "warn"
)

// Config represents the global vt configuration.
type Config struct {
	// Token is the API token. VALTOWN_TOKEN takes precedence over it.
	Token string `toml:"token"`

	// APIURL overrides the API base URL.
	APIURL string `toml:"api_url"`

	// Editor is the editor used by `vt val create/edit` (defaults to $EDITOR, then vim).
	Editor string `toml:"editor"`

	// TimeoutSeconds bounds every HTTP request. Zero means 30 seconds.
	TimeoutSeconds int `toml:"timeout_seconds"`

	Sync SyncConfig `toml:"sync"`
	UI   UIConfig   `toml:"ui"`
	Log  LogConfig  `toml:"log"`
}

// SyncConfig holds defaults for `vt sync`.
type SyncConfig struct {
	// Dir is the workspace directory used when --dir is not given.
	Dir string `toml:"dir"`

	// Extension is the script file extension, without the dot.
	Extension string `toml:"extension"`

	// EnvFile is the env file path, relative to the workspace.
	EnvFile string `toml:"env_file"`

	// Ignore holds glob patterns for script files that are never pushed.
	Ignore []string `toml:"ignore"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Chroma theme used for highlighted code.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// LoadAllowMissing loads path, or returns an empty config when it does not exist.
func LoadAllowMissing(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/vt/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if xdgPath, err := XDGPath(); err == nil {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "vt", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/vt/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vt", "config.toml"), nil
}

// ResolvePath returns explicit when set, else DefaultPath.
func ResolvePath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	return DefaultPath()
}

const defaultConfig = `# vt configuration

# API token (VALTOWN_TOKEN wins when set)
# token = ""

# api_url = "https://api.val.town"
# editor = "nvim"
# timeout_seconds = 30

# [sync]
# dir = "~/vals"
# extension = "tsx"
# env_file = ".env"
# ignore = ["scratch_*"]

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "#A78BFA"
# code_theme = "monokai"

# [log]
# level = "warn"
# file = ""
`

// CreateDefaultAt writes a commented default config to path unless one exists.
func CreateDefaultAt(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// GetEditor returns the editor to use, falling back to $EDITOR and then vim.
func (c *Config) GetEditor() string {
	if c.Editor != "" {
		return c.Editor
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return DefaultEditor
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return api.DefaultTimeout
}

// ResolveAPIURL returns the API base URL: VALTOWN_API_URL, then API_URL,
// then api_url from the config, then the public API.
func (c *Config) ResolveAPIURL() string {
	for _, key := range []string{"VALTOWN_API_URL", "API_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(c.APIURL); v != "" {
		return v
	}
	return api.DefaultBaseURL
}

// ExtensionOrDefault returns the sync extension without a leading dot.
func (s SyncConfig) ExtensionOrDefault() string {
	ext := strings.TrimPrefix(strings.TrimSpace(s.Extension), ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// EnvFileOrDefault returns the env file path relative to the workspace.
func (s SyncConfig) EnvFileOrDefault() string {
	if v := strings.TrimSpace(s.EnvFile); v != "" {
		return v
	}
	return DefaultEnvFile
}

// DirOrDefault returns the workspace directory with a leading ~ expanded.
func (s SyncConfig) DirOrDefault() string {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return "."
	}
	return expandHome(dir)
}

// LevelOrDefault returns the configured log level.
func (l LogConfig) LevelOrDefault() string {
	if v := strings.TrimSpace(l.Level); v != "" {
		return v
	}
	return DefaultLogLevel
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
