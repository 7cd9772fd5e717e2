package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pomdtr/vt/internal/atomicfile"
)

type persistedConfig struct {
	Token          *string                `toml:"token,omitempty"`
	APIURL         *string                `toml:"api_url,omitempty"`
	Editor         *string                `toml:"editor,omitempty"`
	TimeoutSeconds *int                   `toml:"timeout_seconds,omitempty"`
	Sync           *persistedSyncSettings `toml:"sync,omitempty"`
	UI             *persistedUISettings   `toml:"ui,omitempty"`
	Log            *persistedLogSettings  `toml:"log,omitempty"`
}

type persistedSyncSettings struct {
	Dir       *string  `toml:"dir,omitempty"`
	Extension *string  `toml:"extension,omitempty"`
	EnvFile   *string  `toml:"env_file,omitempty"`
	Ignore    []string `toml:"ignore,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

type persistedLogSettings struct {
	Level *string `toml:"level,omitempty"`
	File  *string `toml:"file,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the global config to a specific path atomically. Empty
// values are omitted so the file stays minimal.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		Token:  nonEmptyPtr(cfg.Token),
		APIURL: nonEmptyPtr(cfg.APIURL),
		Editor: nonEmptyPtr(cfg.Editor),
	}
	if cfg.TimeoutSeconds > 0 {
		timeout := cfg.TimeoutSeconds
		out.TimeoutSeconds = &timeout
	}

	syncOut := persistedSyncSettings{
		Dir:       nonEmptyPtr(cfg.Sync.Dir),
		Extension: nonEmptyPtr(cfg.Sync.Extension),
		EnvFile:   nonEmptyPtr(cfg.Sync.EnvFile),
		Ignore:    cfg.Sync.Ignore,
	}
	if syncOut.Dir != nil || syncOut.Extension != nil || syncOut.EnvFile != nil || len(syncOut.Ignore) > 0 {
		out.Sync = &syncOut
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	level := nonEmptyPtr(cfg.Log.Level)
	file := nonEmptyPtr(cfg.Log.File)
	if level != nil || file != nil {
		out.Log = &persistedLogSettings{Level: level, File: file}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold a token.
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
