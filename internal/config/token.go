package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnv is the environment variable holding the API token.
const TokenEnv = "VALTOWN_TOKEN"

// ErrNoToken is returned when no API token is configured anywhere.
var ErrNoToken = errors.New("no API token: set " + TokenEnv + " or add token to the config file")

// LegacyTokenPath returns ~/.config/vt/api_token, the plain-text token file
// older releases wrote.
func LegacyTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vt", "api_token")
}

// ResolveToken picks the token from, in order: the --token flag, VALTOWN_TOKEN,
// the config file, and the legacy token file.
func (c *Config) ResolveToken(flagToken string) (string, error) {
	return resolveToken(flagToken, os.Getenv(TokenEnv), c.Token, LegacyTokenPath())
}

func resolveToken(flagToken, envToken, configToken, legacyPath string) (string, error) {
	for _, candidate := range []string{flagToken, envToken, configToken} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v, nil
		}
	}

	if legacyPath != "" {
		data, err := os.ReadFile(legacyPath)
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("read token file: %w", err)
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, nil
		}
	}

	return "", ErrNoToken
}
