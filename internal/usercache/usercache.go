// Package usercache remembers the identity behind an API token so commands
// that only need the current username skip the /v1/me round trip.
package usercache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/atomicfile"
)

// Source fetches the current user from the API.
type Source interface {
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Cache stores one user record per token under Dir.
type Cache struct {
	Dir string
}

// DefaultDir returns <user cache dir>/vt/user.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(base, "vt", "user"), nil
}

// Path returns the cache file for token. The token itself is never written to disk.
func (c *Cache) Path(token string) string {
	sum := sha1.Sum([]byte(token))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:]))
}

// Load returns the cached user for token, asking src and caching the answer on a miss.
// An unreadable cache entry is treated as a miss.
func (c *Cache) Load(ctx context.Context, token string, src Source) (*api.User, error) {
	path := c.Path(token)
	if data, err := os.ReadFile(path); err == nil {
		if user, err := api.DecodeUser(data); err == nil {
			return user, nil
		}
	}

	user, err := src.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write user cache: %w", err)
	}
	return user, nil
}

// Clear forgets the cached user for token.
func (c *Cache) Clear(token string) error {
	if err := os.Remove(c.Path(token)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear user cache: %w", err)
	}
	return nil
}
