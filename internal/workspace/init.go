package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pomdtr/vt/internal/lockfile"
)

const readmeTemplate = `# vals

This directory is synchronized with your vals by ` + "`vt sync`" + `.

- Each val is a file named ` + "`{name}.%s`" + `. Create a file to create a val,
  delete it to delete the val, edit it to push a new version.
- ` + "`vt.lock`" + ` maps files to vals and records the content last synchronized.
  Do not edit it by hand.
- The env file mirrors your remote environment variables and is overwritten on
  every sync.
`

// Init prepares dir as a workspace: it creates the directory, an empty
// vt.lock and a README.md when none exists. It returns ErrAlreadyInitialized
// when dir already has a lock file.
func Init(dir, ext string) (string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace directory: %w", err)
	}

	lockPath := filepath.Join(dir, lockfile.Filename)
	if err := lockfile.Create(lockPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyInitialized, lockPath)
		}
		return "", err
	}

	readme := filepath.Join(dir, "README.md")
	if _, err := os.Stat(readme); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(readme, []byte(fmt.Sprintf(readmeTemplate, ext)), 0o644); err != nil {
			return "", fmt.Errorf("write README.md: %w", err)
		}
	}
	return lockPath, nil
}
