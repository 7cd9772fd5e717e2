// Package lockfile reads and writes vt.lock, the manifest that maps local
// script filenames to the remote val they were last synchronized with.
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pomdtr/vt/internal/atomicfile"
)

// Filename is the lock file name at the root of a workspace.
const Filename = "vt.lock"

// ErrMissing is returned by Load when the lock file does not exist.
var ErrMissing = errors.New("lock file not found")

// Entry records the remote identity and last synchronized content hash of a
// local script file.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// LockFile maps a filename (with extension) to its Entry.
type LockFile map[string]Entry

// Hash returns the lowercase hex SHA-256 digest of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// FileName builds the local filename for a val name and extension ("tsx" or ".tsx").
func FileName(name, ext string) string {
	return name + "." + strings.TrimPrefix(ext, ".")
}

// NameFromFile strips the extension from filename. ok is false when the
// filename does not carry the extension.
func NameFromFile(filename, ext string) (name string, ok bool) {
	suffix := "." + strings.TrimPrefix(ext, ".")
	if !strings.HasSuffix(filename, suffix) || len(filename) == len(suffix) {
		return "", false
	}
	return strings.TrimSuffix(filename, suffix), true
}

// Load reads the lock file at path.
func Load(path string) (LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("read lock file: %w", err)
	}

	lock := LockFile{}
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse lock file %s: %w", path, err)
	}
	if lock == nil {
		// A literal "null" decodes to a nil map.
		lock = LockFile{}
	}
	return lock, nil
}

// Save replaces the lock file at path with the full contents of lock.
func Save(path string, lock LockFile) error {
	if lock == nil {
		lock = LockFile{}
	}
	if err := atomicfile.WriteJSON(path, lock, 0o644); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	return nil
}

// Create writes an empty lock file. It fails if one already exists.
func Create(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("{}\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FindByID returns the filename and entry referencing the remote id.
func (l LockFile) FindByID(id string) (string, Entry, bool) {
	for filename, entry := range l {
		if entry.ID == id {
			return filename, entry, true
		}
	}
	return "", Entry{}, false
}

// Filenames returns the keys in sorted order.
func (l LockFile) Filenames() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
