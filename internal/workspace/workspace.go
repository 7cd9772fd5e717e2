// Package workspace keeps a local directory of val files in sync with the
// vals of the authenticated account.
//
// A workspace is a directory holding one file per val ({name}.{ext}), a
// vt.lock manifest and an env file. Sync reconciles the three with the remote
// account in a fixed order: local changes are pushed first, then local
// deletions are offered for remote deletion, then remote changes are pulled,
// then the env file is refreshed and the lock file is written.
//
// When a val changed on both sides since the last sync, the local push runs
// first and the remote pass then sees the pushed content as unchanged: local
// always wins and there is no merge.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/lockfile"
)

// DefaultExtension is the script extension used when Options.Extension is empty.
const DefaultExtension = "tsx"

// ErrAlreadyInitialized is returned by Init when the directory already has a lock file.
var ErrAlreadyInitialized = errors.New("workspace already initialized")

// Remote is the part of the API the sync engine needs.
type Remote interface {
	CreateVal(ctx context.Context, name, code string) (*api.Val, error)
	CreateVersion(ctx context.Context, id, code string) error
	DeleteVal(ctx context.Context, id string) error
	CurrentUser(ctx context.Context) (*api.User, error)
	ListUserVals(ctx context.Context, userID string) ([]api.Val, error)
	GetVal(ctx context.Context, id string) (*api.Val, error)
	Env(ctx context.Context) (map[string]string, error)
}

// ConfirmFunc asks the user a yes/no question. Returning false defers the action.
type ConfirmFunc func(prompt string) bool

// AutoAccept answers yes to every prompt.
func AutoAccept(string) bool { return true }

// AutoDecline answers no to every prompt.
func AutoDecline(string) bool { return false }

// Options configures one sync run.
type Options struct {
	// ScriptsDir holds the val files.
	ScriptsDir string
	// LockPath is the vt.lock file. It must exist.
	LockPath string
	// EnvPath is the env file rewritten from the remote environment. Empty skips env reconciliation.
	EnvPath string
	// Extension is the script extension without the dot. Empty means tsx.
	Extension string
	// Ignore holds doublestar patterns; matching local files are never pushed.
	Ignore []string

	Remote  Remote
	Confirm ConfirmFunc // nil declines everything
	Logger  *log.Logger // nil discards

	// Preview, when set, is shown the local and remote code before the
	// "Update <file>?" prompt.
	Preview func(file, local, remote string)
}

// Layout returns Options for the standard workspace layout rooted at dir:
// scripts in dir itself, dir/vt.lock and dir/envFile.
func Layout(dir, ext, envFile string) Options {
	opts := Options{
		ScriptsDir: dir,
		LockPath:   filepath.Join(dir, lockfile.Filename),
		Extension:  ext,
	}
	if envFile != "" {
		if filepath.IsAbs(envFile) {
			opts.EnvPath = envFile
		} else {
			opts.EnvPath = filepath.Join(dir, envFile)
		}
	}
	return opts
}

func (o Options) normalize() (Options, error) {
	if o.Remote == nil {
		return o, fmt.Errorf("remote is required")
	}
	if strings.TrimSpace(o.ScriptsDir) == "" {
		return o, fmt.Errorf("scripts directory is required")
	}
	if strings.TrimSpace(o.LockPath) == "" {
		o.LockPath = filepath.Join(o.ScriptsDir, lockfile.Filename)
	}
	o.Extension = strings.TrimPrefix(strings.TrimSpace(o.Extension), ".")
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	for _, pattern := range o.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return o, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if o.Confirm == nil {
		o.Confirm = AutoDecline
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o, nil
}

func (o Options) ignored(filename string) bool {
	for _, pattern := range o.Ignore {
		if ok, _ := doublestar.Match(pattern, filename); ok {
			return true
		}
	}
	return false
}

// ChangeKind names one kind of sync action.
type ChangeKind string

const (
	Created   ChangeKind = "created"   // local file created as a new val
	Pushed    ChangeKind = "pushed"    // local edit pushed as a new version
	Deleted   ChangeKind = "deleted"   // val deleted after its file was removed
	Pulled    ChangeKind = "pulled"    // new remote val written locally
	Updated   ChangeKind = "updated"   // local file overwritten with remote code
	Renamed   ChangeKind = "renamed"   // local file renamed after a remote rename
	Forgotten ChangeKind = "forgotten" // lock entry dropped for a val that no longer exists
	Declined  ChangeKind = "declined"  // prompt answered no
	Skipped   ChangeKind = "skipped"   // action not possible, see Detail
)

// Change is one action taken (or deferred) by a sync.
type Change struct {
	Kind   ChangeKind
	File   string
	Detail string
}

// Result summarizes a sync run.
type Result struct {
	Changes    []Change
	EnvUpdated bool
}

func (r *Result) add(kind ChangeKind, file, detail string) {
	r.Changes = append(r.Changes, Change{Kind: kind, File: file, Detail: detail})
}

// Count returns how many changes of kind the run recorded.
func (r *Result) Count(kind ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Empty reports whether the run changed nothing locally or remotely.
func (r *Result) Empty() bool {
	for _, c := range r.Changes {
		if c.Kind != Declined && c.Kind != Skipped {
			return false
		}
	}
	return !r.EnvUpdated
}
