package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pomdtr/vt/internal/lockfile"
)

// DefaultDebounce is the quiet period after the last file event before a sync runs.
const DefaultDebounce = 300 * time.Millisecond

// WatchConfig controls Watch.
type WatchConfig struct {
	// Debounce is the quiet period after the last relevant file event. Default 300ms.
	Debounce time.Duration
	// Poll, when positive, also re-syncs on this interval to pick up remote changes.
	Poll time.Duration
	// OnSync is called after every sync attempt.
	OnSync func(*Result, error)
}

// Watch syncs once, then re-syncs whenever a script file in ScriptsDir is
// created, written, removed or renamed. Syncs run one at a time; their errors
// are reported through OnSync and watching continues. A missing lock file
// stops the watch. Watch returns when ctx is cancelled.
func Watch(ctx context.Context, opts Options, cfg WatchConfig) error {
	opts, err := opts.normalize()
	if err != nil {
		return err
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	run := func() error {
		res, err := Sync(ctx, opts)
		if cfg.OnSync != nil {
			cfg.OnSync(res, err)
		}
		if err != nil {
			opts.Logger.Error("sync failed", "err", err)
		}
		if errors.Is(err, lockfile.ErrMissing) {
			return err
		}
		return nil
	}

	if err := run(); err != nil {
		return err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(opts.ScriptsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.ScriptsDir, err)
	}
	opts.Logger.Debug("watching", "dir", opts.ScriptsDir)

	var poll <-chan time.Time
	if cfg.Poll > 0 {
		ticker := time.NewTicker(cfg.Poll)
		defer ticker.Stop()
		poll = ticker.C
	}

	// fire is replaced on every relevant event so only the last one counts.
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !opts.relevant(event) {
				continue
			}
			opts.Logger.Debug("event", "op", event.Op.String(), "file", event.Name)
			fire = time.After(debounce)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("watcher error", "err", err)

		case <-fire:
			fire = nil
			if err := run(); err != nil {
				return err
			}

		case <-poll:
			if fire != nil {
				continue
			}
			if err := run(); err != nil {
				return err
			}
		}
	}
}

// relevant reports whether a file event concerns a tracked script file.
func (o Options) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if _, ok := lockfile.NameFromFile(name, o.Extension); !ok {
		return false
	}
	return !o.ignored(name)
}
