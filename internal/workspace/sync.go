package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/atomicfile"
	"github.com/pomdtr/vt/internal/envfile"
	"github.com/pomdtr/vt/internal/lockfile"
)

type syncer struct {
	opts   Options
	lock   lockfile.LockFile
	result *Result

	// created holds ids of vals created during this run; the remote listing
	// may not include them yet.
	created map[string]bool
}

// Sync runs one two-way reconciliation. Any error aborts the run before the
// lock file is written; actions already applied remotely are not rolled back,
// and rerunning converges because unchanged content is skipped by hash.
func Sync(ctx context.Context, opts Options) (*Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	lock, err := lockfile.Load(opts.LockPath)
	if err != nil {
		return nil, err
	}

	s := &syncer{
		opts:    opts,
		lock:    lock,
		result:  &Result{},
		created: map[string]bool{},
	}

	if err := s.pushLocal(ctx); err != nil {
		return nil, err
	}
	if err := s.detectDeletions(ctx); err != nil {
		return nil, err
	}
	if err := s.pullRemote(ctx); err != nil {
		return nil, err
	}
	if err := s.reconcileEnv(ctx); err != nil {
		return nil, err
	}

	if err := lockfile.Save(opts.LockPath, s.lock); err != nil {
		return nil, err
	}
	return s.result, nil
}

func (s *syncer) path(filename string) string {
	return filepath.Join(s.opts.ScriptsDir, filename)
}

// localFiles lists script files directly under ScriptsDir, sorted by name.
func (s *syncer) localFiles() ([]string, error) {
	entries, err := os.ReadDir(s.opts.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("read scripts directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := lockfile.NameFromFile(e.Name(), s.opts.Extension); !ok {
			continue
		}
		if s.opts.ignored(e.Name()) {
			s.opts.Logger.Debug("ignored", "file", e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

// pushLocal creates vals for unmapped files and pushes changed files as new versions.
func (s *syncer) pushLocal(ctx context.Context) error {
	files, err := s.localFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := os.ReadFile(s.path(file))
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		code := string(data)
		hash := lockfile.Hash(code)

		entry, ok := s.lock[file]
		if !ok {
			if !s.opts.Confirm(fmt.Sprintf("Create %s remotely?", file)) {
				s.result.add(Declined, file, "create")
				continue
			}
			name, _ := lockfile.NameFromFile(file, s.opts.Extension)
			val, err := s.opts.Remote.CreateVal(ctx, name, code)
			if err != nil {
				return fmt.Errorf("create val %s: %w", name, err)
			}
			// Keep the local name; if the server picked another one the
			// remote pass renames the file to match.
			s.lock[file] = lockfile.Entry{ID: val.ID, Name: name, Hash: hash}
			s.created[val.ID] = true
			s.result.add(Created, file, "")
			s.opts.Logger.Info("created val", "file", file, "id", val.ID)
			continue
		}

		if entry.Hash == hash {
			s.opts.Logger.Debug("unchanged", "file", file)
			continue
		}

		if err := s.opts.Remote.CreateVersion(ctx, entry.ID, code); err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				return fmt.Errorf("push %s: val %s no longer exists remotely; remove %q from %s to create it again: %w",
					file, entry.ID, file, filepath.Base(s.opts.LockPath), err)
			}
			return fmt.Errorf("push %s: %w", file, err)
		}
		entry.Hash = hash
		s.lock[file] = entry
		s.result.add(Pushed, file, "")
		s.opts.Logger.Info("pushed version", "file", file, "id", entry.ID)
	}
	return nil
}

// detectDeletions offers to delete vals whose local file is gone.
func (s *syncer) detectDeletions(ctx context.Context) error {
	for _, file := range s.lock.Filenames() {
		entry := s.lock[file]
		_, err := os.Stat(s.path(file))
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", file, err)
		}

		if !s.opts.Confirm(fmt.Sprintf("Val %s was deleted. Delete it remotely?", entry.Name)) {
			s.result.add(Declined, file, "delete")
			continue
		}
		if err := s.opts.Remote.DeleteVal(ctx, entry.ID); err != nil {
			return fmt.Errorf("delete val %s: %w", entry.Name, err)
		}
		delete(s.lock, file)
		s.result.add(Deleted, file, "")
		s.opts.Logger.Info("deleted val", "name", entry.Name, "id", entry.ID)
	}
	return nil
}

// pullRemote writes new remote vals, offers remote content changes and
// follows remote renames.
func (s *syncer) pullRemote(ctx context.Context) error {
	user, err := s.opts.Remote.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch current user: %w", err)
	}
	vals, err := s.opts.Remote.ListUserVals(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list vals: %w", err)
	}

	listed := make(map[string]bool, len(vals))
	for _, val := range vals {
		listed[val.ID] = true

		key, entry, ok := s.lock.FindByID(val.ID)
		if !ok {
			if err := s.pullNew(val.ID, val.Name, val.Code); err != nil {
				return err
			}
			continue
		}

		if lockfile.Hash(val.Code) != entry.Hash {
			updated, err := s.pullUpdate(ctx, key, entry, val.ID, val.Code)
			if err != nil {
				return err
			}
			entry = updated
		}

		if val.Name != entry.Name {
			if err := s.rename(key, entry, val.Name); err != nil {
				return err
			}
		}
	}

	s.forgetVanished(listed)
	return nil
}

func (s *syncer) pullNew(id, name, code string) error {
	file := lockfile.FileName(name, s.opts.Extension)
	if other, taken := s.lock[file]; taken {
		s.result.add(Skipped, file, fmt.Sprintf("lock entry already maps it to val %s", other.ID))
		s.opts.Logger.Warn("skipping remote val, filename already tracked", "file", file, "id", id, "tracked", other.ID)
		return nil
	}

	if _, err := os.Stat(s.path(file)); err == nil {
		prompt := fmt.Sprintf("%s already exists locally. Overwrite it with remote val %s?", file, name)
		if !s.opts.Confirm(prompt) {
			s.result.add(Declined, file, "overwrite")
			return nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", file, err)
	}

	if err := atomicfile.WriteFile(s.path(file), []byte(code), 0); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	s.lock[file] = lockfile.Entry{ID: id, Name: name, Hash: lockfile.Hash(code)}
	s.result.add(Pulled, file, "")
	s.opts.Logger.Info("pulled val", "file", file, "id", id)
	return nil
}

func (s *syncer) pullUpdate(ctx context.Context, key string, entry lockfile.Entry, id, listedCode string) (lockfile.Entry, error) {
	if s.opts.Preview != nil {
		local, err := os.ReadFile(s.path(key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return entry, fmt.Errorf("read %s: %w", key, err)
		}
		s.opts.Preview(key, string(local), listedCode)
	}

	if !s.opts.Confirm(fmt.Sprintf("Update %s?", key)) {
		s.result.add(Declined, key, "update")
		return entry, nil
	}

	fresh, err := s.opts.Remote.GetVal(ctx, id)
	if err != nil {
		return entry, fmt.Errorf("fetch val %s: %w", entry.Name, err)
	}
	if err := atomicfile.WriteFile(s.path(key), []byte(fresh.Code), 0); err != nil {
		return entry, fmt.Errorf("write %s: %w", key, err)
	}
	entry.Hash = lockfile.Hash(fresh.Code)
	s.lock[key] = entry
	s.result.add(Updated, key, "")
	s.opts.Logger.Info("updated file", "file", key, "id", id)
	return entry, nil
}

func (s *syncer) rename(key string, entry lockfile.Entry, newName string) error {
	newKey := lockfile.FileName(newName, s.opts.Extension)
	if newKey == key {
		entry.Name = newName
		s.lock[key] = entry
		return nil
	}

	if other, taken := s.lock[newKey]; taken {
		s.result.add(Skipped, key, fmt.Sprintf("cannot rename to %s, already tracked as val %s", newKey, other.ID))
		s.opts.Logger.Warn("skipping rename, target already tracked", "from", key, "to", newKey)
		return nil
	}
	if _, err := os.Stat(s.path(newKey)); err == nil {
		s.result.add(Skipped, key, fmt.Sprintf("cannot rename to %s, file exists", newKey))
		s.opts.Logger.Warn("skipping rename, target file exists", "from", key, "to", newKey)
		return nil
	}

	if err := os.Rename(s.path(key), s.path(newKey)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("rename %s to %s: %w", key, newKey, err)
	}
	delete(s.lock, key)
	entry.Name = newName
	s.lock[newKey] = entry
	s.result.add(Renamed, newKey, "from "+key)
	s.opts.Logger.Info("renamed file", "from", key, "to", newKey)
	return nil
}

// forgetVanished drops lock entries for vals that no longer exist remotely.
// A local file left behind becomes unmapped and is offered for creation on
// the next sync.
func (s *syncer) forgetVanished(listed map[string]bool) {
	for _, file := range s.lock.Filenames() {
		entry := s.lock[file]
		if listed[entry.ID] || s.created[entry.ID] {
			continue
		}
		delete(s.lock, file)
		s.result.add(Forgotten, file, "val "+entry.ID+" no longer exists")
		s.opts.Logger.Info("forgot vanished val", "file", file, "id", entry.ID)
	}
}

// reconcileEnv rewrites the env file when it differs from the remote environment.
func (s *syncer) reconcileEnv(ctx context.Context) error {
	if strings.TrimSpace(s.opts.EnvPath) == "" {
		return nil
	}

	all, err := s.opts.Remote.Env(ctx)
	if err != nil {
		return fmt.Errorf("fetch env: %w", err)
	}
	remote, skipped := envfile.Portable(all)
	for _, key := range skipped {
		s.opts.Logger.Warn("env var cannot be written to the env file", "key", key)
	}

	if _, err := os.Stat(s.opts.EnvPath); err == nil {
		local, err := envfile.Read(s.opts.EnvPath)
		switch {
		case err != nil:
			s.opts.Logger.Warn("rewriting unreadable env file", "path", s.opts.EnvPath, "err", err)
		case envfile.Equal(local, remote):
			return nil
		}
	}

	if err := envfile.Write(s.opts.EnvPath, remote); err != nil {
		return err
	}
	s.result.EnvUpdated = true
	s.opts.Logger.Info("updated env file", "path", s.opts.EnvPath, "vars", len(remote))
	return nil
}
