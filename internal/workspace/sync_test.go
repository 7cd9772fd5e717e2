package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/envfile"
	"github.com/pomdtr/vt/internal/lockfile"
)

// newWorkspace creates a workspace directory holding lock and returns
// options wired to remote and p.
func newWorkspace(t *testing.T, lock lockfile.LockFile, remote *fakeRemote, p *prompter) Options {
	t.Helper()

	dir := t.TempDir()
	opts := Layout(dir, "tsx", "")
	opts.Remote = remote
	opts.Confirm = p.confirm
	if lock != nil {
		if err := lockfile.Save(opts.LockPath, lock); err != nil {
			t.Fatalf("write lock: %v", err)
		}
	}
	return opts
}

func writeScript(t *testing.T, opts Options, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(opts.ScriptsDir, file), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
}

func readScript(t *testing.T, opts Options, file string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(opts.ScriptsDir, file))
	if err != nil {
		t.Fatalf("read %s: %v", file, err)
	}
	return string(data)
}

func loadLock(t *testing.T, opts Options) lockfile.LockFile {
	t.Helper()
	lock, err := lockfile.Load(opts.LockPath)
	if err != nil {
		t.Fatalf("load lock: %v", err)
	}
	return lock
}

func readBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func runSync(t *testing.T, opts Options) *Result {
	t.Helper()
	res, err := Sync(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	return res
}

func TestSyncPullsRemoteValIntoEmptyWorkspace(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.seed("r1", "hello", "print(1)")
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{})

	res := runSync(t, opts)

	if got := readScript(t, opts, "hello.tsx"); got != "print(1)" {
		t.Fatalf("hello.tsx = %q, want print(1)", got)
	}
	want := lockfile.LockFile{
		"hello.tsx": {ID: "r1", Name: "hello", Hash: lockfile.Hash("print(1)")},
	}
	if got := loadLock(t, opts); !reflect.DeepEqual(got, want) {
		t.Fatalf("lock = %#v, want %#v", got, want)
	}
	wantJSON := "{\n  \"hello.tsx\": {\n    \"id\": \"r1\",\n    \"name\": \"hello\",\n    \"hash\": \"" +
		lockfile.Hash("print(1)") + "\"\n  }\n}\n"
	if got := string(readBytes(t, opts.LockPath)); got != wantJSON {
		t.Fatalf("lock file =\n%s\nwant\n%s", got, wantJSON)
	}
	if res.Count(Pulled) != 1 {
		t.Fatalf("pulled = %d, want 1", res.Count(Pulled))
	}
	if remote.mutations() != 0 {
		t.Fatalf("mutating calls = %d, want 0", remote.mutations())
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.seed("r1", "remote", "export const a = 1")
	remote.env["TOKEN"] = "abc"
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{answer: true})
	opts.EnvPath = filepath.Join(opts.ScriptsDir, ".env")
	writeScript(t, opts, "local.tsx", "export const b = 2")

	first := runSync(t, opts)
	if first.Count(Created) != 1 || first.Count(Pulled) != 1 || !first.EnvUpdated {
		t.Fatalf("first sync = %+v", first)
	}
	lockAfterFirst := readBytes(t, opts.LockPath)
	envAfterFirst := readBytes(t, opts.EnvPath)

	remote.resetCalls()
	second := runSync(t, opts)

	if remote.mutations() != 0 {
		t.Fatalf("second sync made %d mutating calls, want 0", remote.mutations())
	}
	if !second.Empty() {
		t.Fatalf("second sync changes = %+v", second.Changes)
	}
	if got := readBytes(t, opts.LockPath); string(got) != string(lockAfterFirst) {
		t.Fatalf("lock changed:\n%s\nwas\n%s", got, lockAfterFirst)
	}
	if got := readBytes(t, opts.EnvPath); string(got) != string(envAfterFirst) {
		t.Fatalf("env file changed")
	}
}

func TestSyncRoundTrip(t *testing.T) {
	t.Parallel()

	const code = "export default function handler() {\n  return new Response(\"hi\");\n}\n"
	remote := newFakeRemote()

	pusher := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{answer: true})
	writeScript(t, pusher, "greet.tsx", code)
	if res := runSync(t, pusher); res.Count(Created) != 1 {
		t.Fatalf("created = %d, want 1", res.Count(Created))
	}

	clone := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{})
	runSync(t, clone)

	if got := readScript(t, clone, "greet.tsx"); got != code {
		t.Fatalf("cloned content = %q, want %q", got, code)
	}
	if !reflect.DeepEqual(loadLock(t, clone), loadLock(t, pusher)) {
		t.Fatalf("clone lock = %v, want %v", loadLock(t, clone), loadLock(t, pusher))
	}
}

func TestSyncPropagatesRemoteRename(t *testing.T) {
	t.Parallel()

	const code = "export const x = 1"
	remote := newFakeRemote()
	remote.seed("X", "bar", code)
	p := &prompter{}
	opts := newWorkspace(t, lockfile.LockFile{
		"foo.tsx": {ID: "X", Name: "foo", Hash: lockfile.Hash(code)},
	}, remote, p)
	writeScript(t, opts, "foo.tsx", code)

	res := runSync(t, opts)

	if _, err := os.Stat(filepath.Join(opts.ScriptsDir, "foo.tsx")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("foo.tsx still exists, err = %v", err)
	}
	if got := readScript(t, opts, "bar.tsx"); got != code {
		t.Fatalf("bar.tsx = %q", got)
	}
	want := lockfile.LockFile{"bar.tsx": {ID: "X", Name: "bar", Hash: lockfile.Hash(code)}}
	if got := loadLock(t, opts); !reflect.DeepEqual(got, want) {
		t.Fatalf("lock = %#v, want %#v", got, want)
	}
	if res.Count(Renamed) != 1 {
		t.Fatalf("renamed = %d, want 1", res.Count(Renamed))
	}
	if len(p.prompts) != 0 {
		t.Fatalf("unexpected prompts: %v", p.prompts)
	}
}

func TestSyncRenameSkipsTrackedTarget(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.seed("X", "taken", "x")
	remote.seed("Y", "taken2", "y")
	opts := newWorkspace(t, lockfile.LockFile{
		"old.tsx":   {ID: "X", Name: "old", Hash: lockfile.Hash("x")},
		"taken.tsx": {ID: "Y", Name: "taken", Hash: lockfile.Hash("y")},
	}, remote, &prompter{})
	writeScript(t, opts, "old.tsx", "x")
	writeScript(t, opts, "taken.tsx", "y")

	// X is listed first, so its rename to taken.tsx collides with Y's entry
	// before Y moves out of the way.
	res := runSync(t, opts)

	if res.Count(Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1 (changes %+v)", res.Count(Skipped), res.Changes)
	}
	if got := readScript(t, opts, "old.tsx"); got != "x" {
		t.Fatalf("old.tsx = %q, want untouched", got)
	}
}

func TestSyncDeletionGating(t *testing.T) {
	t.Parallel()

	for _, confirm := range []bool{false, true} {
		remote := newFakeRemote()
		remote.seed("g", "gone", "bye")
		p := &prompter{answer: confirm}
		entry := lockfile.Entry{ID: "g", Name: "gone", Hash: lockfile.Hash("bye")}
		opts := newWorkspace(t, lockfile.LockFile{"gone.tsx": entry}, remote, p)

		runSync(t, opts)

		wantPrompt := []string{"Val gone was deleted. Delete it remotely?"}
		if !reflect.DeepEqual(p.prompts, wantPrompt) {
			t.Fatalf("confirm=%v prompts = %v, want %v", confirm, p.prompts, wantPrompt)
		}

		lock := loadLock(t, opts)
		if confirm {
			if _, ok := lock["gone.tsx"]; ok {
				t.Fatalf("confirmed deletion left entry: %v", lock)
			}
			if remote.count("DeleteVal") != 1 {
				t.Fatalf("DeleteVal calls = %d, want 1", remote.count("DeleteVal"))
			}
			if _, err := os.Stat(filepath.Join(opts.ScriptsDir, "gone.tsx")); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("deleted val was pulled back, err = %v", err)
			}
			continue
		}

		if got := lock["gone.tsx"]; got != entry {
			t.Fatalf("declined deletion changed entry: %+v", got)
		}
		if remote.count("DeleteVal") != 0 {
			t.Fatalf("DeleteVal calls = %d, want 0", remote.count("DeleteVal"))
		}
	}
}

func TestSyncLocalWinsOnConflict(t *testing.T) {
	t.Parallel()

	const base, localEdit, remoteEdit = "v0", "local change", "remote change"
	remote := newFakeRemote()
	remote.seed("a", "a", base)
	remote.edit("a", "a", remoteEdit)
	p := &prompter{answer: true}
	opts := newWorkspace(t, lockfile.LockFile{
		"a.tsx": {ID: "a", Name: "a", Hash: lockfile.Hash(base)},
	}, remote, p)
	writeScript(t, opts, "a.tsx", localEdit)

	res := runSync(t, opts)

	if remote.code("a") != localEdit {
		t.Fatalf("remote code = %q, want local edit to win", remote.code("a"))
	}
	if got := readScript(t, opts, "a.tsx"); got != localEdit {
		t.Fatalf("a.tsx = %q, want local edit kept", got)
	}
	if res.Count(Pushed) != 1 || res.Count(Updated) != 0 {
		t.Fatalf("changes = %+v", res.Changes)
	}
	if len(p.prompts) != 0 {
		t.Fatalf("remote pass prompted: %v", p.prompts)
	}
	if got := loadLock(t, opts)["a.tsx"].Hash; got != lockfile.Hash(localEdit) {
		t.Fatalf("lock hash = %s, want hash of local edit", got)
	}
}

func TestSyncRemoteUpdateNeedsConfirmation(t *testing.T) {
	t.Parallel()

	for _, confirm := range []bool{false, true} {
		remote := newFakeRemote()
		remote.seed("a", "a", "new")
		p := &prompter{answer: confirm}
		opts := newWorkspace(t, lockfile.LockFile{
			"a.tsx": {ID: "a", Name: "a", Hash: lockfile.Hash("old")},
		}, remote, p)
		writeScript(t, opts, "a.tsx", "old")

		var previews []string
		opts.Preview = func(file, local, remote string) {
			previews = append(previews, file+":"+local+"->"+remote)
		}

		runSync(t, opts)

		if !reflect.DeepEqual(p.prompts, []string{"Update a.tsx?"}) {
			t.Fatalf("prompts = %v", p.prompts)
		}
		if !reflect.DeepEqual(previews, []string{"a.tsx:old->new"}) {
			t.Fatalf("previews = %v", previews)
		}

		wantContent, wantHash, wantGets := "old", lockfile.Hash("old"), 0
		if confirm {
			wantContent, wantHash, wantGets = "new", lockfile.Hash("new"), 1
		}
		if got := readScript(t, opts, "a.tsx"); got != wantContent {
			t.Fatalf("confirm=%v a.tsx = %q, want %q", confirm, got, wantContent)
		}
		if got := loadLock(t, opts)["a.tsx"].Hash; got != wantHash {
			t.Fatalf("confirm=%v lock hash = %s", confirm, got)
		}
		if remote.count("GetVal") != wantGets {
			t.Fatalf("confirm=%v GetVal calls = %d, want %d", confirm, remote.count("GetVal"), wantGets)
		}
	}
}

func TestSyncMissingLockFile(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	opts := newWorkspace(t, nil, remote, &prompter{answer: true})
	writeScript(t, opts, "a.tsx", "x")

	_, err := Sync(context.Background(), opts)
	if !errors.Is(err, lockfile.ErrMissing) {
		t.Fatalf("Sync() error = %v, want ErrMissing", err)
	}
	if len(remote.calls) != 0 {
		t.Fatalf("remote calls = %v, want none", remote.calls)
	}
}

func TestSyncPushFailureDoesNotPersistLock(t *testing.T) {
	t.Parallel()

	pushErr := errors.New("network down")
	remote := newFakeRemote()
	remote.seed("b", "b", "v0")
	remote.failVersion = pushErr
	opts := newWorkspace(t, lockfile.LockFile{
		"b.tsx": {ID: "b", Name: "b", Hash: lockfile.Hash("v0")},
	}, remote, &prompter{answer: true})
	writeScript(t, opts, "a_new.tsx", "created before the failure")
	writeScript(t, opts, "b.tsx", "v1")
	before := readBytes(t, opts.LockPath)

	_, err := Sync(context.Background(), opts)
	if !errors.Is(err, pushErr) {
		t.Fatalf("Sync() error = %v, want push error", err)
	}
	if got := readBytes(t, opts.LockPath); string(got) != string(before) {
		t.Fatalf("lock file changed after failure:\n%s", got)
	}
	if remote.count("CreateVal") != 1 {
		t.Fatalf("CreateVal calls = %d, want 1 (earlier progress is not rolled back)", remote.count("CreateVal"))
	}
	if remote.count("ListUserVals") != 0 {
		t.Fatalf("remote pass ran after a fatal push error")
	}
}

func TestSyncPushToVanishedValNamesStaleEntry(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	opts := newWorkspace(t, lockfile.LockFile{
		"gone.tsx": {ID: "g", Name: "gone", Hash: lockfile.Hash("v0")},
	}, remote, &prompter{answer: true})
	writeScript(t, opts, "gone.tsx", "edited after the remote delete")
	before := readBytes(t, opts.LockPath)

	_, err := Sync(context.Background(), opts)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Fatalf("Sync() error = %v, want a 404 api error", err)
	}
	if !strings.Contains(err.Error(), `remove "gone.tsx" from vt.lock`) {
		t.Fatalf("error %q does not name the stale lock entry", err)
	}
	if got := readBytes(t, opts.LockPath); string(got) != string(before) {
		t.Fatalf("lock file changed after failure:\n%s", got)
	}
}

func TestSyncReconcilesEnvFile(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.env = map[string]string{"API_KEY": "k-123", "GREETING": "hello world"}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{})
	opts.EnvPath = filepath.Join(opts.ScriptsDir, ".env")

	res := runSync(t, opts)
	if !res.EnvUpdated {
		t.Fatal("expected env file to be written")
	}
	got, err := envfile.Read(opts.EnvPath)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	if !envfile.Equal(got, remote.env) {
		t.Fatalf("env = %v, want %v", got, remote.env)
	}

	if res := runSync(t, opts); res.EnvUpdated {
		t.Fatal("unchanged env was rewritten")
	}

	remote.env["API_KEY"] = "rotated"
	if res := runSync(t, opts); !res.EnvUpdated {
		t.Fatal("changed env was not rewritten")
	}
	got, _ = envfile.Read(opts.EnvPath)
	if got["API_KEY"] != "rotated" {
		t.Fatalf("API_KEY = %q, want rotated", got["API_KEY"])
	}
}

func TestSyncEnvWithEscapingConverges(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.env = map[string]string{
		"WIN_DIR":   `C:\tools\`,
		"BACKSLASH": `\`,
		"MULTILINE": "-----BEGIN KEY-----\nabc\n-----END KEY-----",
		"QUOTED":    `say "it's" ${HOME} # here`,
		"A-B":       "key gotenv cannot read",
	}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{answer: true})
	opts.EnvPath = filepath.Join(opts.ScriptsDir, ".env")

	if res := runSync(t, opts); !res.EnvUpdated {
		t.Fatal("expected env file to be written")
	}
	got, err := envfile.Read(opts.EnvPath)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	want := map[string]string{}
	for k, v := range remote.env {
		if k != "A-B" {
			want[k] = v
		}
	}
	if !envfile.Equal(got, want) {
		t.Fatalf("env = %#v, want %#v", got, want)
	}

	writeScript(t, opts, "later.tsx", "export default 1")
	res := runSync(t, opts)
	if res.EnvUpdated {
		t.Fatal("unchanged env was rewritten")
	}
	if _, ok := loadLock(t, opts)["later.tsx"]; !ok {
		t.Fatal("second sync did not persist the lock")
	}
}

func TestSyncRewritesUnreadableEnvFile(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.env = map[string]string{"TOKEN": "abc"}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{})
	opts.EnvPath = filepath.Join(opts.ScriptsDir, ".env")
	if err := os.WriteFile(opts.EnvPath, []byte("TOKEN='unterminated\\'\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	if res := runSync(t, opts); !res.EnvUpdated {
		t.Fatal("expected unreadable env file to be rewritten")
	}
	got, err := envfile.Read(opts.EnvPath)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	if !envfile.Equal(got, remote.env) {
		t.Fatalf("env = %v, want %v", got, remote.env)
	}
}

func TestSyncWithoutEnvPathSkipsEnv(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	opts := newWorkspace(t, lockfile.LockFile{}, remote, &prompter{})
	runSync(t, opts)
	if remote.count("Env") != 0 {
		t.Fatalf("Env calls = %d, want 0", remote.count("Env"))
	}
}

func TestSyncDeclinedCreateStaysUnmapped(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	p := &prompter{answer: false}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, p)
	writeScript(t, opts, "draft.tsx", "wip")

	res := runSync(t, opts)

	if !reflect.DeepEqual(p.prompts, []string{"Create draft.tsx remotely?"}) {
		t.Fatalf("prompts = %v", p.prompts)
	}
	if res.Count(Declined) != 1 || remote.count("CreateVal") != 0 {
		t.Fatalf("changes = %+v, CreateVal = %d", res.Changes, remote.count("CreateVal"))
	}
	if len(loadLock(t, opts)) != 0 {
		t.Fatalf("lock = %v, want empty", loadLock(t, opts))
	}
}

func TestSyncIgnoresMatchingFiles(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	p := &prompter{answer: true}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, p)
	opts.Ignore = []string{"scratch_*"}
	writeScript(t, opts, "scratch_test.tsx", "tmp")
	writeScript(t, opts, "keep.tsx", "real")
	writeScript(t, opts, "notes.md", "not a script")

	runSync(t, opts)

	if !reflect.DeepEqual(p.prompts, []string{"Create keep.tsx remotely?"}) {
		t.Fatalf("prompts = %v", p.prompts)
	}
}

func TestSyncInvalidIgnorePattern(t *testing.T) {
	t.Parallel()

	opts := newWorkspace(t, lockfile.LockFile{}, newFakeRemote(), &prompter{})
	opts.Ignore = []string{"[unclosed"}
	if _, err := Sync(context.Background(), opts); err == nil {
		t.Fatal("expected error for invalid ignore pattern")
	}
}

func TestSyncExistingUnmappedFileAsksBeforeOverwrite(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.seed("r1", "hello", "remote code")
	// Declining the create prompt leaves hello.tsx unmapped; the remote pass
	// then asks before overwriting it.
	p := &prompter{answer: false}
	opts := newWorkspace(t, lockfile.LockFile{}, remote, p)
	writeScript(t, opts, "hello.tsx", "local code")

	runSync(t, opts)

	want := []string{
		"Create hello.tsx remotely?",
		"hello.tsx already exists locally. Overwrite it with remote val hello?",
	}
	if !reflect.DeepEqual(p.prompts, want) {
		t.Fatalf("prompts = %v, want %v", p.prompts, want)
	}
	if got := readScript(t, opts, "hello.tsx"); got != "local code" {
		t.Fatalf("hello.tsx = %q, want local code kept", got)
	}
}

func TestSyncForgetsValsDeletedRemotely(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	opts := newWorkspace(t, lockfile.LockFile{
		"orphan.tsx": {ID: "dead", Name: "orphan", Hash: lockfile.Hash("x")},
	}, remote, &prompter{})
	writeScript(t, opts, "orphan.tsx", "x")

	res := runSync(t, opts)

	if res.Count(Forgotten) != 1 {
		t.Fatalf("forgotten = %d, want 1", res.Count(Forgotten))
	}
	if len(loadLock(t, opts)) != 0 {
		t.Fatalf("lock = %v, want empty", loadLock(t, opts))
	}
	if got := readScript(t, opts, "orphan.tsx"); got != "x" {
		t.Fatalf("orphan.tsx = %q, want file kept", got)
	}
}
