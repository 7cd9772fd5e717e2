package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHashIsStableAndDistinct(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "print(1)", "print(2)", "print(1)\n", "export default 1"}
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		h := Hash(in)
		if h != Hash(in) {
			t.Fatalf("Hash(%q) is not deterministic", in)
		}
		if len(h) != 64 {
			t.Fatalf("Hash(%q) = %q, want 64 hex chars", in, h)
		}
		if prev, ok := seen[h]; ok {
			t.Fatalf("Hash collision between %q and %q", prev, in)
		}
		seen[h] = in
	}

	// Known SHA-256 vector.
	if got := Hash("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("Hash(abc) = %s", got)
	}
}

func TestNameFromFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		ext  string
		name string
		ok   bool
	}{
		{file: "hello.tsx", ext: "tsx", name: "hello", ok: true},
		{file: "hello.tsx", ext: ".tsx", name: "hello", ok: true},
		{file: "hello.ts", ext: "tsx", ok: false},
		{file: ".tsx", ext: "tsx", ok: false},
		{file: "a.b.tsx", ext: "tsx", name: "a.b", ok: true},
	}

	for _, tt := range tests {
		name, ok := NameFromFile(tt.file, tt.ext)
		if ok != tt.ok || name != tt.name {
			t.Errorf("NameFromFile(%q, %q) = (%q, %v), want (%q, %v)", tt.file, tt.ext, name, ok, tt.name, tt.ok)
		}
	}

	if got := FileName("hello", ".tsx"); got != "hello.tsx" {
		t.Fatalf("FileName() = %q", got)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), Filename))
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("Load() error = %v, want ErrMissing", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || errors.Is(err, ErrMissing) {
		t.Fatalf("Load() error = %v, want parse error", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), Filename)
	want := LockFile{
		"hello.tsx": {ID: "r1", Name: "hello", Hash: Hash("print(1)")},
		"world.tsx": {ID: "r2", Name: "world", Hash: Hash("print(2)")},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %#v, want %#v", got, want)
	}

	name, entry, ok := got.FindByID("r2")
	if !ok || name != "world.tsx" || entry.Name != "world" {
		t.Fatalf("FindByID(r2) = (%q, %#v, %v)", name, entry, ok)
	}
	if _, _, ok := got.FindByID("nope"); ok {
		t.Fatal("FindByID(nope) should not match")
	}
	if names := got.Filenames(); !reflect.DeepEqual(names, []string{"hello.tsx", "world.tsx"}) {
		t.Fatalf("Filenames() = %v", names)
	}
}

func TestCreateRefusesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), Filename)
	if err := Create(path); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	lock, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(lock) != 0 {
		t.Fatalf("expected empty lock, got %v", lock)
	}
	if err := Create(path); !errors.Is(err, os.ErrExist) {
		t.Fatalf("second Create() error = %v, want ErrExist", err)
	}
}
