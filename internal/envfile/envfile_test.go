package envfile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMarshalSortsAndQuotes(t *testing.T) {
	t.Parallel()

	got := Marshal(map[string]string{
		"ZED":      "last",
		"API_URL":  "https://api.val.town",
		"GREETING": "hello world",
		"EMPTY":    "",
	})
	want := "API_URL=https://api.val.town\nEMPTY=\nGREETING='hello world'\nZED=last\n"
	if got != want {
		t.Fatalf("Marshal() = %q, want %q", got, want)
	}
}

func TestWriteThenRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	env := map[string]string{
		"TOKEN":    "abc123",
		"GREETING": "hello world",
		"PRICE":    "costs $5",
		"URL":      "https://example.com/path",
	}
	if err := Write(path, env); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !Equal(got, env) {
		t.Fatalf("Read() = %#v, want %#v", got, env)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", st.Mode().Perm())
	}
}

func TestWriteThenReadPreservesValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "empty", value: ""},
		{name: "braces", value: "${HOME}/bin"},
		{name: "hash", value: "a # not a comment"},
		{name: "single quote", value: "it's"},
		{name: "double quotes", value: `say "hi"`},
		{name: "edge whitespace", value: "  padded  "},
		{name: "trailing backslash", value: `C:\tools\`},
		{name: "lone backslash", value: `\`},
		{name: "trailing backslash with dollar", value: `C:\$X\`},
		{name: "escaped dollar", value: `\$HOME`},
		{name: "newline", value: "line1\nline2"},
		{name: "crlf", value: "a\r\nb"},
		{name: "newline with quotes and dollar", value: "x=\"1\"\n$Y end"},
		{name: "newline with backslash", value: "path\\dir\nnext"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".env")
			env := map[string]string{"VALUE": tt.value}
			if _, skipped := Portable(env); len(skipped) != 0 {
				t.Fatalf("Portable() skipped %v", skipped)
			}
			if err := Write(path, env); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := Read(path)
			if err != nil {
				data, _ := os.ReadFile(path)
				t.Fatalf("Read() error = %v, file = %q", err, data)
			}
			if got["VALUE"] != tt.value {
				t.Fatalf("VALUE = %q, want %q", got["VALUE"], tt.value)
			}
		})
	}
}

func TestMarshalLeavesTrailingBackslashUnquoted(t *testing.T) {
	t.Parallel()

	got := Marshal(map[string]string{"WIN_DIR": `C:\tools\`})
	if want := "WIN_DIR=C:\\tools\\\n"; got != want {
		t.Fatalf("Marshal() = %q, want %q", got, want)
	}
}

func TestPortableSkipsUnwritableEntries(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"OK":         "fine",
		"A-B":        "bad key",
		"MULTI_TAIL": "x\ny\\",
		"LITERAL_N":  "a\\nb\nc",
	}
	kept, skipped := Portable(env)
	if want := []string{"A-B", "LITERAL_N", "MULTI_TAIL"}; !slices.Equal(skipped, want) {
		t.Fatalf("skipped = %v, want %v", skipped, want)
	}
	if !Equal(kept, map[string]string{"OK": "fine"}) {
		t.Fatalf("kept = %v", kept)
	}
	if got := Marshal(env); got != "OK=fine\n" {
		t.Fatalf("Marshal() = %q, want only the writable entry", got)
	}
}

func TestReadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	got, err := Read(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %v, want empty", got)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := map[string]string{"A": "1"}
	if !Equal(a, map[string]string{"A": "1"}) {
		t.Fatal("expected equal maps")
	}
	if Equal(a, map[string]string{"A": "2"}) {
		t.Fatal("expected different values to be unequal")
	}
	if Equal(a, map[string]string{}) {
		t.Fatal("expected missing key to be unequal")
	}
}
