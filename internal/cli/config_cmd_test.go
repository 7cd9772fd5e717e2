package cli

import (
	"testing"

	"github.com/pomdtr/vt/internal/config"
)

func TestSetConfigKey(t *testing.T) {
	c := &config.Config{}

	steps := []struct{ key, value string }{
		{"api_url", "http://localhost:8080"},
		{"timeout_seconds", "45"},
		{"sync.extension", ".ts"},
		{"sync.dir", "~/vals"},
		{"ui.accent", "#FF00AA"},
		{"log.level", "DEBUG"},
	}
	for _, s := range steps {
		if err := setConfigKey(c, s.key, s.value); err != nil {
			t.Fatalf("setConfigKey(%s) error = %v", s.key, err)
		}
	}

	if c.APIURL != "http://localhost:8080" || c.TimeoutSeconds != 45 {
		t.Fatalf("config = %+v", c)
	}
	if c.Sync.Extension != "ts" || c.Sync.Dir != "~/vals" {
		t.Fatalf("sync = %+v", c.Sync)
	}
	if c.UI.Accent != "#FF00AA" || c.Log.Level != "debug" {
		t.Fatalf("ui = %+v, log = %+v", c.UI, c.Log)
	}

	if err := setConfigKey(c, "timeout_seconds", ""); err != nil || c.TimeoutSeconds != 0 {
		t.Fatalf("unset timeout: err = %v, value = %d", err, c.TimeoutSeconds)
	}
}

func TestSetConfigKeyRejectsBadInput(t *testing.T) {
	c := &config.Config{}
	for _, s := range []struct{ key, value string }{
		{"nope", "x"},
		{"timeout_seconds", "soon"},
		{"ui.accent", "not-a-color"},
		{"log.level", "loud"},
	} {
		if err := setConfigKey(c, s.key, s.value); err == nil {
			t.Errorf("setConfigKey(%s, %s) succeeded, want error", s.key, s.value)
		}
	}
}

func TestRedact(t *testing.T) {
	for in, want := range map[string]string{
		"":                 "",
		"short":            "********",
		"abcd1234567890yz": "abcd…90yz",
	} {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}
