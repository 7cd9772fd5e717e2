// Package editor lets the user edit text in their terminal editor through a
// temp file.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pomdtr/vt/internal/shellquote"
)

// Editor runs Command on a temp file. Command may carry arguments
// ("code --wait"), in which case it runs through sh.
type Editor struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// New returns an Editor attached to the process's terminal.
func New(command string) *Editor {
	return &Editor{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Edit writes text to a temp file with the given extension, waits for the
// editor to exit and returns the file's new content.
func (e *Editor) Edit(ctx context.Context, text, ext string) (string, error) {
	command := strings.TrimSpace(e.Command)
	if command == "" {
		return "", fmt.Errorf("no editor configured: set $EDITOR or editor in the config file")
	}

	f, err := os.CreateTemp("", "vt-*."+strings.TrimPrefix(ext, "."))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	cmd := e.command(ctx, command, path)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %q: %w", command, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(data), nil
}

func (e *Editor) command(ctx context.Context, command, path string) *exec.Cmd {
	// Compound commands like "code --wait" go through the shell.
	if strings.ContainsAny(command, " \t") {
		return exec.CommandContext(ctx, "sh", "-c", command+" "+shellquote.Quote(path))
	}
	return exec.CommandContext(ctx, command, path)
}
