// Package logging builds the diagnostic logger shared by the API client and
// the sync engine. User-facing status lines go through internal/ui instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destination of diagnostics.
type Options struct {
	// Level is a level name ("debug", "info", "warn", "error"). Empty means warn.
	Level string
	// Debug forces the debug level.
	Debug bool
	// File sends output to a size-rotated file instead of Stderr.
	File string
	// Stderr is the terminal destination. Nil means os.Stderr.
	Stderr io.Writer
}

// New returns a logger and a closer for its output. The closer is a no-op
// when logging to the terminal.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level := log.WarnLevel
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, err := log.ParseLevel(name)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", name, err)
		}
		level = parsed
	}
	if opts.Debug {
		level = log.DebugLevel
	}

	var out io.Writer = opts.Stderr
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}

	reportTimestamp := false
	if file := strings.TrimSpace(opts.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		out = rotating
		closer = rotating
		reportTimestamp = true
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          "vt",
		ReportTimestamp: reportTimestamp,
	})
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
