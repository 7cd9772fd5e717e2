package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// DisplayContext holds display parameters, auto-detecting terminal width.
// Commands pick table vs. tab-separated output and highlighted vs. compact
// JSON from IsTTY.
type DisplayContext struct {
	TermWidth  int  // detected or fallback terminal width
	IsTTY      bool // whether stdout is a terminal
	StdinIsTTY bool // whether stdin is a terminal
}

// NewDisplayContext creates a DisplayContext, auto-detecting terminal dimensions.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	isTTY := isTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	return &DisplayContext{
		TermWidth:  width,
		IsTTY:      isTTY,
		StdinIsTTY: isTerminal(os.Stdin.Fd()),
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
