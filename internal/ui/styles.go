package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Highlights, file names, val slugs
// - Muted (gray): Secondary info, links, table borders
// - Diff lines use green/red; status lines use unicode symbols only

const defaultAccent = "#A78BFA"

var (
	accentColor = defaultAccent

	// Accent style for file names, val slugs, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, links
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)

	added   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removed = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// ConfigureTheme applies the accent color from config. "none", "off" and
// "default" disable the accent; invalid values keep the built-in accent.
func ConfigureTheme(accent string) {
	trimmed := strings.ToLower(strings.TrimSpace(accent))
	switch trimmed {
	case "":
		return
	case "none", "off", "default":
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}

	color, ok := NormalizeAccentColor(trimmed)
	if !ok {
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// AccentColor returns the active accent color, if any.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

// NormalizeAccentColor accepts an ANSI code (0-255) or a #RGB/#RRGGBB hex color.
func NormalizeAccentColor(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}

	if strings.HasPrefix(value, "#") {
		hex := strings.ToLower(value[1:])
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return "#" + hex, true
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 255 {
		return "", false
	}
	return strconv.Itoa(n), true
}
