package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable renders rows under a bold header with muted separators, for
// terminal output.
func RenderTable(headers []string, rows [][]string) string {
	tbl := table.New().
		Border(lipgloss.Border{
			Top:    "─",
			Bottom: "─",
			Left:   "",
			Right:  "",
			Middle: "─",
		}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if row == table.HeaderRow {
				style = style.Bold(true)
			}
			if col < len(headers)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)

	return tbl.Render() + "\n"
}

// TSV renders rows as tab-separated lines for pipes. Tabs and newlines inside
// cells are replaced by spaces.
func TSV(rows [][]string) string {
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(clean.Replace(cell))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
