package ui

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns a line diff from old to new with "-"/"+" prefixed lines and
// two lines of unchanged context around each change. It returns "" when the
// texts are equal.
func Diff(old, new string) string {
	if old == new {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	type line struct {
		op   diffmatchpatch.Operation
		text string
	}
	var all []line
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, l := range strings.Split(text, "\n") {
			all = append(all, line{op: d.Type, text: l})
		}
	}

	const context = 2
	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := i - context; j <= i+context; j++ {
			if j >= 0 && j < len(all) {
				keep[j] = true
			}
		}
	}

	var sb strings.Builder
	skipped := false
	for i, l := range all {
		if !keep[i] {
			skipped = true
			continue
		}
		if skipped {
			sb.WriteString(Muted.Render("  ...") + "\n")
			skipped = false
		}
		switch l.op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(added.Render("+ "+l.text) + "\n")
		case diffmatchpatch.DiffDelete:
			sb.WriteString(removed.Render("- "+l.text) + "\n")
		default:
			sb.WriteString("  " + l.text + "\n")
		}
	}
	return sb.String()
}
