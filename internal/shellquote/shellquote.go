// Package shellquote quotes strings for POSIX sh command lines.
package shellquote

import "strings"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded leaves plain words untouched and quotes anything a shell
// would split, glob or expand.
func QuoteIfNeeded(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n#[]()|&;<>*?!$`\\\"'~{}") {
		return Quote(s)
	}
	return s
}

// Join quotes each argument as needed and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}
