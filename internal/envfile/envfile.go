// Package envfile reads and writes dotenv files (one KEY=VALUE per line).
package envfile

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/subosito/gotenv"

	"github.com/pomdtr/vt/internal/atomicfile"
)

var (
	// bareValue matches values that can be written without quotes and read back verbatim.
	bareValue = regexp.MustCompile(`^[A-Za-z0-9_./:@,+=%-]*$`)
	// validKey is the key syntax gotenv accepts.
	validKey = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

	doubleQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "$", `\$`)
)

// Read parses the env file at path. A missing file reads as an empty map.
func Read(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return map[string]string(env), nil
}

// Portable splits env into the entries Marshal can write so that Read returns
// them unchanged, and the sorted keys of the entries it cannot.
func Portable(env map[string]string) (map[string]string, []string) {
	kept := make(map[string]string, len(env))
	var skipped []string
	for k, v := range env {
		if _, ok := encode(k, v); ok {
			kept[k] = v
		} else {
			skipped = append(skipped, k)
		}
	}
	sort.Strings(skipped)
	return kept, skipped
}

// Marshal renders env as sorted KEY=VALUE lines with a trailing newline.
// Entries that Portable rejects are left out.
func Marshal(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		line, ok := encode(k, env[k])
		if !ok {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func encode(key, value string) (string, bool) {
	if !validKey.MatchString(key) {
		return "", false
	}
	v, ok := quote(value)
	if !ok {
		return "", false
	}
	return key + "=" + v, true
}

// quote picks a form gotenv reads back as v. A quoted value whose closing
// quote follows a backslash never terminates, so values ending in a
// backslash go unquoted when they can. Double quotes are the only form that
// carries line breaks; they unescape \n before \\, which rules out a
// literal backslash followed by n or r.
func quote(v string) (string, bool) {
	multiline := strings.ContainsAny(v, "\n\r")
	trailingBackslash := strings.HasSuffix(v, `\`)

	switch {
	case bareValue.MatchString(v):
		return v, true
	case !multiline && !trailingBackslash:
		// Single quotes are literal: no escapes, no $VAR expansion.
		return "'" + v + "'", true
	case !multiline:
		if !unquotedSafe(v) {
			return "", false
		}
		// Unquoted values keep backslashes; only $ needs escaping.
		return strings.ReplaceAll(v, "$", `\$`), true
	case trailingBackslash, strings.HasSuffix(v, `"`),
		strings.Contains(v, `\n`), strings.Contains(v, `\r`):
		return "", false
	default:
		return `"` + doubleQuoter.Replace(v) + `"`, true
	}
}

// unquotedSafe reports whether v survives as an unquoted value: no comment
// marker, nothing trimmed at the edges and no leading quote.
func unquotedSafe(v string) bool {
	if v == "" || strings.Contains(v, "#") {
		return false
	}
	if v[0] == '\'' || v[0] == '"' {
		return false
	}
	first, _ := utf8.DecodeRuneInString(v)
	last, _ := utf8.DecodeLastRuneInString(v)
	return !unicode.IsSpace(first) && !unicode.IsSpace(last)
}

// Write replaces the env file at path with env.
func Write(path string, env map[string]string) error {
	if err := atomicfile.WriteFile(path, []byte(Marshal(env)), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// Equal reports whether two env maps hold the same keys and values.
func Equal(a, b map[string]string) bool {
	return maps.Equal(a, b)
}
