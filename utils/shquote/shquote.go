// Package shquote provides POSIX shell quoting equivalent to Python's
// shlex.quote, used wherever a rendered token must survive a shell roundtrip
// unmodified. No library in the dependency pack provides this (shellwords
// packages unescape, they don't quote), so it is implemented directly
// against the standard library.
package shquote

import "strings"

// Quote returns s, single-quoted if it contains anything a POSIX shell
// would otherwise treat specially, with embedded single quotes escaped.
func Quote(s string) string {
	if s != "" && isSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=,:@%+", r):
		default:
			return false
		}
	}
	return true
}
