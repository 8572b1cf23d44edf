package pipeline

import "strings"

// QuoteShell returns s as one POSIX shell word. Strings made only of
// characters the shell treats literally are returned unchanged; anything
// else is wrapped in single quotes.
func QuoteShell(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-./:@%+=,", r)
}
