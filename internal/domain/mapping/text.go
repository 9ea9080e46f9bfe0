package mapping

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize folds text to NFKC, lower case and single spaces.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func isDelimiter(r rune) bool {
	switch r {
	case ',', '-', '.', '_', '/':
		return true
	}
	return unicode.IsSpace(r)
}

// tokenize splits normalized text on the shared delimiter set and keeps
// tokens longer than two runes.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(normalize(s), isDelimiter)
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}
