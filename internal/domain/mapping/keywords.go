package mapping

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"that": {}, "this": {}, "are": {}, "was": {}, "its": {}, "due": {},
	"nor": {}, "but": {}, "also": {}, "other": {}, "including": {},
	"characterized": {}, "affecting": {}, "related": {}, "issues": {},
	"disease": {}, "diseases": {}, "disorder": {}, "disorders": {},
	"condition": {}, "conditions": {}, "syndrome": {}, "unspecified": {},
}

// ExtractKeywords reduces free text to distinct search terms: lower-cased
// tokens longer than two runes that are not stop words, in order of first
// appearance. Blank input yields an empty slice.
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, tok := range tokenize(text) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
