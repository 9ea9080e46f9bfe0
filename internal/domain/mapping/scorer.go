package mapping

import (
	"math"
	"strings"
)

const (
	scoreExact       = 1.0
	scoreContainment = 0.9

	creditEqual    = 1.0
	creditContains = 0.7
	creditSynonym  = 0.5

	keywordBonusWeight = 0.3
)

var synonymGroups = map[string][]string{
	"fever":        {"pyrexia", "hyperthermia", "temperature"},
	"diabetes":     {"mellitus", "diabetic"},
	"hypertension": {"blood pressure", "bp"},
	"heart":        {"cardiac", "cardio"},
	"breathing":    {"respiratory", "pulmonary", "lung"},
	"joint":        {"articular", "arthritis"},
	"skin":         {"dermal", "dermatitis", "cutaneous"},
	"kidney":       {"renal", "nephritis"},
	"liver":        {"hepatic", "hepatitis"},
}

// synonyms is the bidirectional closure of synonymGroups. Multi-word entries
// contribute each of their words, since scoring compares single tokens.
var synonyms = buildSynonyms(synonymGroups)

func buildSynonyms(groups map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if a == b {
			return
		}
		if out[a] == nil {
			out[a] = make(map[string]struct{})
		}
		out[a][b] = struct{}{}
	}
	for root, alts := range groups {
		for _, alt := range alts {
			for _, word := range strings.Fields(alt) {
				link(root, word)
				link(word, root)
			}
		}
	}
	return out
}

func areSynonyms(a, b string) bool {
	_, ok := synonyms[a][b]
	return ok
}

// Score estimates how well target describes source, in [0, 1] rounded to
// two decimals. Equal strings score 1 and containment 0.9; otherwise token
// pairs earn credit for equality, containment or a medical synonym. Source
// keywords found in the target add a bonus, so the result is not symmetric.
func Score(source, target string, sourceKeywords []string) float64 {
	src := normalize(source)
	tgt := normalize(target)
	if src == "" || tgt == "" {
		return 0
	}

	var base float64
	switch {
	case src == tgt:
		base = scoreExact
	case strings.Contains(src, tgt) || strings.Contains(tgt, src):
		base = scoreContainment
	default:
		base = tokenScore(tokenize(src), tokenize(tgt))
	}

	if k := keywordCoverage(tgt, sourceKeywords); k > 0 {
		base += keywordBonusWeight * k
	}
	return round2(math.Min(1, base))
}

func tokenScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var sum float64
	for _, x := range a {
		for _, y := range b {
			switch {
			case x == y:
				sum += creditEqual
			case strings.Contains(x, y) || strings.Contains(y, x):
				sum += creditContains
			case areSynonyms(x, y):
				sum += creditSynonym
			}
		}
	}
	return math.Min(1, sum/float64(max(len(a), len(b))))
}

// keywordCoverage is the fraction of non-blank keywords that occur in the
// normalized target.
func keywordCoverage(normalizedTarget string, keywords []string) float64 {
	var total, hits int
	for _, kw := range keywords {
		kw = normalize(kw)
		if kw == "" {
			continue
		}
		total++
		if strings.Contains(normalizedTarget, kw) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func hasKeywordOverlap(target string, keywords []string) bool {
	return keywordCoverage(normalize(target), keywords) > 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
