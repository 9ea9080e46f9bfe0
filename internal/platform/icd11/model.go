// Package icd11 queries the externally hosted ICD-11 concept search service.
// Every search goes through a TTL cache; upstream failures are logged and
// degrade to an empty result rather than failing the caller.
package icd11

import "strings"

// SystemURI identifies ICD-11 MMS codings.
const SystemURI = "http://id.who.int/icd/release/11/mms"

// MatchType is the kind of hit the external service reported.
type MatchType string

const (
	MatchStem      MatchType = "stem"
	MatchExtension MatchType = "extension"
	MatchOther     MatchType = "other"
	MatchUnknown   MatchType = "unknown"
)

// ParseMatchType maps the service's type column onto a MatchType.
func ParseMatchType(s string) MatchType {
	switch MatchType(strings.ToLower(strings.TrimSpace(s))) {
	case MatchStem:
		return MatchStem
	case MatchExtension:
		return MatchExtension
	case MatchOther:
		return MatchOther
	default:
		return MatchUnknown
	}
}

// InitialConfidence is the prior confidence implied by the match type.
func (m MatchType) InitialConfidence() float64 {
	switch m {
	case MatchStem:
		return 0.9
	case MatchExtension:
		return 0.8
	case MatchOther:
		return 0.7
	default:
		return 0.6
	}
}

// ExternalConcept is one candidate returned by a search.
type ExternalConcept struct {
	Code              string    `json:"code"`
	Display           string    `json:"display"`
	MatchType         MatchType `json:"matchType"`
	FullDisplay       string    `json:"fullDisplay"`
	InitialConfidence float64   `json:"initialConfidence"`
}

func newExternalConcept(code, display, fullDisplay, matchType string) ExternalConcept {
	mt := ParseMatchType(matchType)
	return ExternalConcept{
		Code:              code,
		Display:           display,
		MatchType:         mt,
		FullDisplay:       fullDisplay,
		InitialConfidence: mt.InitialConfidence(),
	}
}
