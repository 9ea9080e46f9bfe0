// Package mapping maps NAMASTE concepts to ICD-11 candidates and back, and
// assembles the results into FHIR terminology resources.
package mapping

import (
	"github.com/termbridge/termbridge/internal/platform/icd11"
)

// Equivalence is the qualitative bucket for a mapping's confidence.
type Equivalence string

const (
	EquivalenceEquivalent Equivalence = "equivalent"
	EquivalenceRelatedTo  Equivalence = "related-to"
	EquivalenceWider      Equivalence = "wider"
	EquivalenceRelated    Equivalence = "related"
)

// ClassifyEquivalence buckets a confidence: 0.9 and above is equivalent,
// 0.7 related-to, 0.5 wider, anything lower related.
func ClassifyEquivalence(confidence float64) Equivalence {
	switch {
	case confidence >= 0.9:
		return EquivalenceEquivalent
	case confidence >= 0.7:
		return EquivalenceRelatedTo
	case confidence >= 0.5:
		return EquivalenceWider
	default:
		return EquivalenceRelated
	}
}

// Relationship is the R5 ConceptMap relationship code for e.
func (e Equivalence) Relationship() string {
	switch e {
	case EquivalenceEquivalent:
		return "equivalent"
	case EquivalenceWider:
		return "source-is-narrower-than-target"
	default:
		return "related-to"
	}
}

// Mapping is one scored correspondence between a source and target concept.
type Mapping struct {
	SourceCode    string          `json:"sourceCode"`
	SourceDisplay string          `json:"sourceDisplay"`
	SourceSystem  string          `json:"sourceSystem"`
	TargetCode    string          `json:"targetCode"`
	TargetDisplay string          `json:"targetDisplay"`
	TargetSystem  string          `json:"targetSystem"`
	Confidence    float64         `json:"confidence"`
	Equivalence   Equivalence     `json:"equivalence"`
	Reasoning     string          `json:"reasoning"`
	MatchType     icd11.MatchType `json:"matchType,omitempty"`
}

// Options tune one mapping call. Zero values select the service defaults.
type Options struct {
	MaxResults          int
	ConfidenceThreshold *float64
}

// BatchItem is the outcome for one code of a batch.
type BatchItem struct {
	Code     string    `json:"code"`
	Success  bool      `json:"success"`
	Mappings []Mapping `json:"mappings,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchResult holds one item per requested code, in request order.
type BatchResult struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}
