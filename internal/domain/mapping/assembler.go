package mapping

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/termbridge/termbridge/internal/domain/namaste"
	"github.com/termbridge/termbridge/internal/platform/fhir"
	"github.com/termbridge/termbridge/internal/platform/icd11"
)

const (
	conditionClinicalSystem     = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	conditionVerificationSystem = "http://terminology.hl7.org/CodeSystem/condition-ver-status"

	// ConceptMapURL is the canonical URL of the published forward map.
	ConceptMapURL = "http://termbridge.local/fhir/ConceptMap/namaste-to-icd11"
)

// CodedResource is a dual-coded Condition together with its shape report.
type CodedResource struct {
	SubjectRef string                 `json:"subjectRef"`
	Codings    []fhir.Coding          `json:"codings"`
	Condition  *fhir.Condition        `json:"condition"`
	Validation *fhir.ValidationReport `json:"validation"`
}

// Assembler turns mappings into FHIR resources and validates them.
type Assembler struct {
	validator *fhir.Validator
	now       func() time.Time
	newID     func() string
}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		validator: fhir.NewValidator(),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Assemble builds a Condition coded with source first and, when mapping is
// non-nil, the mapped target appended. The result carries a validation
// report instead of failing.
func (a *Assembler) Assemble(source *namaste.SourceConcept, mapping *Mapping, subjectRef string) *CodedResource {
	codings := []fhir.Coding{{System: namaste.SystemURI, Code: source.Code, Display: source.Display}}
	if mapping != nil {
		codings = append(codings, fhir.Coding{System: mapping.TargetSystem, Code: mapping.TargetCode, Display: mapping.TargetDisplay})
	}

	cond := &fhir.Condition{
		ResourceType: "Condition",
		ID:           a.newID(),
		ClinicalStatus: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: conditionClinicalSystem, Code: "active", Display: "Active"}},
		},
		VerificationStatus: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: conditionVerificationSystem, Code: "provisional", Display: "Provisional"}},
		},
		Code:         fhir.CodeableConcept{Coding: codings, Text: source.Display},
		Subject:      fhir.Reference{Reference: subjectRef},
		RecordedDate: a.now().UTC().Format(time.RFC3339),
	}

	return &CodedResource{
		SubjectRef: subjectRef,
		Codings:    codings,
		Condition:  cond,
		Validation: a.validator.Validate(cond),
	}
}

// ConceptMap groups mappings by source concept into one NAMASTE to ICD-11
// group. Reverse mappings use the same shape.
func (a *Assembler) ConceptMap(mappings []Mapping) (*fhir.ConceptMap, *fhir.ValidationReport) {
	cm := &fhir.ConceptMap{
		ResourceType: "ConceptMap",
		ID:           a.newID(),
		URL:          ConceptMapURL,
		Name:         "NAMASTEToICD11",
		Status:       "draft",
		Date:         a.now().UTC().Format(time.RFC3339),
		SourceURI:    namaste.SystemURI,
		TargetURI:    icd11.SystemURI,
		Group:        []fhir.ConceptMapGroup{},
	}

	if len(mappings) > 0 {
		group := fhir.ConceptMapGroup{Source: namaste.SystemURI, Target: icd11.SystemURI}
		index := map[string]int{}
		for _, m := range mappings {
			pos, ok := index[m.SourceCode]
			if !ok {
				pos = len(group.Element)
				index[m.SourceCode] = pos
				group.Element = append(group.Element, fhir.ConceptMapElement{Code: m.SourceCode, Display: m.SourceDisplay})
			}
			eq := m.Equivalence
			if eq == "" {
				eq = ClassifyEquivalence(m.Confidence)
			}
			group.Element[pos].Target = append(group.Element[pos].Target, fhir.ConceptMapTarget{
				Code:         m.TargetCode,
				Display:      m.TargetDisplay,
				Equivalence:  string(eq),
				Relationship: eq.Relationship(),
				Comment:      confidenceComment(m),
			})
		}
		cm.Group = append(cm.Group, group)
	}

	return cm, a.validator.Validate(cm)
}

func confidenceComment(m Mapping) string {
	pct := int(math.Round(m.Confidence * 100))
	if m.Reasoning == "" {
		return fmt.Sprintf("Confidence: %d%%", pct)
	}
	return fmt.Sprintf("Confidence: %d%%. %s", pct, m.Reasoning)
}

// Translate renders mappings as $translate output parameters.
func (a *Assembler) Translate(mappings []Mapping, reverse bool) *fhir.Parameters {
	if len(mappings) == 0 {
		return fhir.NewTranslateParameters(false, "No mappings found", nil)
	}
	matches := make([]fhir.TranslateMatch, 0, len(mappings))
	for _, m := range mappings {
		tm := fhir.TranslateMatch{
			Equivalence: string(m.Equivalence),
			Code:        m.TargetCode,
			Display:     m.TargetDisplay,
			System:      m.TargetSystem,
			Confidence:  m.Confidence,
			Source:      ConceptMapURL,
		}
		if reverse {
			tm.Code, tm.Display, tm.System = m.SourceCode, m.SourceDisplay, m.SourceSystem
		}
		matches = append(matches, tm)
	}
	noun := "mappings"
	if len(matches) == 1 {
		noun = "mapping"
	}
	return fhir.NewTranslateParameters(true, fmt.Sprintf("Found %d %s", len(matches), noun), matches)
}

// SubjectReference normalizes a bare patient id into a Patient reference.
func SubjectReference(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.Contains(subject, "/") {
		return subject
	}
	return "Patient/" + subject
}
