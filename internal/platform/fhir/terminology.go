package fhir

import (
	"time"

	"github.com/google/uuid"
)

// CodeSystem is the catalog resource published for the source terminology.
type CodeSystem struct {
	ResourceType string               `json:"resourceType"`
	ID           string               `json:"id"`
	URL          string               `json:"url"`
	Version      string               `json:"version,omitempty"`
	Name         string               `json:"name"`
	Title        string               `json:"title,omitempty"`
	Status       string               `json:"status"`
	Publisher    string               `json:"publisher,omitempty"`
	Content      string               `json:"content"`
	Count        int                  `json:"count"`
	Property     []CodeSystemProperty `json:"property,omitempty"`
	Concept      []CodeSystemConcept  `json:"concept"`
}

// CodeSystemProperty declares a property carried by concepts.
type CodeSystemProperty struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type CodeSystemConcept struct {
	Code        string            `json:"code"`
	Display     string            `json:"display"`
	Definition  string            `json:"definition,omitempty"`
	Designation []Designation     `json:"designation,omitempty"`
	Property    []ConceptProperty `json:"property,omitempty"`
}

type Designation struct {
	Use   *Coding `json:"use,omitempty"`
	Value string  `json:"value"`
}

type ConceptProperty struct {
	Code        string `json:"code"`
	ValueString string `json:"valueString,omitempty"`
	ValueCode   string `json:"valueCode,omitempty"`
}

// ConceptMap holds scored correspondences between two code systems.
type ConceptMap struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	URL          string            `json:"url,omitempty"`
	Name         string            `json:"name,omitempty"`
	Status       string            `json:"status"`
	Date         string            `json:"date,omitempty"`
	SourceURI    string            `json:"sourceUri,omitempty"`
	TargetURI    string            `json:"targetUri,omitempty"`
	Group        []ConceptMapGroup `json:"group"`
}

type ConceptMapGroup struct {
	Source  string              `json:"source"`
	Target  string              `json:"target"`
	Element []ConceptMapElement `json:"element"`
}

type ConceptMapElement struct {
	Code    string             `json:"code"`
	Display string             `json:"display,omitempty"`
	Target  []ConceptMapTarget `json:"target"`
}

// ConceptMapTarget carries the relationship both as R4 equivalence and as the
// R5 relationship code so either consumer can read it.
type ConceptMapTarget struct {
	Code         string `json:"code"`
	Display      string `json:"display,omitempty"`
	Equivalence  string `json:"equivalence"`
	Relationship string `json:"relationship,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Condition is the dual-coded clinical resource.
type Condition struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`
	Code               CodeableConcept  `json:"code"`
	Subject            Reference        `json:"subject"`
	RecordedDate       string           `json:"recordedDate,omitempty"`
}

// ValueSetExpansion is the body of a ValueSet $expand response.
type ValueSetExpansion struct {
	ResourceType string    `json:"resourceType"`
	URL          string    `json:"url,omitempty"`
	Status       string    `json:"status"`
	Expansion    Expansion `json:"expansion"`
}

type Expansion struct {
	Identifier string   `json:"identifier"`
	Timestamp  string   `json:"timestamp"`
	Total      int      `json:"total"`
	Offset     int      `json:"offset"`
	Contains   []Coding `json:"contains"`
}

// NewValueSetExpansion wraps codings in an expansion stamped with a fresh
// identifier and the current time.
func NewValueSetExpansion(url string, contains []Coding, total, offset int) *ValueSetExpansion {
	if contains == nil {
		contains = []Coding{}
	}
	return &ValueSetExpansion{
		ResourceType: "ValueSet",
		URL:          url,
		Status:       "active",
		Expansion: Expansion{
			Identifier: "urn:uuid:" + uuid.New().String(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Total:      total,
			Offset:     offset,
			Contains:   contains,
		},
	}
}

// Parameters is the FHIR Parameters resource used by $lookup and $translate.
type Parameters struct {
	ResourceType string      `json:"resourceType"`
	Parameter    []Parameter `json:"parameter"`
}

type Parameter struct {
	Name         string      `json:"name"`
	ValueString  string      `json:"valueString,omitempty"`
	ValueCode    string      `json:"valueCode,omitempty"`
	ValueBoolean *bool       `json:"valueBoolean,omitempty"`
	ValueDecimal *float64    `json:"valueDecimal,omitempty"`
	ValueCoding  *Coding     `json:"valueCoding,omitempty"`
	Part         []Parameter `json:"part,omitempty"`
}

func NewParameters(params ...Parameter) *Parameters {
	if params == nil {
		params = []Parameter{}
	}
	return &Parameters{ResourceType: "Parameters", Parameter: params}
}

// Get returns the first parameter with the given name.
func (p *Parameters) Get(name string) (Parameter, bool) {
	for _, param := range p.Parameter {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// TranslateMatch represents one translation result.
type TranslateMatch struct {
	Equivalence string
	Code        string
	Display     string
	System      string
	Confidence  float64
	Source      string
}

// NewTranslateParameters converts translation results to a Parameters resource.
func NewTranslateParameters(result bool, message string, matches []TranslateMatch) *Parameters {
	params := NewParameters(
		Parameter{Name: "result", ValueBoolean: &result},
		Parameter{Name: "message", ValueString: message},
	)

	for _, m := range matches {
		confidence := m.Confidence
		parts := []Parameter{
			{Name: "equivalence", ValueCode: m.Equivalence},
			{Name: "concept", ValueCoding: &Coding{System: m.System, Code: m.Code, Display: m.Display}},
			{Name: "confidence", ValueDecimal: &confidence},
		}
		if m.Source != "" {
			parts = append(parts, Parameter{Name: "source", ValueString: m.Source})
		}
		params.Parameter = append(params.Parameter, Parameter{Name: "match", Part: parts})
	}
	return params
}
