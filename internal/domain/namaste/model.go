// Package namaste serves the read-only NAMASTE source terminology catalog.
package namaste

import "strings"

// SystemURI identifies NAMASTE codings.
const SystemURI = "http://namaste.ayush.gov.in/fhir/CodeSystem/namaste"

// SourceConcept is one NAMASTE concept record. Records are reference data
// and are never mutated after load.
type SourceConcept struct {
	Code        string   `json:"code" yaml:"code"`
	Display     string   `json:"display" yaml:"display"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	System      string   `json:"system" yaml:"system"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Synonyms    []string `json:"synonyms" yaml:"synonyms"`
}

// Matches reports whether q occurs, ignoring case, in the code, display,
// description, synonyms or keywords.
func (c *SourceConcept) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	fields := []string{c.Code, c.Display, c.Description}
	fields = append(fields, c.Synonyms...)
	fields = append(fields, c.Keywords...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Validate checks the fields a catalog import requires.
func (c *SourceConcept) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return errMissing("code")
	}
	if strings.TrimSpace(c.Display) == "" {
		return errMissing("display of " + c.Code)
	}
	return nil
}
