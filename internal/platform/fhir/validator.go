package fhir

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// referencePattern matches FHIR references in the format "ResourceType/id".
var referencePattern = regexp.MustCompile(`^[A-Z][a-zA-Z]+/[a-zA-Z0-9\-\.]+$`)

// ValidationReport is the structured outcome of a shape check. Validation
// never fails with an error; callers decide whether to reject on !Valid.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newReport() *ValidationReport {
	return &ValidationReport{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *ValidationReport) addError(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ToOperationOutcome converts the report into an OperationOutcome.
func (r *ValidationReport) ToOperationOutcome() *OperationOutcome {
	b := NewOutcomeBuilder()
	for _, e := range r.Errors {
		b.AddIssue(IssueSeverityError, IssueTypeInvalid, e)
	}
	for _, w := range r.Warnings {
		b.AddIssue(IssueSeverityWarning, IssueTypeProcessing, w)
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		b.AddIssue(IssueSeverityInformation, IssueTypeProcessing, "resource is valid")
	}
	return b.Build()
}

// shapeRule checks the fields a specific resource type requires.
type shapeRule func(resource map[string]interface{}, r *ValidationReport)

// Validator applies resource-shape rules.
type Validator struct {
	rules map[string]shapeRule
}

func NewValidator() *Validator {
	return &Validator{rules: map[string]shapeRule{
		"Condition":  validateCondition,
		"Patient":    validatePatient,
		"CodeSystem": validateCodeSystem,
		"ConceptMap": validateConceptMap,
	}}
}

// Validate checks any JSON-serializable resource value.
func (v *Validator) Validate(resource interface{}) *ValidationReport {
	data, err := json.Marshal(resource)
	if err != nil {
		r := newReport()
		r.addError("resource is not serializable: %v", err)
		return r
	}
	return v.ValidateResource(data)
}

// ValidateResource validates a raw JSON resource.
func (v *Validator) ValidateResource(data json.RawMessage) *ValidationReport {
	var resource map[string]interface{}
	if err := json.Unmarshal(data, &resource); err != nil {
		r := newReport()
		r.addError("invalid JSON: %v", err)
		return r
	}
	return v.ValidateResourceMap(resource)
}

// ValidateResourceMap validates a resource already parsed as a map.
func (v *Validator) ValidateResourceMap(resource map[string]interface{}) *ValidationReport {
	r := newReport()

	rt, _ := resource["resourceType"].(string)
	if rt == "" {
		r.addError("resourceType is required")
		return r
	}
	if rule, ok := v.rules[rt]; ok {
		rule(resource, r)
	}
	walkReferences(resource, "", r)
	return r
}

func validateCondition(resource map[string]interface{}, r *ValidationReport) {
	subject, _ := resource["subject"].(map[string]interface{})
	if ref, _ := subject["reference"].(string); ref == "" {
		r.addError("Condition.subject is required")
	}

	code, _ := resource["code"].(map[string]interface{})
	codings, _ := code["coding"].([]interface{})
	switch len(codings) {
	case 0:
		r.addError("Condition.code is required")
	case 1:
		r.addWarning("Condition.code carries a single coding; no cross-terminology coding was attached")
	}
}

func validatePatient(resource map[string]interface{}, r *ValidationReport) {
	names, _ := resource["name"].([]interface{})
	if len(names) == 0 {
		r.addError("Patient.name is required")
	}
}

func validateCodeSystem(resource map[string]interface{}, r *ValidationReport) {
	if url, _ := resource["url"].(string); url == "" {
		r.addError("CodeSystem.url is required")
	}
	if status, _ := resource["status"].(string); status == "" {
		r.addError("CodeSystem.status is required")
	}
	if concepts, _ := resource["concept"].([]interface{}); len(concepts) == 0 {
		r.addWarning("CodeSystem has no concepts")
	}
}

func validateConceptMap(resource map[string]interface{}, r *ValidationReport) {
	if groups, _ := resource["group"].([]interface{}); len(groups) == 0 {
		r.addWarning("ConceptMap has no groups")
	}
}

// walkReferences recursively walks through a resource to find and validate reference fields.
func walkReferences(obj map[string]interface{}, path string, r *ValidationReport) {
	for key, val := range obj {
		currentPath := key
		if path != "" {
			currentPath = path + "." + key
		}

		switch typedVal := val.(type) {
		case map[string]interface{}:
			if ref, ok := typedVal["reference"].(string); ok && ref != "" {
				if !ValidateReferenceFormat(ref) {
					r.addError("invalid reference format '%s' at %s.reference; expected 'ResourceType/id'", ref, currentPath)
				}
			}
			walkReferences(typedVal, currentPath, r)

		case []interface{}:
			for i, item := range typedVal {
				if m, ok := item.(map[string]interface{}); ok {
					walkReferences(m, fmt.Sprintf("%s[%d]", currentPath, i), r)
				}
			}
		}
	}
}

// ValidateReferenceFormat validates that a reference string matches "ResourceType/id".
func ValidateReferenceFormat(ref string) bool {
	return referencePattern.MatchString(ref)
}
