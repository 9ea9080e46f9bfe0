package fhir

import (
	"fmt"
	"net/http"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

// OperationOutcome issue severity levels (FHIR R4).
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes used by this server.
const (
	IssueTypeInvalid     = "invalid"
	IssueTypeStructure   = "structure"
	IssueTypeRequired    = "required"
	IssueTypeValue       = "value"
	IssueTypeNotFound    = "not-found"
	IssueTypeProcessing  = "processing"
	IssueTypeThrottled   = "throttled"
	IssueTypeException   = "exception"
	IssueTypeTransient   = "transient"
	IssueTypeCodeInvalid = "code-invalid"
	IssueTypeTimeout     = "timeout"
)

// OutcomeBuilder provides a fluent API for constructing OperationOutcome resources.
type OutcomeBuilder struct {
	outcome *OperationOutcome
}

func NewOutcomeBuilder() *OutcomeBuilder {
	return &OutcomeBuilder{
		outcome: &OperationOutcome{
			ResourceType: "OperationOutcome",
		},
	}
}

func (b *OutcomeBuilder) AddIssue(severity, code, diagnostics string) *OutcomeBuilder {
	b.outcome.Issue = append(b.outcome.Issue, OperationOutcomeIssue{
		Severity:    severity,
		Code:        code,
		Diagnostics: diagnostics,
	})
	return b
}

// AddIssueWithLocation adds an issue including an expression/location path.
func (b *OutcomeBuilder) AddIssueWithLocation(severity, code, diagnostics, location string) *OutcomeBuilder {
	b.outcome.Issue = append(b.outcome.Issue, OperationOutcomeIssue{
		Severity:    severity,
		Code:        code,
		Diagnostics: diagnostics,
		Expression:  []string{location},
	})
	return b
}

func (b *OutcomeBuilder) Build() *OperationOutcome {
	return b.outcome
}

// HasErrors returns true if the outcome contains any error or fatal issues.
func (o *OperationOutcome) HasErrors() bool {
	for _, issue := range o.Issue {
		if issue.Severity == IssueSeverityError || issue.Severity == IssueSeverityFatal {
			return true
		}
	}
	return false
}

// RequiredFieldOutcome creates an OperationOutcome for a missing required field.
func RequiredFieldOutcome(field string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    IssueSeverityError,
				Code:        IssueTypeRequired,
				Diagnostics: fmt.Sprintf("%s is required", field),
				Expression:  []string{field},
			},
		},
	}
}

// OutcomeForError decodes a kinded error into an HTTP status and the
// OperationOutcome body returned to the client.
func OutcomeForError(err error) (int, *OperationOutcome) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, err.Error())
	case apperr.KindInvalidInput:
		return http.StatusBadRequest, NewOperationOutcome(IssueSeverityError, IssueTypeInvalid, err.Error())
	case apperr.KindUpstreamUnavailable:
		return http.StatusBadGateway, NewOperationOutcome(IssueSeverityError, IssueTypeTransient, err.Error())
	case apperr.KindValidationFailed:
		return http.StatusUnprocessableEntity, NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, err.Error())
	default:
		return http.StatusInternalServerError, NewOperationOutcome(IssueSeverityFatal, IssueTypeException, err.Error())
	}
}
