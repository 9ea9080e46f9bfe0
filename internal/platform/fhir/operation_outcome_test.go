package fhir

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

func TestOutcomeForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperr.NotFound("op", "code %s", "X"), http.StatusNotFound, IssueTypeNotFound},
		{"invalid", fmt.Errorf("wrap: %w", apperr.InvalidInput("op", "bad")), http.StatusBadRequest, IssueTypeInvalid},
		{"upstream", apperr.Upstream("op", errors.New("down")), http.StatusBadGateway, IssueTypeTransient},
		{"validation", apperr.E(apperr.KindValidationFailed, "op", "bad shape"), http.StatusUnprocessableEntity, IssueTypeProcessing},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, IssueTypeException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, oo := OutcomeForError(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if oo.Issue[0].Code != tt.code {
				t.Errorf("issue code = %s, want %s", oo.Issue[0].Code, tt.code)
			}
			if oo.Issue[0].Diagnostics != tt.err.Error() {
				t.Errorf("diagnostics = %q", oo.Issue[0].Diagnostics)
			}
		})
	}
}

func TestOutcomeBuilder(t *testing.T) {
	oo := NewOutcomeBuilder().
		AddIssue(IssueSeverityWarning, IssueTypeProcessing, "careful").
		AddIssueWithLocation(IssueSeverityError, IssueTypeRequired, "code is required", "code").
		Build()

	if oo.ResourceType != "OperationOutcome" {
		t.Errorf("unexpected resourceType %s", oo.ResourceType)
	}
	if len(oo.Issue) != 2 || !oo.HasErrors() {
		t.Fatalf("unexpected issues %+v", oo.Issue)
	}
	if oo.Issue[1].Expression[0] != "code" {
		t.Errorf("expected expression 'code', got %v", oo.Issue[1].Expression)
	}
}

func TestRequiredFieldOutcome(t *testing.T) {
	oo := RequiredFieldOutcome("system")
	if oo.Issue[0].Diagnostics != "system is required" {
		t.Errorf("unexpected diagnostics %q", oo.Issue[0].Diagnostics)
	}
}
