package namaste

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/termbridge/termbridge/internal/platform/apperr"
	"github.com/termbridge/termbridge/internal/platform/fhir"
)

const (
	codeSystemID      = "namaste"
	codeSystemVersion = "1.0.0"
	// ValueSetURL is the implicit all-concepts value set of the catalog.
	ValueSetURL = SystemURI + "?fhir_vs"
)

// Service provides catalog lookup and publishes the catalog as FHIR
// terminology resources.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the concept with code.
func (s *Service) Get(ctx context.Context, code string) (*SourceConcept, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.InvalidInput("namaste.Get", "code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]*SourceConcept, error) {
	return s.repo.List(ctx)
}

// Search returns a page of concepts matching query.
func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*SourceConcept, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, apperr.InvalidInput("namaste.Search", "query is required")
	}
	return s.repo.Search(ctx, query, limit, offset)
}

// Browse returns a page of the catalog without filtering.
func (s *Service) Browse(ctx context.Context, limit, offset int) ([]*SourceConcept, int, error) {
	return s.repo.Search(ctx, "", limit, offset)
}

// Import validates and upserts concepts, returning how many were written.
func (s *Service) Import(ctx context.Context, concepts []*SourceConcept) (int, error) {
	for i, c := range concepts {
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("concept %d: %w", i, err)
		}
	}
	n, err := s.repo.Upsert(ctx, concepts)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("concepts", n).Msg("catalog imported")
	return n, nil
}

// CodeSystem renders the catalog as a complete CodeSystem resource.
func (s *Service) CodeSystem(ctx context.Context) (*fhir.CodeSystem, error) {
	concepts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	cs := &fhir.CodeSystem{
		ResourceType: "CodeSystem",
		ID:           codeSystemID,
		URL:          SystemURI,
		Version:      codeSystemVersion,
		Name:         "NAMASTE",
		Title:        "National AYUSH Morbidity and Standardized Terminologies Electronic",
		Status:       "active",
		Publisher:    "Ministry of AYUSH, Government of India",
		Content:      "complete",
		Count:        len(concepts),
		Property: []fhir.CodeSystemProperty{
			{Code: "category", Type: "string", Description: "Disorder category"},
			{Code: "system", Type: "code", Description: "Traditional medicine system"},
			{Code: "definition", Type: "string", Description: "Clinical description"},
		},
		Concept: make([]fhir.CodeSystemConcept, 0, len(concepts)),
	}
	for _, c := range concepts {
		cs.Concept = append(cs.Concept, toCodeSystemConcept(c))
	}
	return cs, nil
}

func toCodeSystemConcept(c *SourceConcept) fhir.CodeSystemConcept {
	out := fhir.CodeSystemConcept{
		Code:       c.Code,
		Display:    c.Display,
		Definition: c.Description,
		Property: []fhir.ConceptProperty{
			{Code: "category", ValueString: c.Category},
			{Code: "system", ValueCode: c.System},
			{Code: "definition", ValueString: c.Description},
		},
	}
	for _, syn := range c.Synonyms {
		out.Designation = append(out.Designation, fhir.Designation{
			Use:   &fhir.Coding{System: "http://snomed.info/sct", Code: "900000000000013009", Display: "Synonym"},
			Value: syn,
		})
	}
	return out
}

// Expand builds a ValueSet expansion of the catalog, optionally filtered.
func (s *Service) Expand(ctx context.Context, filter string, count, offset int) (*fhir.ValueSetExpansion, error) {
	page, total, err := s.repo.Search(ctx, strings.TrimSpace(filter), count, offset)
	if err != nil {
		return nil, err
	}
	contains := make([]fhir.Coding, 0, len(page))
	for _, c := range page {
		contains = append(contains, fhir.Coding{System: SystemURI, Code: c.Code, Display: c.Display})
	}
	return fhir.NewValueSetExpansion(ValueSetURL, contains, total, offset), nil
}

// Lookup implements CodeSystem $lookup for NAMASTE codes.
func (s *Service) Lookup(ctx context.Context, system, code string) (*fhir.Parameters, error) {
	if system != "" && system != SystemURI {
		return nil, apperr.InvalidInput("namaste.Lookup", "unsupported system %q", system)
	}
	c, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	params := fhir.NewParameters(
		fhir.Parameter{Name: "name", ValueString: "NAMASTE"},
		fhir.Parameter{Name: "version", ValueString: codeSystemVersion},
		fhir.Parameter{Name: "display", ValueString: c.Display},
		fhir.Parameter{Name: "definition", ValueString: c.Description},
	)
	for _, p := range toCodeSystemConcept(c).Property {
		params.Parameter = append(params.Parameter, fhir.Parameter{
			Name: "property",
			Part: []fhir.Parameter{
				{Name: "code", ValueCode: p.Code},
				{Name: "value", ValueString: p.ValueString + p.ValueCode},
			},
		})
	}
	for _, syn := range c.Synonyms {
		params.Parameter = append(params.Parameter, fhir.Parameter{
			Name: "designation",
			Part: []fhir.Parameter{{Name: "value", ValueString: syn}},
		})
	}
	return params, nil
}
