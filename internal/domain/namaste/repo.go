package namaste

import (
	"context"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

// Repository provides read access to the catalog plus bulk import.
type Repository interface {
	List(ctx context.Context) ([]*SourceConcept, error)
	GetByCode(ctx context.Context, code string) (*SourceConcept, error)
	// Search returns one page of matches and the total match count.
	Search(ctx context.Context, query string, limit, offset int) ([]*SourceConcept, int, error)
	Upsert(ctx context.Context, concepts []*SourceConcept) (int, error)
}

func errMissing(field string) error {
	return apperr.InvalidInput("namaste.Validate", "%s is required", field)
}

func notFound(code string) error {
	return apperr.NotFound("namaste.GetByCode", "NAMASTE code %q not found", code)
}
