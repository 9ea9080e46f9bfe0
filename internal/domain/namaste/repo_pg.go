package namaste

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/termbridge/termbridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG serves the catalog from the namaste_concept table.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const conceptColumns = `code, display, description, category, system, keywords, synonyms`

func scanConcept(row pgx.Row) (*SourceConcept, error) {
	var c SourceConcept
	if err := row.Scan(&c.Code, &c.Display, &c.Description, &c.Category, &c.System, &c.Keywords, &c.Synonyms); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) List(ctx context.Context) ([]*SourceConcept, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+conceptColumns+` FROM namaste_concept ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("namaste list: %w", err)
	}
	defer rows.Close()
	var out []*SourceConcept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("namaste list scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*SourceConcept, error) {
	c, err := scanConcept(r.conn(ctx).QueryRow(ctx,
		`SELECT `+conceptColumns+` FROM namaste_concept WHERE upper(code) = upper($1)`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(code)
	}
	if err != nil {
		return nil, fmt.Errorf("namaste get: %w", err)
	}
	return c, nil
}

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*SourceConcept, int, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	const where = `WHERE code ILIKE $1 OR display ILIKE $1 OR description ILIKE $1
		 OR EXISTS (SELECT 1 FROM unnest(synonyms || keywords) AS t WHERE t ILIKE $1)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM namaste_concept `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("namaste search count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+conceptColumns+` FROM namaste_concept `+where+` ORDER BY code LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("namaste search: %w", err)
	}
	defer rows.Close()
	out := []*SourceConcept{}
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("namaste search scan: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Upsert(ctx context.Context, concepts []*SourceConcept) (int, error) {
	q := r.conn(ctx)
	for _, c := range concepts {
		_, err := q.Exec(ctx,
			`INSERT INTO namaste_concept (`+conceptColumns+`, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 ON CONFLICT (code) DO UPDATE SET
			   display = EXCLUDED.display, description = EXCLUDED.description,
			   category = EXCLUDED.category, system = EXCLUDED.system,
			   keywords = EXCLUDED.keywords, synonyms = EXCLUDED.synonyms,
			   updated_at = NOW()`,
			c.Code, c.Display, c.Description, c.Category, c.System, nonNil(c.Keywords), nonNil(c.Synonyms))
		if err != nil {
			return 0, fmt.Errorf("namaste upsert %s: %w", c.Code, err)
		}
	}
	return len(concepts), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
