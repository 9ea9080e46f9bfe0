package namaste

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type memoryRepo struct {
	mu       sync.RWMutex
	concepts map[string]*SourceConcept
	order    []string
}

// NewMemoryRepo serves concepts from memory in the order given. Codes are
// matched case-insensitively.
func NewMemoryRepo(concepts []*SourceConcept) Repository {
	r := &memoryRepo{concepts: make(map[string]*SourceConcept, len(concepts))}
	r.Upsert(context.Background(), concepts)
	return r
}

func (r *memoryRepo) List(_ context.Context) ([]*SourceConcept, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*SourceConcept, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.concepts[key])
	}
	return out, nil
}

func (r *memoryRepo) GetByCode(_ context.Context, code string) (*SourceConcept, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.concepts[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, notFound(code)
	}
	return c, nil
}

func (r *memoryRepo) Search(ctx context.Context, query string, limit, offset int) ([]*SourceConcept, int, error) {
	all, _ := r.List(ctx)
	matched := []*SourceConcept{}
	for _, c := range all {
		if c.Matches(query) {
			matched = append(matched, c)
		}
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *memoryRepo) Upsert(_ context.Context, concepts []*SourceConcept) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range concepts {
		key := strings.ToUpper(c.Code)
		if _, exists := r.concepts[key]; !exists {
			r.order = append(r.order, key)
		}
		r.concepts[key] = c
	}
	return len(concepts), nil
}

type catalogFile struct {
	Concepts []*SourceConcept `yaml:"concepts"`
}

// ParseCatalog decodes a catalog document. Both a bare list of concepts and
// a mapping with a "concepts" key are accepted; JSON input works as well.
func ParseCatalog(data []byte) ([]*SourceConcept, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("parse catalog: empty document")
	}

	var concepts []*SourceConcept
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&concepts); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case yaml.MappingNode:
		var f catalogFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		concepts = f.Concepts
	default:
		return nil, fmt.Errorf("parse catalog: expected a list or a mapping")
	}

	seen := make(map[string]bool, len(concepts))
	for i, c := range concepts {
		if c == nil {
			return nil, fmt.Errorf("parse catalog: entry %d is empty", i)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("parse catalog: entry %d: %w", i, err)
		}
		key := strings.ToUpper(c.Code)
		if seen[key] {
			return nil, fmt.Errorf("parse catalog: duplicate code %s", c.Code)
		}
		seen[key] = true
	}
	return concepts, nil
}

// LoadCatalogFile reads and parses a catalog file.
func LoadCatalogFile(path string) ([]*SourceConcept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(concepts []*SourceConcept) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range concepts {
		if c.Category != "" && !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	sort.Strings(out)
	return out
}
