package namaste

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

func TestMemoryRepo_GetByCode(t *testing.T) {
	repo := NewMemoryRepo(DefaultConcepts())
	ctx := context.Background()

	c, err := repo.GetByCode(ctx, "nam001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Display != "Vataja Jwara" {
		t.Errorf("expected Vataja Jwara, got %s", c.Display)
	}

	_, err = repo.GetByCode(ctx, "NAM999")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestMemoryRepo_ListPreservesOrder(t *testing.T) {
	repo := NewMemoryRepo(DefaultConcepts())
	all, _ := repo.List(context.Background())
	if len(all) != 10 {
		t.Fatalf("expected 10 concepts, got %d", len(all))
	}
	if all[0].Code != "NAM001" || all[9].Code != "NAM010" {
		t.Errorf("unexpected order: %s..%s", all[0].Code, all[9].Code)
	}
}

func TestMemoryRepo_Search(t *testing.T) {
	repo := NewMemoryRepo(DefaultConcepts())
	ctx := context.Background()

	tests := []struct {
		query string
		total int
	}{
		{"jwara", 3},
		{"FEVER", 3},
		{"dermatitis", 1},
		{"hypertension", 1},
		{"nam01", 1},
		{"", 10},
		{"nothing-like-this", 0},
	}
	for _, tt := range tests {
		items, total, err := repo.Search(ctx, tt.query, 0, 0)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.query, err)
		}
		if total != tt.total || len(items) != tt.total {
			t.Errorf("%q: expected %d, got total=%d len=%d", tt.query, tt.total, total, len(items))
		}
	}
}

func TestMemoryRepo_SearchPaging(t *testing.T) {
	repo := NewMemoryRepo(DefaultConcepts())
	items, total, _ := repo.Search(context.Background(), "", 3, 8)
	if total != 10 || len(items) != 2 {
		t.Fatalf("expected 2 of 10, got %d of %d", len(items), total)
	}
	if items[0].Code != "NAM009" {
		t.Errorf("expected NAM009 first, got %s", items[0].Code)
	}

	items, _, _ = repo.Search(context.Background(), "", 3, 50)
	if len(items) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(items))
	}
}

func TestMemoryRepo_Upsert(t *testing.T) {
	repo := NewMemoryRepo(DefaultConcepts())
	ctx := context.Background()

	repo.Upsert(ctx, []*SourceConcept{
		{Code: "NAM001", Display: "Vataja Jwara (revised)"},
		{Code: "SID001", Display: "Suram", System: "Siddha"},
	})
	all, _ := repo.List(ctx)
	if len(all) != 11 {
		t.Fatalf("expected 11 concepts, got %d", len(all))
	}
	if all[0].Display != "Vataja Jwara (revised)" {
		t.Errorf("expected update in place, got %s", all[0].Display)
	}
	if all[10].Code != "SID001" {
		t.Errorf("expected new concept appended, got %s", all[10].Code)
	}
}

func TestParseCatalog_YAMLList(t *testing.T) {
	data := []byte(`
- code: NAM001
  display: Vataja Jwara
  category: Fever Disorders
  keywords: [fever, vata]
  synonyms: [Vata Fever]
- code: NAM004
  display: Madhumeha
`)
	concepts, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 2 || concepts[0].Keywords[1] != "vata" || concepts[1].Display != "Madhumeha" {
		t.Errorf("unexpected concepts: %+v", concepts)
	}
}

func TestParseCatalog_Mapping(t *testing.T) {
	data := []byte("concepts:\n  - code: UNA001\n    display: Humma\n    system: Unani\n")
	concepts, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 1 || concepts[0].System != "Unani" {
		t.Errorf("unexpected concepts: %+v", concepts)
	}
}

func TestParseCatalog_JSON(t *testing.T) {
	data := []byte(`[{"code": "NAM010", "display": "Apasmara", "keywords": ["epilepsy"]}]`)
	concepts, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concepts[0].Code != "NAM010" || concepts[0].Keywords[0] != "epilepsy" {
		t.Errorf("unexpected concepts: %+v", concepts)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"scalar":          `hello`,
		"missing code":    "- display: Foo\n",
		"missing display": "- code: X1\n",
		"duplicate":       "- {code: X1, display: A}\n- {code: x1, display: B}\n",
		"bad yaml":        "- code: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("- {code: NAM002, display: Pittaja Jwara}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	concepts, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concepts[0].Code != "NAM002" {
		t.Errorf("unexpected concepts: %+v", concepts)
	}

	if _, err := LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read catalog") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	cats := Categories(DefaultConcepts())
	if len(cats) != 8 {
		t.Fatalf("expected 8 categories, got %v", cats)
	}
	if cats[0] != "Cardiac Disorders" {
		t.Errorf("expected sorted categories, got %v", cats)
	}
}
