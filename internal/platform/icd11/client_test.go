package icd11

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

// fakeUpstream serves canned search responses keyed by the terms parameter
// and counts every request.
type fakeUpstream struct {
	mu        sync.Mutex
	responses map[string]string
	status    int
	delay     time.Duration
	calls     atomic.Int64
	lastQuery string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastQuery = r.URL.RawQuery
	body, ok := f.responses[r.URL.Query().Get("terms")]
	status := f.status
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		body = `[0, [], null, [], []]`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func newTestClient(t *testing.T, f *fakeUpstream, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

const feverResponse = `[1, ["MG30"], null, [["MG30 Fever, unspecified", "Fever, unspecified", "stem"]], ["icd11"]]`

func TestClient_Search(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{"fever": feverResponse}}
	c := newTestClient(t, up)

	got := c.Search(context.Background(), "fever", 5)
	if len(got) != 1 || got[0].Code != "MG30" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if !strings.Contains(up.lastQuery, "maxList=5") || !strings.Contains(up.lastQuery, "df=code%2Ctitle%2Ctype") {
		t.Errorf("unexpected query: %s", up.lastQuery)
	}
}

func TestClient_Search_BlankTermMakesNoCall(t *testing.T) {
	up := &fakeUpstream{}
	c := newTestClient(t, up)

	for _, term := range []string{"", "   ", "\t\n"} {
		got := c.Search(context.Background(), term, 5)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice for %q, got %v", term, got)
		}
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected no upstream calls, got %d", up.calls.Load())
	}
}

func TestClient_Search_CacheIdempotence(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{"fever": feverResponse}}
	c := newTestClient(t, up)
	ctx := context.Background()

	first := c.Search(ctx, "fever", 5)
	second := c.Search(ctx, "FEVER ", 5)
	if up.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.calls.Load())
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
	stats := c.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 1 || stats.UpstreamCalls != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestClient_Search_CacheExpiry(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{"fever": feverResponse}}
	clock := newFakeClock()
	c := newTestClient(t, up, WithCache(NewMemoryCache(time.Hour, WithClock(clock.Now))))
	ctx := context.Background()

	c.Search(ctx, "fever", 5)
	clock.Advance(time.Hour)
	c.Search(ctx, "fever", 5)

	if up.calls.Load() != 2 {
		t.Errorf("expected a refetch after the TTL, got %d calls", up.calls.Load())
	}
}

func TestClient_Search_FailuresAbsorbed(t *testing.T) {
	tests := []struct {
		name string
		up   *fakeUpstream
	}{
		{"server error", &fakeUpstream{status: http.StatusInternalServerError}},
		{"not found", &fakeUpstream{status: http.StatusNotFound}},
		{"malformed", &fakeUpstream{responses: map[string]string{"fever": `{"error": "bad"}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.up)
			got := c.Search(context.Background(), "fever", 5)
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty slice, got %v", got)
			}
			if c.Stats().UpstreamFailures != 1 {
				t.Errorf("expected 1 failure, got %+v", c.Stats())
			}

			// failures are not cached
			c.Search(context.Background(), "fever", 5)
			if tt.up.calls.Load() != 2 {
				t.Errorf("expected failed lookups to be retried, got %d calls", tt.up.calls.Load())
			}
		})
	}
}

func TestClient_Search_Timeout(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{"fever": feverResponse}, delay: 200 * time.Millisecond}
	c := newTestClient(t, up, WithTimeout(20*time.Millisecond))

	got := c.Search(context.Background(), "fever", 5)
	if len(got) != 0 {
		t.Errorf("expected timeout to yield no results, got %v", got)
	}
}

func TestClient_FindMatches_DedupKeepsMaxConfidence(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{
		"fever":   `[2, ["MG30", "1D01"], null, [["", "Fever, unspecified", "other"], ["", "Viral fever", "extension"]]]`,
		"pyrexia": `[1, ["MG30"], null, [["", "Fever, unspecified", "stem"]]]`,
	}}
	c := newTestClient(t, up)

	got := c.FindMatches(context.Background(), []string{"fever", "pyrexia"}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique codes, got %+v", got)
	}
	seen := map[string]bool{}
	for _, ec := range got {
		if seen[ec.Code] {
			t.Errorf("duplicate code %s", ec.Code)
		}
		seen[ec.Code] = true
	}
	if got[0].Code != "MG30" || got[0].InitialConfidence != 0.9 {
		t.Errorf("expected MG30 with merged confidence 0.9 first, got %+v", got[0])
	}
	if up.calls.Load() != 2 {
		t.Errorf("expected one call per term, got %d", up.calls.Load())
	}
}

func TestClient_FindMatches_CapsAtTwiceLimit(t *testing.T) {
	var codes, tuples []string
	for i := 0; i < 6; i++ {
		codes = append(codes, fmt.Sprintf(`"C%d"`, i))
		tuples = append(tuples, fmt.Sprintf(`["", "Concept %d", "other"]`, i))
	}
	body := fmt.Sprintf(`[6, [%s], null, [%s]]`, strings.Join(codes, ","), strings.Join(tuples, ","))
	up := &fakeUpstream{responses: map[string]string{"a": body}}
	c := newTestClient(t, up)

	got := c.FindMatches(context.Background(), []string{"a"}, 2)
	if len(got) != 4 {
		t.Fatalf("expected 4 results, got %d", len(got))
	}
	for i, ec := range got {
		if ec.Code != fmt.Sprintf("C%d", i) {
			t.Errorf("expected discovery order to break ties, got %s at %d", ec.Code, i)
		}
	}
}

func TestClient_FindMatches_EmptyTerms(t *testing.T) {
	up := &fakeUpstream{}
	c := newTestClient(t, up)

	got := c.FindMatches(context.Background(), nil, 5)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected no calls, got %d", up.calls.Load())
	}
}

func TestClient_FindMatches_PartialFailure(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{
		"fever": feverResponse,
		"vata":  `not json`,
	}}
	c := newTestClient(t, up, WithMaxConcurrency(1))

	got := c.FindMatches(context.Background(), []string{"fever", "vata"}, 5)
	if len(got) != 1 || got[0].Code != "MG30" {
		t.Errorf("expected the healthy term's result, got %+v", got)
	}
}

func TestClient_Resolve(t *testing.T) {
	up := &fakeUpstream{responses: map[string]string{
		"MG30": `[2, ["MG30.0", "MG30"], null, [["", "Fever sub", "extension"], ["", "Fever, unspecified", "stem"]]]`,
	}}
	c := newTestClient(t, up)
	ctx := context.Background()

	got, err := c.Resolve(ctx, "MG30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Code != "MG30" || got.Display != "Fever, unspecified" {
		t.Errorf("unexpected concept: %+v", got)
	}

	if _, err := c.Resolve(ctx, "ZZ99"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
	if _, err := c.Resolve(ctx, " "); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("expected invalid-input, got %v", err)
	}
}
