package icd11

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/termbridge/termbridge/internal/platform/apperr"
)

const (
	// DefaultSearchURL is the public ICD-11 clinical tables search endpoint.
	DefaultSearchURL = "https://clinicaltables.nlm.nih.gov/api/icd11_codes/v3/search"
	// DefaultDisplayFields selects the tuple columns decoded by DecodeSearchResponse.
	DefaultDisplayFields = "code,title,type"
	// DefaultMaxResults is used when a caller passes a non-positive limit.
	DefaultMaxResults = 5

	maxResponseBytes = 4 << 20
)

// Stats is a snapshot of client counters.
type Stats struct {
	CacheHits        int64 `json:"cacheHits"`
	CacheMisses      int64 `json:"cacheMisses"`
	UpstreamCalls    int64 `json:"upstreamCalls"`
	UpstreamFailures int64 `json:"upstreamFailures"`
	CachedEntries    int   `json:"cachedEntries,omitempty"`
}

// Client queries the external ICD-11 search service through a Cache.
// Upstream failures never surface to callers: they are logged and yield an
// empty result.
type Client struct {
	baseURL        string
	displayFields  string
	httpClient     *http.Client
	cache          Cache
	logger         zerolog.Logger
	maxConcurrency int

	hits     atomic.Int64
	misses   atomic.Int64
	calls    atomic.Int64
	failures atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDisplayFields overrides the df query parameter.
func WithDisplayFields(df string) Option {
	return func(c *Client) {
		if df != "" {
			c.displayFields = df
		}
	}
}

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithMaxConcurrency caps in-flight searches during FindMatches. Zero or a
// negative value leaves the fan-out unbounded.
func WithMaxConcurrency(n int) Option {
	return func(c *Client) { c.maxConcurrency = n }
}

// NewClient creates a Client for baseURL. An empty baseURL uses
// DefaultSearchURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	c := &Client{
		baseURL:       baseURL,
		displayFields: DefaultDisplayFields,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		cache:         NewMemoryCache(DefaultCacheTTL),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to maxResults concepts matching term. Blank terms return
// an empty slice without contacting the upstream.
func (c *Client) Search(ctx context.Context, term string, maxResults int) []ExternalConcept {
	term = strings.TrimSpace(term)
	if term == "" {
		return []ExternalConcept{}
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	key := NewCacheKey(term, maxResults)
	if concepts, ok := c.cache.Get(ctx, key); ok {
		c.hits.Add(1)
		return concepts
	}
	c.misses.Add(1)

	concepts, err := c.fetch(ctx, term, maxResults)
	if err != nil {
		c.failures.Add(1)
		c.logger.Warn().Err(err).Str("term", term).Int("max_results", maxResults).
			Msg("icd11 search failed, returning no results")
		return []ExternalConcept{}
	}
	c.cache.Put(ctx, key, concepts)
	return concepts
}

func (c *Client) fetch(ctx context.Context, term string, maxResults int) ([]ExternalConcept, error) {
	const op = "icd11.Search"

	q := url.Values{}
	q.Set("terms", term)
	q.Set("maxList", strconv.Itoa(maxResults))
	q.Set("df", c.displayFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	req.Header.Set("Accept", "application/json")

	c.calls.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	concepts, err := DecodeSearchResponse(body)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	return concepts, nil
}

// FindMatches searches every term concurrently and merges the results by
// code, keeping the higher InitialConfidence for duplicates. The merged
// list is sorted by confidence descending, ties in discovery order, and
// capped at twice maxResultsPerTerm.
func (c *Client) FindMatches(ctx context.Context, terms []string, maxResultsPerTerm int) []ExternalConcept {
	if len(terms) == 0 {
		return []ExternalConcept{}
	}
	if maxResultsPerTerm <= 0 {
		maxResultsPerTerm = DefaultMaxResults
	}

	perTerm := make([][]ExternalConcept, len(terms))
	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for i, term := range terms {
		g.Go(func() error {
			perTerm[i] = c.Search(ctx, term, maxResultsPerTerm)
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeByCode(perTerm)
	if limit := 2 * maxResultsPerTerm; len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func mergeByCode(perTerm [][]ExternalConcept) []ExternalConcept {
	index := make(map[string]int)
	var out []ExternalConcept
	for _, concepts := range perTerm {
		for _, ec := range concepts {
			if pos, ok := index[ec.Code]; ok {
				if ec.InitialConfidence > out[pos].InitialConfidence {
					out[pos] = ec
				}
				continue
			}
			index[ec.Code] = len(out)
			out = append(out, ec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InitialConfidence > out[j].InitialConfidence
	})
	if out == nil {
		out = []ExternalConcept{}
	}
	return out
}

// Resolve finds the concept whose code matches exactly, ignoring case.
func (c *Client) Resolve(ctx context.Context, code string) (*ExternalConcept, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.InvalidInput("icd11.Resolve", "code is required")
	}
	for _, ec := range c.Search(ctx, code, DefaultMaxResults) {
		if strings.EqualFold(ec.Code, code) {
			found := ec
			return &found, nil
		}
	}
	return nil, apperr.NotFound("icd11.Resolve", "ICD-11 code %q not found", code)
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	s := Stats{
		CacheHits:        c.hits.Load(),
		CacheMisses:      c.misses.Load(),
		UpstreamCalls:    c.calls.Load(),
		UpstreamFailures: c.failures.Load(),
	}
	if mc, ok := c.cache.(*MemoryCache); ok {
		s.CachedEntries = mc.Len()
	}
	return s
}
