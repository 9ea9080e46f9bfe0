package mapping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/termbridge/termbridge/internal/domain/namaste"
	"github.com/termbridge/termbridge/internal/platform/apperr"
	"github.com/termbridge/termbridge/internal/platform/icd11"
)

const (
	DefaultMaxResults          = 5
	DefaultConfidenceThreshold = 0.3
)

// Lookup is the external terminology search the service fans out to.
type Lookup interface {
	FindMatches(ctx context.Context, terms []string, maxResultsPerTerm int) []icd11.ExternalConcept
	Resolve(ctx context.Context, code string) (*icd11.ExternalConcept, error)
}

// Catalog is the read-only source terminology.
type Catalog interface {
	List(ctx context.Context) ([]*namaste.SourceConcept, error)
	GetByCode(ctx context.Context, code string) (*namaste.SourceConcept, error)
}

// Service maps concepts between NAMASTE and ICD-11.
type Service struct {
	catalog   Catalog
	lookup    Lookup
	scheduler Scheduler
	logger    zerolog.Logger

	maxResults int
	threshold  float64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithScheduler sets the batch scheduler.
func WithScheduler(s Scheduler) ServiceOption {
	return func(svc *Service) { svc.scheduler = s }
}

// WithDefaults overrides the result limit and threshold used when a request
// leaves them unset.
func WithDefaults(maxResults int, threshold float64) ServiceOption {
	return func(svc *Service) {
		if maxResults > 0 {
			svc.maxResults = maxResults
		}
		if threshold >= 0 && threshold <= 1 {
			svc.threshold = threshold
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// NewService creates a mapping service.
func NewService(catalog Catalog, lookup Lookup, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:    catalog,
		lookup:     lookup,
		scheduler:  NewPacedScheduler(0),
		logger:     zerolog.Nop(),
		maxResults: DefaultMaxResults,
		threshold:  DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) resolve(opts Options) (int, float64) {
	maxResults, threshold := s.maxResults, s.threshold
	if opts.MaxResults > 0 {
		maxResults = opts.MaxResults
	}
	if opts.ConfidenceThreshold != nil {
		threshold = *opts.ConfidenceThreshold
	}
	return maxResults, threshold
}

// SearchTerms is the deduplicated union of the concept's keywords, its
// lower-cased synonyms and the keywords extracted from its display and
// description.
func SearchTerms(source *namaste.SourceConcept) []string {
	seen := make(map[string]struct{})
	terms := []string{}
	add := func(t string) {
		t = normalize(t)
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	for _, kw := range source.Keywords {
		add(kw)
	}
	for _, syn := range source.Synonyms {
		add(syn)
	}
	for _, kw := range ExtractKeywords(source.Display) {
		add(kw)
	}
	for _, kw := range ExtractKeywords(source.Description) {
		add(kw)
	}
	return terms
}

// MapSourceToTarget returns ICD-11 candidates for source with confidence at
// or above the threshold, best first, at most maxResults long. Candidates
// with equal confidence keep the order they were discovered in.
func (s *Service) MapSourceToTarget(ctx context.Context, source *namaste.SourceConcept, opts Options) []Mapping {
	maxResults, threshold := s.resolve(opts)

	terms := SearchTerms(source)
	candidates := s.lookup.FindMatches(ctx, terms, maxResults)

	mappings := make([]Mapping, 0, len(candidates))
	for _, cand := range candidates {
		score := Score(source.Display, cand.Display, source.Keywords)
		confidence := score
		if cand.InitialConfidence > confidence {
			confidence = cand.InitialConfidence
		}
		mappings = append(mappings, Mapping{
			SourceCode:    source.Code,
			SourceDisplay: source.Display,
			SourceSystem:  namaste.SystemURI,
			TargetCode:    cand.Code,
			TargetDisplay: cand.Display,
			TargetSystem:  icd11.SystemURI,
			Confidence:    confidence,
			Equivalence:   ClassifyEquivalence(confidence),
			Reasoning:     reasoning(confidence, cand.Display, source.Keywords, cand.MatchType == icd11.MatchStem),
			MatchType:     cand.MatchType,
		})
	}

	out := rank(mappings, threshold, maxResults)
	s.logger.Debug().Str("code", source.Code).Int("terms", len(terms)).
		Int("candidates", len(candidates)).Int("mappings", len(out)).Msg("forward mapping")
	return out
}

// MapCode resolves code in the catalog and maps it forward.
func (s *Service) MapCode(ctx context.Context, code string, opts Options) (*namaste.SourceConcept, []Mapping, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil, apperr.InvalidInput("mapping.MapCode", "code is required")
	}
	source, err := s.catalog.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	return source, s.MapSourceToTarget(ctx, source, opts), nil
}

// MapTargetToSource resolves an ICD-11 code and scores every catalog concept
// against it. An unresolvable code is NotFound.
func (s *Service) MapTargetToSource(ctx context.Context, targetCode string, opts Options) (*icd11.ExternalConcept, []Mapping, error) {
	maxResults, threshold := s.resolve(opts)

	target, err := s.lookup.Resolve(ctx, targetCode)
	if err != nil {
		return nil, nil, err
	}
	concepts, err := s.catalog.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list catalog: %w", err)
	}

	mappings := make([]Mapping, 0, len(concepts))
	for _, c := range concepts {
		confidence := Score(c.Display, target.Display, c.Keywords)
		mappings = append(mappings, Mapping{
			SourceCode:    c.Code,
			SourceDisplay: c.Display,
			SourceSystem:  namaste.SystemURI,
			TargetCode:    target.Code,
			TargetDisplay: target.Display,
			TargetSystem:  icd11.SystemURI,
			Confidence:    confidence,
			Equivalence:   ClassifyEquivalence(confidence),
			Reasoning:     reasoning(confidence, target.Display, c.Keywords, false),
			MatchType:     target.MatchType,
		})
	}
	return target, rank(mappings, threshold, maxResults), nil
}

// MapBatch maps each code in order through the scheduler. An unknown code
// fails only its own item; the result always has one item per code.
func (s *Service) MapBatch(ctx context.Context, codes []string, opts Options) *BatchResult {
	items := make([]BatchItem, len(codes))
	done := make([]bool, len(codes))

	err := s.scheduler.Run(ctx, len(codes), func(ctx context.Context, i int) {
		done[i] = true
		_, mappings, err := s.MapCode(ctx, codes[i], opts)
		if err != nil {
			items[i] = BatchItem{Code: codes[i], Error: err.Error()}
			return
		}
		items[i] = BatchItem{Code: codes[i], Success: true, Mappings: mappings}
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("codes", len(codes)).Msg("batch mapping interrupted")
	}

	result := &BatchResult{Results: items, Summary: BatchSummary{Total: len(codes)}}
	for i := range items {
		if !done[i] {
			items[i] = BatchItem{Code: codes[i], Error: fmt.Sprintf("not processed: %v", err)}
		}
		if items[i].Success {
			result.Summary.Succeeded++
		} else {
			result.Summary.Failed++
		}
	}
	return result
}

func reasoning(confidence float64, targetDisplay string, keywords []string, stemMatch bool) string {
	var parts []string
	switch {
	case confidence >= 0.8:
		parts = append(parts, "High semantic similarity")
	case confidence >= 0.6:
		parts = append(parts, "Moderate similarity")
	default:
		parts = append(parts, "Keyword match")
	}
	if hasKeywordOverlap(targetDisplay, keywords) {
		parts = append(parts, "Keyword overlap")
	}
	if stemMatch {
		parts = append(parts, "ICD-11 category level match")
	}
	return strings.Join(parts, ", ")
}

// rank drops mappings under threshold, sorts the rest by confidence
// descending with a stable sort and keeps the first maxResults.
func rank(mappings []Mapping, threshold float64, maxResults int) []Mapping {
	kept := mappings[:0]
	for _, m := range mappings {
		if m.Confidence >= threshold {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	if maxResults > 0 && len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}
