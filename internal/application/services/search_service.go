package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/pkg/config"
	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
	"github.com/zatekoja/provider-discovery/pkg/geoutil"
)

// analyticsTimeout bounds the best-effort search outcome recording.
const analyticsTimeout = 2 * time.Second

// SearchService is the retrieval and ranking engine's entry point. It wires
// term expansion, candidate retrieval, merging, scoring, and finalization
// into one pipeline per request.
type SearchService struct {
	cfg       config.EngineConfig
	expander  *TermExpansionService
	matcher   *TermMatchService
	retriever *CandidateRetriever
	merger    *CandidateMerger
	finalizer *ResultFinalizer
	store     repositories.SearchStore
	analytics repositories.SearchAnalyticsRepository
}

// NewSearchService creates the search engine. The analytics repository may
// be nil, in which case outcomes are not recorded.
func NewSearchService(
	cfg config.EngineConfig,
	expander *TermExpansionService,
	matcher *TermMatchService,
	retriever *CandidateRetriever,
	merger *CandidateMerger,
	store repositories.SearchStore,
	analytics repositories.SearchAnalyticsRepository,
) *SearchService {
	return &SearchService{
		cfg:       cfg,
		expander:  expander,
		matcher:   matcher,
		retriever: retriever,
		merger:    merger,
		finalizer: NewResultFinalizer(cfg.HardResultCap),
		store:     store,
		analytics: analytics,
	}
}

// Search runs one search request through the full pipeline. Partial
// retrieval failures degrade the result set; only a total retrieval failure
// or an invalid request is an error.
func (s *SearchService) Search(ctx context.Context, req *entities.SearchRequest) (resp *entities.SearchResponse, err error) {
	// Ranking runs arbitrary arithmetic over externally-sourced documents;
	// a malformed document must fail the request, not the process.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", req.Query).Msg("Search pipeline panicked")
			resp = nil
			err = apperrors.NewInternalError("search pipeline failure", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	terms := s.expander.Expand(req.Query)

	set, err := s.retriever.Retrieve(ctx, req, terms)
	if err != nil {
		return nil, s.retrievalError(ctx, err)
	}

	candidates := s.merger.Merge(ctx, set, req)

	// Without a similarity signal, retrieval is recall-oriented; lexical
	// matching restores precision when the user actually typed something.
	if set.Mode != ModeSemantic && strings.TrimSpace(req.Query) != "" {
		matched := candidates[:0]
		for _, c := range candidates {
			if s.matcher.Matches(&c.Provider, terms) {
				matched = append(matched, c)
			}
		}
		candidates = matched
	}

	scorer := s.scorerFor(set)
	for _, c := range candidates {
		c.Score = scorer.Score(c)
	}

	resp = s.finalizer.Finalize(candidates, req, terms)

	log.Info().
		Str("query", req.Query).
		Str("mode", string(set.Mode)).
		Str("scorer", scorer.Name()).
		Int("candidates", len(candidates)).
		Int("returned", resp.ProviderCount).
		Msg("Search completed")

	s.recordOutcome(req.Query, resp.TotalAvailable)

	return resp, nil
}

// scorerFor selects the scoring strategy for a candidate set: blended for
// the semantic and geo paths, volume-based for the filter path.
func (s *SearchService) scorerFor(set *RawCandidateSet) Scorer {
	if set.Mode == ModeFilter {
		return NewVolumeScorer()
	}
	return NewBlendedScorer(set.QueryVector, s.cfg.MaxServiceScan)
}

// retrievalError upgrades a total retrieval failure into a configuration
// error with the store's available collections when a required collection is
// missing, so the diagnosis is in the error itself.
func (s *SearchService) retrievalError(ctx context.Context, err error) error {
	available, colErr := s.store.Collections(ctx)
	if colErr != nil {
		return apperrors.NewInternalError("retrieval failed", err)
	}

	present := make(map[string]bool, len(available))
	for _, name := range available {
		present[name] = true
	}

	for _, required := range []string{repositories.ProvidersCollection, repositories.ServicesCollection} {
		if !present[required] {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("search collection %q does not exist", required),
				fmt.Sprintf("available collections: %s", strings.Join(available, ", ")),
			)
		}
	}

	return apperrors.NewInternalError("retrieval failed", err)
}

// recordOutcome records the search outcome off the request path. Failures
// are logged and dropped.
func (s *SearchService) recordOutcome(query string, resultCount int) {
	if s.analytics == nil || strings.TrimSpace(query) == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
		defer cancel()
		if err := s.analytics.RecordSearch(ctx, query, resultCount); err != nil {
			log.Warn().Err(err).Str("query", query).Msg("Failed to record search outcome")
		}
	}()
}

func validateRequest(req *entities.SearchRequest) error {
	if req == nil {
		return apperrors.NewValidationError("request is required")
	}
	if req.Limit < 0 {
		return apperrors.NewValidationError("limit must not be negative")
	}
	if req.Filters.MaxDistance < 0 {
		return apperrors.NewValidationError("maxDistance must not be negative")
	}
	if req.Location != nil && !geoutil.ValidCoordinate(req.Location.Longitude, req.Location.Latitude) {
		return apperrors.NewValidationError("location coordinates are out of range")
	}
	if strings.TrimSpace(req.Query) == "" && req.Location == nil && emptyFilters(req.Filters) {
		return apperrors.NewValidationError("query, location, or filters required")
	}
	return nil
}

func emptyFilters(f entities.Filters) bool {
	return !f.FreeOnly && !f.AcceptsMedicaid && !f.AcceptsMedicare &&
		!f.AcceptsUninsured && !f.TelehealthAvailable && f.MaxDistance == 0 &&
		len(f.InsuranceProviders) == 0 && len(f.ServiceCategories) == 0
}
