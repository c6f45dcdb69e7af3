package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
	"github.com/zatekoja/provider-discovery/pkg/config"
)

// RetrievalMode identifies which retrieval strategy produced a candidate set.
// The mode also selects the scoring strategy downstream.
type RetrievalMode string

const (
	ModeSemantic RetrievalMode = "semantic"
	ModeGeo      RetrievalMode = "geo"
	ModeFilter   RetrievalMode = "filter"
)

// defaultRadiusMiles bounds geo-first retrieval when the request carries a
// coordinate but no explicit distance filter.
const defaultRadiusMiles = 50.0

// RawCandidateSet is the output of one retrieval pass: raw store hits from
// the provider and service collections, plus the query vector when the
// semantic path ran.
type RawCandidateSet struct {
	Mode         RetrievalMode
	QueryVector  []float32
	ProviderHits []repositories.SearchHit
	ServiceHits  []repositories.SearchHit
}

// CandidateRetriever selects a retrieval strategy per request and executes it
// against the document store: semantic vector search when an embedding is
// available, geo-first proximity search when only a coordinate is, and plain
// filtered retrieval otherwise.
type CandidateRetriever struct {
	store    repositories.SearchStore
	embedder providers.EmbeddingProvider
	cfg      config.EngineConfig
	metrics  *observability.Metrics
}

// NewCandidateRetriever creates a new candidate retriever. The embedder may
// be nil, in which case the semantic path never runs.
func NewCandidateRetriever(
	store repositories.SearchStore,
	embedder providers.EmbeddingProvider,
	cfg config.EngineConfig,
	metrics *observability.Metrics,
) *CandidateRetriever {
	return &CandidateRetriever{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// Retrieve runs one retrieval pass for the request. An embedding failure is
// never fatal: the pass degrades to the geo or filter strategy. An error is
// returned only when the chosen strategy produced nothing usable at all.
func (r *CandidateRetriever) Retrieve(ctx context.Context, req *entities.SearchRequest, terms []string) (*RawCandidateSet, error) {
	if vector := r.embedQuery(ctx, req, terms); len(vector) > 0 {
		return r.retrieveSemantic(ctx, req, vector)
	}

	if req.Location != nil {
		return r.retrieveGeo(ctx, req)
	}

	return r.retrieveFilter(ctx, req, terms)
}

// embedQuery returns the query embedding, or nil when the semantic path is
// disabled, there is nothing to embed, or the embedding provider failed.
func (r *CandidateRetriever) embedQuery(ctx context.Context, req *entities.SearchRequest, terms []string) []float32 {
	if !r.cfg.SemanticEnabled || r.embedder == nil {
		return nil
	}

	text := strings.TrimSpace(strings.Join(terms, " "))
	if text == "" {
		text = strings.TrimSpace(req.Query)
	}
	if text == "" {
		return nil
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("Query embedding failed, degrading to non-semantic retrieval")
		return nil
	}
	return vector
}

// retrieveSemantic fans out vector searches over the provider and service
// collections concurrently. Each path carries its own deadline so a slow
// collection cannot starve the other, and a single-path failure yields a
// partial set rather than an error.
func (r *CandidateRetriever) retrieveSemantic(ctx context.Context, req *entities.SearchRequest, vector []float32) (*RawCandidateSet, error) {
	set := &RawCandidateSet{Mode: ModeSemantic, QueryVector: vector}

	var providerErr, serviceErr error
	g := new(errgroup.Group)

	g.Go(func() error {
		pathCtx, cancel := context.WithTimeout(ctx, r.cfg.RetrievalTimeout)
		defer cancel()

		start := time.Now()
		hits, err := r.store.VectorSearch(pathCtx, repositories.VectorSearchParams{
			Collection:     repositories.ProvidersCollection,
			EmbeddingField: "embedding",
			Vector:         vector,
			K:              r.cfg.TopK,
			NumProbes:      r.cfg.NumProbes,
			Filters:        req.Filters,
			Limit:          r.cfg.CandidateCap,
		})
		r.recordPath(ctx, "semantic.providers", start, err)
		if err != nil {
			providerErr = err
			return nil
		}
		set.ProviderHits = hits
		return nil
	})

	g.Go(func() error {
		pathCtx, cancel := context.WithTimeout(ctx, r.cfg.RetrievalTimeout)
		defer cancel()

		start := time.Now()
		hits, err := r.store.VectorSearch(pathCtx, repositories.VectorSearchParams{
			Collection:     repositories.ServicesCollection,
			EmbeddingField: "embedding",
			Vector:         vector,
			K:              r.cfg.TopK,
			NumProbes:      r.cfg.NumProbes,
			Filters:        req.Filters,
			Limit:          r.cfg.CandidateCap,
		})
		r.recordPath(ctx, "semantic.services", start, err)
		if err != nil {
			serviceErr = err
			return nil
		}
		set.ServiceHits = hits
		return nil
	})

	_ = g.Wait()

	if providerErr != nil && serviceErr != nil {
		return nil, fmt.Errorf("semantic retrieval failed on both collections: %w", providerErr)
	}
	if providerErr != nil {
		log.Warn().Err(providerErr).Msg("Provider vector search failed, continuing with service hits only")
	}
	if serviceErr != nil {
		log.Warn().Err(serviceErr).Msg("Service vector search failed, continuing with provider hits only")
	}

	return set, nil
}

// retrieveGeo runs a proximity-ordered provider search around the request
// coordinate. The radius comes from the distance filter when set.
func (r *CandidateRetriever) retrieveGeo(ctx context.Context, req *entities.SearchRequest) (*RawCandidateSet, error) {
	pathCtx, cancel := context.WithTimeout(ctx, r.cfg.RetrievalTimeout)
	defer cancel()

	radius := req.Filters.MaxDistance
	if radius <= 0 {
		radius = defaultRadiusMiles
	}

	start := time.Now()
	hits, err := r.store.ProximitySearch(pathCtx, repositories.ProximitySearchParams{
		Collection:  repositories.ProvidersCollection,
		Location:    *req.Location,
		RadiusMiles: radius,
		Filters:     req.Filters,
		Limit:       r.cfg.CandidateCap,
	})
	r.recordPath(ctx, "geo.providers", start, err)
	if err != nil {
		return nil, fmt.Errorf("proximity retrieval failed: %w", err)
	}

	return &RawCandidateSet{Mode: ModeGeo, ProviderHits: hits}, nil
}

// retrieveFilter runs plain filtered retrieval over providers, plus a service
// pass when the filters target service-level fields. Query terms become a
// text predicate only when text filtering is enabled.
func (r *CandidateRetriever) retrieveFilter(ctx context.Context, req *entities.SearchRequest, terms []string) (*RawCandidateSet, error) {
	pathCtx, cancel := context.WithTimeout(ctx, r.cfg.RetrievalTimeout)
	defer cancel()

	var textTerms []string
	if r.cfg.TextFilterEnabled {
		textTerms = terms
	}

	start := time.Now()
	providerHits, err := r.store.Find(pathCtx, repositories.FindParams{
		Collection: repositories.ProvidersCollection,
		Filters:    req.Filters,
		Terms:      textTerms,
		Limit:      r.cfg.CandidateCap,
	})
	r.recordPath(ctx, "filter.providers", start, err)
	if err != nil {
		return nil, fmt.Errorf("filtered retrieval failed: %w", err)
	}

	set := &RawCandidateSet{Mode: ModeFilter, ProviderHits: providerHits}

	// Service-level filters need service hits so free offerings surface even
	// when their provider document alone would not match.
	if req.Filters.FreeOnly || len(req.Filters.ServiceCategories) > 0 {
		start = time.Now()
		serviceHits, err := r.store.Find(pathCtx, repositories.FindParams{
			Collection: repositories.ServicesCollection,
			Filters:    req.Filters,
			Terms:      textTerms,
			Limit:      r.cfg.CandidateCap,
		})
		r.recordPath(ctx, "filter.services", start, err)
		if err != nil {
			log.Warn().Err(err).Msg("Service filter retrieval failed, continuing with provider hits only")
		} else {
			set.ServiceHits = serviceHits
		}
	}

	return set, nil
}

func (r *CandidateRetriever) recordPath(ctx context.Context, path string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	observability.RecordRetrievalMetric(ctx, r.metrics, path, time.Since(start), err)
}
