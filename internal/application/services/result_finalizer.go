package services

import (
	"sort"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// ResultFinalizer applies the distance filter, orders scored candidates, caps
// the result set, and strips internal payload before the response leaves the
// engine.
type ResultFinalizer struct {
	hardResultCap int
}

// NewResultFinalizer creates a finalizer with the given hard result cap.
func NewResultFinalizer(hardResultCap int) *ResultFinalizer {
	return &ResultFinalizer{hardResultCap: hardResultCap}
}

// Finalize produces the response envelope from scored candidates: score
// descending, with retrieval arrival order breaking ties. The requested
// limit is honored up to the hard cap.
func (f *ResultFinalizer) Finalize(candidates []*entities.MergedCandidate, req *entities.SearchRequest, terms []string) *entities.SearchResponse {
	filtered := f.applyDistanceFilter(candidates, req)

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].RetrievalOrder < filtered[j].RetrievalOrder
	})

	totalAvailable := len(filtered)

	limit := req.Limit
	if limit <= 0 || limit > f.hardResultCap {
		limit = f.hardResultCap
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	serviceCount := 0
	for _, c := range filtered {
		sanitizeCandidate(c)
		serviceCount += len(c.Services)
	}

	return &entities.SearchResponse{
		Providers:      filtered,
		ProviderCount:  len(filtered),
		ServiceCount:   serviceCount,
		TotalAvailable: totalAvailable,
		SearchParams: entities.SearchParams{
			Query:         req.Query,
			ExpandedTerms: terms,
			Location:      req.Location,
			Filters:       req.Filters,
		},
	}
}

// applyDistanceFilter enforces the max-distance filter. When the request
// carries a coordinate, a candidate with an unknown distance is filtered
// out rather than given the benefit of the doubt.
func (f *ResultFinalizer) applyDistanceFilter(candidates []*entities.MergedCandidate, req *entities.SearchRequest) []*entities.MergedCandidate {
	if req.Filters.MaxDistance <= 0 {
		return candidates
	}

	kept := make([]*entities.MergedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceMiles == nil {
			if req.Location != nil {
				continue
			}
			kept = append(kept, c)
			continue
		}
		if *c.DistanceMiles > req.Filters.MaxDistance {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// sanitizeCandidate strips embedding vectors from everything the response
// serializes. Embeddings are large and internal; they never leave the
// engine.
func sanitizeCandidate(c *entities.MergedCandidate) {
	c.Embedding = nil
	for _, svc := range c.Services {
		svc.Embedding = nil
	}
	if c.BestService != nil {
		c.BestService.Embedding = nil
	}
	if c.CheapestService != nil {
		c.CheapestService.Embedding = nil
	}
}
