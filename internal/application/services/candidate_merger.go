package services

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
	"github.com/zatekoja/provider-discovery/pkg/geoutil"
	"github.com/zatekoja/provider-discovery/pkg/utils"
)

// CandidateMerger reconciles raw provider-index and service-index hits into
// per-provider MergedCandidate aggregates. Candidates seeded only by service
// hits are enriched from the provider repository in one batch; service hits
// whose provider cannot be resolved are discarded, never fatal.
type CandidateMerger struct {
	loader  *dataloader.Loader[string, *entities.Provider]
	metrics *observability.Metrics
}

// NewCandidateMerger creates a merger whose enrichment reads batch through
// the given repository. The loader runs uncached: provider state must be
// fresh per request.
func NewCandidateMerger(repo repositories.ProviderRepository, metrics *observability.Metrics) *CandidateMerger {
	batchFn := func(ctx context.Context, ids []string) []*dataloader.Result[*entities.Provider] {
		results := make([]*dataloader.Result[*entities.Provider], len(ids))

		fetched, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*entities.Provider]{Error: err}
			}
			return results
		}

		byID := make(map[string]*entities.Provider, len(fetched))
		for _, p := range fetched {
			byID[p.ID] = p
		}
		for i, id := range ids {
			results[i] = &dataloader.Result[*entities.Provider]{Data: byID[id]}
		}
		return results
	}

	return &CandidateMerger{
		loader: dataloader.NewBatchedLoader(
			batchFn,
			dataloader.WithCache[string, *entities.Provider](&dataloader.NoCache[string, *entities.Provider]{}),
		),
		metrics: metrics,
	}
}

// Merge builds the per-provider candidate list from one retrieval pass,
// preserving retrieval arrival order. The returned candidates all have a
// resolved provider identity; anything unresolvable has been dropped.
func (m *CandidateMerger) Merge(ctx context.Context, set *RawCandidateSet, req *entities.SearchRequest) []*entities.MergedCandidate {
	byID := make(map[string]*entities.MergedCandidate)
	var ordered []*entities.MergedCandidate
	orphaned := 0

	candidate := func(id string) *entities.MergedCandidate {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &entities.MergedCandidate{
			Provider:       entities.Provider{ID: id},
			BestSimilarity: -1,
			RetrievalOrder: len(ordered),
		}
		byID[id] = c
		ordered = append(ordered, c)
		return c
	}

	for _, hit := range set.ProviderHits {
		p := providerFromDoc(hit.Document)
		if p.ID == "" {
			orphaned++
			continue
		}

		c := candidate(p.ID)
		mergeProvider(c, p)

		if hit.GeoDistanceMeters != nil {
			d := geoutil.MetersToMiles(*hit.GeoDistanceMeters)
			c.DistanceMiles = &d
		}

		if len(set.QueryVector) > 0 {
			sim := -1.0
			if hit.VectorDistance != nil {
				sim = 1 - *hit.VectorDistance
			} else if len(p.Embedding) > 0 {
				sim = CosineSimilarity(set.QueryVector, p.Embedding)
			}
			if sim > c.BestSimilarity {
				c.BestSimilarity = sim
			}
		}
	}

	for _, hit := range set.ServiceHits {
		providerID := utils.ResolveProviderRef(hit.Document)
		if providerID == "" {
			orphaned++
			continue
		}

		svc := serviceFromDoc(hit.Document)
		svc.ProviderID = providerID
		c := candidate(providerID)

		sim := -1.0
		if len(set.QueryVector) > 0 {
			if hit.VectorDistance != nil {
				sim = 1 - *hit.VectorDistance
			} else if len(svc.Embedding) > 0 {
				sim = CosineSimilarity(set.QueryVector, svc.Embedding)
			}
		}
		if sim > c.BestSimilarity || c.BestService == nil {
			if sim > c.BestSimilarity {
				c.BestSimilarity = sim
			}
			c.BestService = svc
		}
	}

	ordered = m.enrich(ctx, ordered, byID, &orphaned)

	if orphaned > 0 {
		log.Debug().Int("count", orphaned).Msg("Dropped candidates without a resolvable provider")
		if m.metrics != nil {
			m.metrics.OrphanedServices.Add(ctx, int64(orphaned))
		}
	}

	for _, c := range ordered {
		finishCandidate(c, req)
	}

	return ordered
}

// enrich batch-fetches full provider records for candidates that were seeded
// only by service hits, then drops the ones that still lack an identity.
func (m *CandidateMerger) enrich(ctx context.Context, ordered []*entities.MergedCandidate, byID map[string]*entities.MergedCandidate, orphaned *int) []*entities.MergedCandidate {
	var missing []string
	for _, c := range ordered {
		if c.Name == "" || c.Category == "" {
			missing = append(missing, c.ID)
		}
	}

	if len(missing) > 0 {
		fetched, errs := m.loader.LoadMany(ctx, missing)()
		for i, p := range fetched {
			if i < len(errs) && errs[i] != nil {
				log.Warn().Str("provider_id", missing[i]).Err(errs[i]).Msg("Provider enrichment failed")
				continue
			}
			if p == nil {
				continue
			}
			if c, ok := byID[p.ID]; ok {
				mergeProvider(c, p)
			}
		}
	}

	kept := ordered[:0]
	for _, c := range ordered {
		if c.Name == "" {
			*orphaned++
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// finishCandidate computes the derived per-candidate fields: cheapest
// service, price range, and distance when the store did not annotate one.
func finishCandidate(c *entities.MergedCandidate, req *entities.SearchRequest) {
	c.CheapestService = cheapestService(c.Services, c.BestService)
	if c.CheapestService == nil && c.BestService != nil {
		c.CheapestService = c.BestService
	}
	c.PriceRange = priceRange(c.Services, c.BestService)

	if c.DistanceMiles == nil && req.Location != nil && c.Location != nil {
		d := geoutil.DistanceMiles(
			req.Location.Latitude, req.Location.Longitude,
			c.Location.Latitude, c.Location.Longitude,
		)
		c.DistanceMiles = &d
	}
}

// cheapestService picks the lowest-cost service across the candidate's
// services plus the best-match hit; any free service wins outright.
func cheapestService(services []*entities.Service, extra *entities.Service) *entities.Service {
	var cheapest *entities.Service
	var cheapestMin float64

	for _, svc := range withExtra(services, extra) {
		if svc.IsFree {
			return svc
		}
		min, ok := svc.EffectiveMin()
		if !ok {
			continue
		}
		if cheapest == nil || min < cheapestMin {
			cheapest = svc
			cheapestMin = min
		}
	}
	return cheapest
}

// priceRange spans the known effective prices across the candidate's
// services. Returns nil when no service has a priced bound.
func priceRange(services []*entities.Service, extra *entities.Service) *entities.PriceRange {
	var pr *entities.PriceRange
	for _, svc := range withExtra(services, extra) {
		min, minOK := svc.EffectiveMin()
		max, maxOK := svc.EffectiveMax()
		if !minOK && !maxOK {
			continue
		}
		if !minOK {
			min = max
		}
		if !maxOK {
			max = min
		}
		if pr == nil {
			pr = &entities.PriceRange{Min: min, Max: max}
			continue
		}
		if min < pr.Min {
			pr.Min = min
		}
		if max > pr.Max {
			pr.Max = max
		}
	}
	return pr
}

// withExtra appends the best-match hit to the scan list when it is not
// already among the candidate's services. Price-derived fields must see
// every owned service, whichever index it arrived through.
func withExtra(services []*entities.Service, extra *entities.Service) []*entities.Service {
	if extra == nil || containsService(services, extra.ID) {
		return services
	}
	return append(append([]*entities.Service{}, services...), extra)
}

func containsService(services []*entities.Service, id string) bool {
	for _, svc := range services {
		if svc.ID == id {
			return true
		}
	}
	return false
}

// mergeProvider copies non-empty provider fields onto the candidate, so a
// later partial hit never blanks data from an earlier one.
func mergeProvider(c *entities.MergedCandidate, p *entities.Provider) {
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Category != "" {
		c.Category = p.Category
	}
	if p.PhoneNumber != "" {
		c.PhoneNumber = p.PhoneNumber
	}
	if p.Website != "" {
		c.Website = p.Website
	}
	if p.Email != "" {
		c.Email = p.Email
	}
	if p.BookingURL != "" {
		c.BookingURL = p.BookingURL
	}
	if p.Address != (entities.Address{}) {
		c.Address = p.Address
	}
	if p.Location != nil {
		c.Location = p.Location
	}
	if p.Rating != nil {
		c.Rating = p.Rating
	}
	if p.ReviewCount > 0 {
		c.ReviewCount = p.ReviewCount
	}
	c.AcceptsMedicaid = c.AcceptsMedicaid || p.AcceptsMedicaid
	c.AcceptsMedicare = c.AcceptsMedicare || p.AcceptsMedicare
	c.AcceptsSelfPay = c.AcceptsSelfPay || p.AcceptsSelfPay
	c.AcceptsUninsured = c.AcceptsUninsured || p.AcceptsUninsured
	c.TelehealthAvailable = c.TelehealthAvailable || p.TelehealthAvailable
	if len(p.AcceptedInsurance) > 0 {
		c.AcceptedInsurance = p.AcceptedInsurance
	}
	if len(p.Services) > 0 {
		c.Services = p.Services
	}
	if len(p.Embedding) > 0 {
		c.Embedding = p.Embedding
	}
	c.IsActive = c.IsActive || p.IsActive
}
