package services

import (
	"math"
	"sort"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// Scorer assigns a ranking score to one merged candidate. Scores are only
// comparable within a single strategy; the finalizer never mixes strategies
// in one response.
type Scorer interface {
	Name() string
	Score(c *entities.MergedCandidate) float64
}

// Blended scoring weights. Similarity dominates; price, proximity, and
// reputation are bounded boosts.
const (
	similarityWeight  = 0.6
	freeServiceBoost  = 0.2
	priceBoostCap     = 0.15
	priceBoostPivot   = 50.0
	distanceBoostCap  = 0.15
	distanceHorizonMi = 50.0
	ratingBoostCap    = 0.1
	ratingScale       = 5.0
)

// BlendedScorer ranks candidates by a weighted blend of semantic similarity,
// affordability, proximity, and rating. Used by the semantic and geo
// retrieval strategies.
type BlendedScorer struct {
	queryVector    []float32
	maxServiceScan int
}

// NewBlendedScorer creates a blended scorer for one request. The query
// vector may be nil when no embedding signal exists; similarity then stays
// at its no-signal value and the remaining boosts still apply.
func NewBlendedScorer(queryVector []float32, maxServiceScan int) *BlendedScorer {
	return &BlendedScorer{queryVector: queryVector, maxServiceScan: maxServiceScan}
}

func (s *BlendedScorer) Name() string { return "blended" }

// Score computes similarityWeight*sim + priceBoost + distanceBoost +
// ratingBoost. Similarity is -1 without any embedding signal, which pushes
// unembedded candidates below embedded ones by a fixed offset.
func (s *BlendedScorer) Score(c *entities.MergedCandidate) float64 {
	score := similarityWeight * s.bestSimilarity(c)

	if free, price, ok := cheapestPrice(c); ok {
		if free {
			score += freeServiceBoost
		} else {
			boost := priceBoostPivot / (priceBoostPivot + price)
			if boost > priceBoostCap {
				boost = priceBoostCap
			}
			score += boost
		}
	}

	if c.DistanceMiles != nil {
		boost := distanceBoostCap * (1 - *c.DistanceMiles/distanceHorizonMi)
		if boost > 0 {
			score += boost
		}
	}

	if c.Rating != nil {
		score += (*c.Rating / ratingScale) * ratingBoostCap
	}

	return score
}

// bestSimilarity returns the candidate's best cosine similarity against the
// query vector, considering the store-native value from retrieval, the
// provider embedding, and a bounded scan of service embeddings with free
// services examined first.
func (s *BlendedScorer) bestSimilarity(c *entities.MergedCandidate) float64 {
	best := c.BestSimilarity
	if len(s.queryVector) == 0 {
		return best
	}

	if len(c.Embedding) > 0 {
		if sim := CosineSimilarity(s.queryVector, c.Embedding); sim > best {
			best = sim
		}
	}

	for _, svc := range scanOrder(c.Services, s.maxServiceScan) {
		if len(svc.Embedding) == 0 {
			continue
		}
		if sim := CosineSimilarity(s.queryVector, svc.Embedding); sim > best {
			best = sim
		}
	}

	return best
}

// scanOrder bounds the service-embedding scan: free services first, then the
// rest, truncated at the scan cap.
func scanOrder(services []*entities.Service, limit int) []*entities.Service {
	ordered := make([]*entities.Service, len(services))
	copy(ordered, services)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsFree && !ordered[j].IsFree
	})
	if limit > 0 && len(ordered) > limit {
		return ordered[:limit]
	}
	return ordered
}

// cheapestPrice reports whether the candidate has a priced (or free) service
// and at what effective minimum.
func cheapestPrice(c *entities.MergedCandidate) (free bool, price float64, ok bool) {
	svc := c.CheapestService
	if svc == nil {
		return false, 0, false
	}
	if svc.IsFree {
		return true, 0, true
	}
	min, ok := svc.EffectiveMin()
	if !ok {
		return false, 0, false
	}
	return false, min, true
}

// Volume scoring multipliers.
const (
	anyFreeMultiplier    = 2.0
	mostlyFreeMultiplier = 3.0
	mostlyFreeRatio      = 0.5
)

// VolumeScorer ranks candidates by service breadth with multiplicative free
// boosts. Used by the filter retrieval strategy, where no similarity signal
// exists.
type VolumeScorer struct{}

// NewVolumeScorer creates a volume scorer.
func NewVolumeScorer() *VolumeScorer { return &VolumeScorer{} }

func (s *VolumeScorer) Name() string { return "volume" }

// Score computes (1 + ln(1 + n)) for n owned services, tripled when at
// least half the services are free, doubled when any is. Candidates with no
// services score zero.
func (s *VolumeScorer) Score(c *entities.MergedCandidate) float64 {
	n := len(c.Services)
	if n == 0 {
		return 0
	}

	freeCount := 0
	for _, svc := range c.Services {
		if svc.IsFree {
			freeCount++
		}
	}

	score := 1 + math.Log1p(float64(n))

	ratio := float64(freeCount) / float64(n)
	switch {
	case ratio >= mostlyFreeRatio:
		score *= mostlyFreeMultiplier
	case freeCount > 0:
		score *= anyFreeMultiplier
	}

	return score
}
