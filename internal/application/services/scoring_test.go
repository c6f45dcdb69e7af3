package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

func TestBlendedScorer_Score(t *testing.T) {
	scorer := NewBlendedScorer(nil, 16)

	t.Run("full signal candidate", func(t *testing.T) {
		price := 20.0
		c := &entities.MergedCandidate{
			Provider:        entities.Provider{Rating: floatPtr(4.5)},
			BestSimilarity:  0.8,
			CheapestService: &entities.Service{Price: &entities.Price{Flat: &price}},
			DistanceMiles:   floatPtr(5),
		}

		// 0.6*0.8 + min(0.15, 50/70) + 0.15*(1-5/50) + (4.5/5)*0.1
		expected := 0.48 + 0.15 + 0.135 + 0.09
		assert.InDelta(t, expected, scorer.Score(c), 1e-9)
	})

	t.Run("free service gets flat boost", func(t *testing.T) {
		c := &entities.MergedCandidate{
			BestSimilarity:  0.5,
			CheapestService: &entities.Service{IsFree: true},
		}

		// 0.6*0.5 + 0.2, no distance, no rating
		assert.InDelta(t, 0.5, scorer.Score(c), 1e-9)
	})

	t.Run("cheap paid service boost is uncapped below pivot", func(t *testing.T) {
		price := 450.0
		c := &entities.MergedCandidate{
			BestSimilarity:  0,
			CheapestService: &entities.Service{Price: &entities.Price{Flat: &price}},
		}

		// 50/(50+450) = 0.1, under the cap
		assert.InDelta(t, 0.1, scorer.Score(c), 1e-9)
	})

	t.Run("no embedding signal carries fixed penalty", func(t *testing.T) {
		c := &entities.MergedCandidate{BestSimilarity: -1}
		assert.InDelta(t, -0.6, scorer.Score(c), 1e-9)
	})

	t.Run("distance past horizon contributes nothing", func(t *testing.T) {
		c := &entities.MergedCandidate{
			BestSimilarity: 0,
			DistanceMiles:  floatPtr(80),
		}
		assert.InDelta(t, 0, scorer.Score(c), 1e-9)
	})
}

func TestBlendedScorer_SimilarityFromEmbeddings(t *testing.T) {
	query := []float32{1, 0}
	scorer := NewBlendedScorer(query, 16)

	t.Run("provider embedding beats store native value", func(t *testing.T) {
		c := &entities.MergedCandidate{
			Provider:       entities.Provider{Embedding: []float32{1, 0}},
			BestSimilarity: 0.3,
		}
		assert.InDelta(t, 0.6, scorer.Score(c), 1e-9)
	})

	t.Run("service embeddings are scanned", func(t *testing.T) {
		c := &entities.MergedCandidate{
			Provider: entities.Provider{
				Services: []*entities.Service{
					{Embedding: []float32{0, 1}},
					{Embedding: []float32{1, 0}},
				},
			},
			BestSimilarity: -1,
		}
		// best service similarity 1.0, no price data on services
		assert.InDelta(t, 0.6, scorer.Score(c), 1e-9)
	})
}

func TestBlendedScorer_ServiceScanBounded(t *testing.T) {
	query := []float32{1, 0}
	scorer := NewBlendedScorer(query, 2)

	// The perfect-match embedding sits past the scan cap among paid
	// services, but free services are scanned first.
	services := []*entities.Service{
		{Embedding: []float32{0, 1}},
		{Embedding: []float32{0, 1}},
		{Embedding: []float32{1, 0}, IsFree: true},
	}
	c := &entities.MergedCandidate{
		Provider:       entities.Provider{Services: services},
		BestSimilarity: -1,
	}
	c.CheapestService = services[2]

	// free service scanned first: sim 1.0, plus free boost
	assert.InDelta(t, 0.8, scorer.Score(c), 1e-9)
}

func TestScanOrder(t *testing.T) {
	free := &entities.Service{ID: "free", IsFree: true}
	paidA := &entities.Service{ID: "a"}
	paidB := &entities.Service{ID: "b"}

	ordered := scanOrder([]*entities.Service{paidA, paidB, free}, 2)

	assert.Len(t, ordered, 2)
	assert.Equal(t, "free", ordered[0].ID)
	assert.Equal(t, "a", ordered[1].ID)
}

func TestVolumeScorer_Score(t *testing.T) {
	scorer := NewVolumeScorer()

	paid := &entities.Service{}
	free := &entities.Service{IsFree: true}

	tests := []struct {
		name     string
		services []*entities.Service
		expected float64
	}{
		{
			name:     "no services scores zero",
			services: nil,
			expected: 0,
		},
		{
			name:     "paid services only",
			services: []*entities.Service{paid, paid, paid},
			expected: 1 + math.Log1p(3),
		},
		{
			name:     "minority free doubles",
			services: []*entities.Service{paid, paid, free},
			expected: (1 + math.Log1p(3)) * 2,
		},
		{
			name:     "majority free triples",
			services: []*entities.Service{paid, free, free},
			expected: (1 + math.Log1p(3)) * 3,
		},
		{
			name:     "exactly half free triples",
			services: []*entities.Service{paid, free},
			expected: (1 + math.Log1p(2)) * 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &entities.MergedCandidate{Provider: entities.Provider{Services: tt.services}}
			assert.InDelta(t, tt.expected, scorer.Score(c), 1e-9)
		})
	}
}
