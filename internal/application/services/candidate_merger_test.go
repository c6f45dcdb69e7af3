package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
)

func TestCandidateMerger_MergesProviderAndServiceHits(t *testing.T) {
	repo := newFakeProviderRepo()
	m := NewCandidateMerger(repo, nil)

	vectorDist := 0.25
	set := &RawCandidateSet{
		Mode:        ModeSemantic,
		QueryVector: []float32{1, 0},
		ProviderHits: []repositories.SearchHit{
			{Document: map[string]interface{}{
				"id": "p1", "name": "Alpha Clinic", "category": "Clinic", "is_active": true,
			}},
		},
		ServiceHits: []repositories.SearchHit{
			{
				Document:       map[string]interface{}{"id": "s1", "provider_id": "p1", "name": "Checkup"},
				VectorDistance: &vectorDist,
			},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "p1", c.ID)
	assert.Equal(t, "Alpha Clinic", c.Name)
	require.NotNil(t, c.BestService)
	assert.Equal(t, "s1", c.BestService.ID)
	// similarity is 1 - native vector distance
	assert.InDelta(t, 0.75, c.BestSimilarity, 1e-9)
	// no database trip needed: the provider hit carried identity
	assert.Empty(t, repo.batches)
}

func TestCandidateMerger_EnrichesServiceOnlyCandidates(t *testing.T) {
	repo := newFakeProviderRepo(&entities.Provider{
		ID:       "p2",
		Name:     "Beta Health",
		Category: "Community Clinic",
		Services: []*entities.Service{{ID: "s9", ProviderID: "p2", Name: "Screening", IsFree: true}},
	})
	m := NewCandidateMerger(repo, nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s9", "provider_id": "p2", "name": "Screening"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "Beta Health", c.Name)
	assert.Equal(t, "Community Clinic", c.Category)
	require.Len(t, c.Services, 1)
	require.NotNil(t, c.CheapestService)
	assert.True(t, c.CheapestService.IsFree)
	require.Len(t, repo.batches, 1)
	assert.Equal(t, []string{"p2"}, repo.batches[0])
}

func TestCandidateMerger_ProviderRefAliases(t *testing.T) {
	repo := newFakeProviderRepo(&entities.Provider{ID: "p3", Name: "Gamma", Category: "Clinic"})
	m := NewCandidateMerger(repo, nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s1", "facility_id": "p3", "name": "Visit"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 1)
	assert.Equal(t, "p3", candidates[0].ID)
}

func TestCandidateMerger_DropsUnresolvableServiceHits(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s1", "name": "Orphan Service"}},
			{Document: map[string]interface{}{"id": "s2", "provider_id": "  ", "name": "Blank Ref"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})
	assert.Empty(t, candidates)
}

func TestCandidateMerger_DropsCandidatesMissingFromDatabase(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s1", "provider_id": "ghost", "name": "Visit"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})
	assert.Empty(t, candidates)
}

func TestCandidateMerger_EnrichmentFailureIsNotFatal(t *testing.T) {
	repo := newFakeProviderRepo()
	repo.batchErr = errors.New("database down")
	m := NewCandidateMerger(repo, nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ProviderHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "p1", "name": "Alpha", "category": "Clinic"}},
		},
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s1", "provider_id": "p9", "name": "Visit"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	// the enrichable candidate is lost, the self-contained one survives
	require.Len(t, candidates, 1)
	assert.Equal(t, "p1", candidates[0].ID)
}

func TestCandidateMerger_DistanceFromStoreAnnotation(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	meters := 1609.344
	set := &RawCandidateSet{
		Mode: ModeGeo,
		ProviderHits: []repositories.SearchHit{
			{
				Document:          map[string]interface{}{"id": "p1", "name": "Alpha", "category": "Clinic"},
				GeoDistanceMeters: &meters,
			},
		},
	}

	req := &entities.SearchRequest{Location: &entities.GeoPoint{Latitude: 40, Longitude: -74}}
	candidates := m.Merge(context.Background(), set, req)

	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].DistanceMiles)
	assert.InDelta(t, 1.0, *candidates[0].DistanceMiles, 1e-9)
}

func TestCandidateMerger_DistanceComputedFromCoordinates(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	set := &RawCandidateSet{
		Mode: ModeFilter,
		ProviderHits: []repositories.SearchHit{
			{Document: map[string]interface{}{
				"id": "p1", "name": "Alpha", "category": "Clinic",
				"location": []interface{}{40.7128, -74.0060},
			}},
		},
	}

	req := &entities.SearchRequest{Location: &entities.GeoPoint{Latitude: 40.7128, Longitude: -74.0060}}
	candidates := m.Merge(context.Background(), set, req)

	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].DistanceMiles)
	assert.InDelta(t, 0, *candidates[0].DistanceMiles, 1e-6)
}

func TestCandidateMerger_PriceRangeAcrossServices(t *testing.T) {
	flat := 75.0
	min := 20.0
	max := 120.0
	repo := newFakeProviderRepo(&entities.Provider{
		ID:       "p1",
		Name:     "Alpha",
		Category: "Clinic",
		Services: []*entities.Service{
			{ID: "s1", Name: "Visit", Price: &entities.Price{Flat: &flat}},
			{ID: "s2", Name: "Imaging", Price: &entities.Price{Min: &min, Max: &max}},
			{ID: "s3", Name: "Advice", IsFree: true},
		},
	})
	m := NewCandidateMerger(repo, nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "s1", "provider_id": "p1", "name": "Visit"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 1)
	c := candidates[0]
	require.NotNil(t, c.CheapestService)
	assert.Equal(t, "s3", c.CheapestService.ID, "free service wins cheapest outright")
	require.NotNil(t, c.PriceRange)
	assert.Equal(t, 0.0, c.PriceRange.Min)
	assert.Equal(t, 120.0, c.PriceRange.Max)
}

func TestCandidateMerger_FreeServiceHitWinsCheapest(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	// the provider document only embeds a priced service; the free one
	// arrives through the service index
	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ProviderHits: []repositories.SearchHit{
			{Document: map[string]interface{}{
				"id": "p1", "name": "Alpha", "category": "Clinic",
				"services": []interface{}{
					map[string]interface{}{
						"id": "s-paid", "provider_id": "p1", "name": "Visit",
						"price": map[string]interface{}{"flat": 40.0},
					},
				},
			}},
		},
		ServiceHits: []repositories.SearchHit{
			{Document: map[string]interface{}{
				"id": "s-free", "provider_id": "p1", "name": "Screening", "is_free": true,
			}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 1)
	c := candidates[0]
	require.NotNil(t, c.CheapestService)
	assert.Equal(t, "s-free", c.CheapestService.ID)
	assert.True(t, c.CheapestService.IsFree)
	require.NotNil(t, c.PriceRange)
	assert.Equal(t, 0.0, c.PriceRange.Min)
	assert.Equal(t, 40.0, c.PriceRange.Max)

	// the scorer reads the cheapest service, so the free boost applies
	scorer := NewBlendedScorer(nil, 16)
	assert.InDelta(t, -1*similarityWeight+freeServiceBoost, scorer.Score(c), 1e-9)
}

func TestCandidateMerger_RetrievalOrderPreserved(t *testing.T) {
	m := NewCandidateMerger(newFakeProviderRepo(), nil)

	set := &RawCandidateSet{
		Mode: ModeSemantic,
		ProviderHits: []repositories.SearchHit{
			{Document: map[string]interface{}{"id": "p1", "name": "First", "category": "Clinic"}},
			{Document: map[string]interface{}{"id": "p2", "name": "Second", "category": "Clinic"}},
		},
	}

	candidates := m.Merge(context.Background(), set, &entities.SearchRequest{})

	require.Len(t, candidates, 2)
	assert.Equal(t, 0, candidates[0].RetrievalOrder)
	assert.Equal(t, 1, candidates[1].RetrievalOrder)
}
