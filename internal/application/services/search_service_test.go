package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
)

func newTestSearchService(store *fakeSearchStore, embedder *fakeEmbedder, repo *fakeProviderRepo, analytics repositories.SearchAnalyticsRepository) *SearchService {
	cfg := testEngineConfig()
	// a nil *fakeEmbedder must become a nil interface, not a typed nil
	var embedding providers.EmbeddingProvider
	if embedder != nil {
		embedding = embedder
	}
	return NewSearchService(
		cfg,
		NewTermExpansionService(),
		NewTermMatchService(),
		NewCandidateRetriever(store, embedding, cfg, nil),
		NewCandidateMerger(repo, nil),
		store,
		analytics,
	)
}

func TestSearchService_SemanticSearch(t *testing.T) {
	store := newFakeSearchStore()
	dist := 0.2
	store.vectorHits[repositories.ProvidersCollection] = []repositories.SearchHit{
		{
			Document: map[string]interface{}{
				"id": "p1", "name": "Smile Dental", "category": "Dental Clinic", "is_active": true,
				"rating": 4.5,
			},
			VectorDistance: &dist,
		},
	}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	analytics := &fakeAnalytics{}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), analytics)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "dental"})
	require.NoError(t, err)

	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "Smile Dental", resp.Providers[0].Name)
	assert.Positive(t, resp.Providers[0].Score)
	assert.Contains(t, resp.SearchParams.ExpandedTerms, "dentist")

	assert.Eventually(t, func() bool { return analytics.recorded() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSearchService_LexicalPostFilterInGeoMode(t *testing.T) {
	store := newFakeSearchStore()
	store.proximity = []repositories.SearchHit{
		{Document: map[string]interface{}{
			"id": "p1", "name": "City Dental", "category": "Dental Clinic", "is_active": true,
		}},
		{Document: map[string]interface{}{
			"id": "p2", "name": "City Pharmacy", "category": "Pharmacy", "is_active": true,
		}},
	}
	embedder := &fakeEmbedder{err: errors.New("unavailable")}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), nil)

	req := &entities.SearchRequest{
		Query:    "dental",
		Location: &entities.GeoPoint{Latitude: 40, Longitude: -74},
	}
	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	// non-semantic retrieval is recall-oriented; the lexical filter drops
	// the pharmacy
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "p1", resp.Providers[0].ID)
}

func TestSearchService_NoLexicalFilterInSemanticMode(t *testing.T) {
	store := newFakeSearchStore()
	dist := 0.3
	store.vectorHits[repositories.ProvidersCollection] = []repositories.SearchHit{
		{
			Document: map[string]interface{}{
				"id": "p1", "name": "Wellness Center", "category": "Holistic", "is_active": true,
			},
			VectorDistance: &dist,
		},
	}
	embedder := &fakeEmbedder{vector: []float32{1}}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "stress relief"})
	require.NoError(t, err)

	// semantic similarity stands on its own; no lexical overlap required
	assert.Len(t, resp.Providers, 1)
}

func TestSearchService_FilterModeUsesVolumeScoring(t *testing.T) {
	store := newFakeSearchStore()
	store.findHits[repositories.ProvidersCollection] = []repositories.SearchHit{
		{Document: map[string]interface{}{
			"id": "p1", "name": "Single Service", "category": "Clinic", "is_active": true,
			"services": []interface{}{
				map[string]interface{}{"id": "s1", "name": "Visit"},
			},
		}},
		{Document: map[string]interface{}{
			"id": "p2", "name": "Free Heavy", "category": "Clinic", "is_active": true,
			"services": []interface{}{
				map[string]interface{}{"id": "s2", "name": "Visit", "is_free": true},
				map[string]interface{}{"id": "s3", "name": "Screening", "is_free": true},
			},
		}},
	}

	svc := newTestSearchService(store, nil, newFakeProviderRepo(), nil)

	req := &entities.SearchRequest{Filters: entities.Filters{AcceptsMedicaid: true}}
	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Providers, 2)
	// mostly-free provider outranks the single-service one
	assert.Equal(t, "p2", resp.Providers[0].ID)
	assert.Equal(t, "p1", resp.Providers[1].ID)
}

func TestSearchService_HardCapApplied(t *testing.T) {
	store := newFakeSearchStore()
	var hits []repositories.SearchHit
	for i := 0; i < 10; i++ {
		d := 0.1
		hits = append(hits, repositories.SearchHit{
			Document: map[string]interface{}{
				"id": string(rune('a' + i)), "name": "Clinic", "category": "Clinic", "is_active": true,
			},
			VectorDistance: &d,
		})
	}
	store.vectorHits[repositories.ProvidersCollection] = hits
	embedder := &fakeEmbedder{vector: []float32{1}}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "clinic", Limit: 50})
	require.NoError(t, err)

	assert.Len(t, resp.Providers, 6)
	assert.Equal(t, 10, resp.TotalAvailable)
}

func TestSearchService_ValidationErrors(t *testing.T) {
	svc := newTestSearchService(newFakeSearchStore(), nil, newFakeProviderRepo(), nil)

	tests := []struct {
		name string
		req  *entities.SearchRequest
	}{
		{name: "nil request", req: nil},
		{name: "negative limit", req: &entities.SearchRequest{Query: "x", Limit: -1}},
		{name: "negative max distance", req: &entities.SearchRequest{Query: "x", Filters: entities.Filters{MaxDistance: -5}}},
		{name: "out of range coordinates", req: &entities.SearchRequest{Query: "x", Location: &entities.GeoPoint{Latitude: 95, Longitude: 0}}},
		{name: "nothing to search on", req: &entities.SearchRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.req)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "got %v", err)
		})
	}
}

func TestSearchService_MissingCollectionDiagnostics(t *testing.T) {
	store := newFakeSearchStore()
	store.vectorErr[repositories.ProvidersCollection] = errors.New("404 Not Found")
	store.vectorErr[repositories.ServicesCollection] = errors.New("404 Not Found")
	store.collections = []string{"facilities", "legacy_services"}
	embedder := &fakeEmbedder{vector: []float32{1}}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), nil)

	_, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "clinic"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Detail, "facilities")
	assert.Contains(t, appErr.Detail, "legacy_services")
}

func TestSearchService_PanicRecovered(t *testing.T) {
	store := newFakeSearchStore()
	svc := newTestSearchService(store, nil, newFakeProviderRepo(), nil)
	// force a downstream nil dereference to stand in for a malformed
	// document blowing up mid-pipeline
	svc.expander = nil

	store.findHits[repositories.ProvidersCollection] = []repositories.SearchHit{
		{Document: map[string]interface{}{"id": "p1", "name": "Alpha", "category": "Clinic"}},
	}

	_, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "alpha"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestSearchService_ZeroResultsRecorded(t *testing.T) {
	store := newFakeSearchStore()
	analytics := &fakeAnalytics{}
	embedder := &fakeEmbedder{vector: []float32{1}}

	svc := newTestSearchService(store, embedder, newFakeProviderRepo(), analytics)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{Query: "unicorn care"})
	require.NoError(t, err)
	assert.Empty(t, resp.Providers)

	require.Eventually(t, func() bool { return analytics.recorded() == 1 }, time.Second, 10*time.Millisecond)
	analytics.mu.Lock()
	defer analytics.mu.Unlock()
	assert.Equal(t, "unicorn care", analytics.queries[0])
	assert.Equal(t, 0, analytics.counts[0])
}
