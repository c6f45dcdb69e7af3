package services

import (
	"context"
	"errors"
	"sync"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
)

// fakeSearchStore is an in-memory SearchStore that records the params of
// every call and serves canned hits per collection.
type fakeSearchStore struct {
	mu sync.Mutex

	vectorHits  map[string][]repositories.SearchHit
	vectorErr   map[string]error
	proximity   []repositories.SearchHit
	proximityErr error
	findHits    map[string][]repositories.SearchHit
	findErr     map[string]error
	collections []string

	vectorCalls    []repositories.VectorSearchParams
	proximityCalls []repositories.ProximitySearchParams
	findCalls      []repositories.FindParams
}

func newFakeSearchStore() *fakeSearchStore {
	return &fakeSearchStore{
		vectorHits:  map[string][]repositories.SearchHit{},
		vectorErr:   map[string]error{},
		findHits:    map[string][]repositories.SearchHit{},
		findErr:     map[string]error{},
		collections: []string{repositories.ProvidersCollection, repositories.ServicesCollection},
	}
}

func (f *fakeSearchStore) VectorSearch(ctx context.Context, params repositories.VectorSearchParams) ([]repositories.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectorCalls = append(f.vectorCalls, params)
	if err := f.vectorErr[params.Collection]; err != nil {
		return nil, err
	}
	return f.vectorHits[params.Collection], nil
}

func (f *fakeSearchStore) ProximitySearch(ctx context.Context, params repositories.ProximitySearchParams) ([]repositories.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proximityCalls = append(f.proximityCalls, params)
	if f.proximityErr != nil {
		return nil, f.proximityErr
	}
	return f.proximity, nil
}

func (f *fakeSearchStore) Find(ctx context.Context, params repositories.FindParams) ([]repositories.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls = append(f.findCalls, params)
	if err := f.findErr[params.Collection]; err != nil {
		return nil, err
	}
	return f.findHits[params.Collection], nil
}

func (f *fakeSearchStore) FindByIDs(ctx context.Context, collection string, ids []string) ([]repositories.SearchHit, error) {
	return nil, nil
}

func (f *fakeSearchStore) Collections(ctx context.Context) ([]string, error) {
	return f.collections, nil
}

// fakeEmbedder returns a fixed vector, or an error when set.
type fakeEmbedder struct {
	vector []float32
	err    error

	mu    sync.Mutex
	texts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeProviderRepo serves providers by id and records batch fetches.
type fakeProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*entities.Provider
	batchErr  error
	batches   [][]string
}

func newFakeProviderRepo(providers ...*entities.Provider) *fakeProviderRepo {
	byID := make(map[string]*entities.Provider, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}
	return &fakeProviderRepo{providers: byID}
}

func (f *fakeProviderRepo) Create(ctx context.Context, provider *entities.Provider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[provider.ID] = provider
	return nil
}

func (f *fakeProviderRepo) Update(ctx context.Context, provider *entities.Provider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.providers[provider.ID]; !ok {
		return errors.New("not found")
	}
	f.providers[provider.ID] = provider
	return nil
}

func (f *fakeProviderRepo) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.providers[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeProviderRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ids)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	var out []*entities.Provider
	for _, id := range ids {
		if p, ok := f.providers[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProviderRepo) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Provider
	for _, p := range f.providers {
		out = append(out, p)
	}
	return out, nil
}

// fakeAnalytics records search outcomes.
type fakeAnalytics struct {
	mu      sync.Mutex
	queries []string
	counts  []int
}

func (f *fakeAnalytics) RecordSearch(ctx context.Context, query string, resultCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.counts = append(f.counts, resultCount)
	return nil
}

func (f *fakeAnalytics) ZeroResultQueries(ctx context.Context, limit int) ([]repositories.ZeroResultQuery, error) {
	return nil, nil
}

func (f *fakeAnalytics) recorded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func floatPtr(v float64) *float64 { return &v }
