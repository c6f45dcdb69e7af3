package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	providerByIDTTL   = 300 // single provider
	providersListTTL  = 180 // lists
	providerBatchTTL  = 300 // batch lookups cache per-id entries
)

// CachedProviderAdapter wraps a ProviderRepository with read-through caching
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider) repositories.ProviderRepository {
	return &CachedProviderAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func providerCacheKey(id string) string {
	return fmt.Sprintf("provider:%s", id)
}

func providersListCacheKey(filter repositories.ProviderFilter) string {
	return fmt.Sprintf("providers:list:%s:%d:%d", filter.Category, filter.Limit, filter.Offset)
}

// Create writes through and invalidates the cached entry
func (a *CachedProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	if err := a.adapter.Create(ctx, provider); err != nil {
		return err
	}
	a.invalidate(ctx, provider.ID)
	return nil
}

// Update writes through and invalidates the cached entry
func (a *CachedProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	if err := a.adapter.Update(ctx, provider); err != nil {
		return err
	}
	a.invalidate(ctx, provider.ID)
	return nil
}

// GetByID retrieves a provider by ID with caching
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	cacheKey := providerCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var provider entities.Provider
		if err := json.Unmarshal(cached, &provider); err == nil {
			return &provider, nil
		}
	}

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.store(cacheKey, provider, providerByIDTTL)
	return provider, nil
}

// GetByIDs retrieves providers by IDs, serving cached entries where possible
// and fetching only the misses in one batch.
func (a *CachedProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	byID := make(map[string]*entities.Provider, len(ids))
	var misses []string
	for _, id := range ids {
		if cached, err := a.cache.Get(ctx, providerCacheKey(id)); err == nil {
			var provider entities.Provider
			if err := json.Unmarshal(cached, &provider); err == nil {
				byID[id] = &provider
				continue
			}
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := a.adapter.GetByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, provider := range fetched {
			byID[provider.ID] = provider
			a.store(providerCacheKey(provider.ID), provider, providerBatchTTL)
		}
	}

	// Preserve request order; ids that resolved to nothing are skipped.
	result := make([]*entities.Provider, 0, len(byID))
	for _, id := range ids {
		if provider, ok := byID[id]; ok {
			result = append(result, provider)
		}
	}
	return result, nil
}

// List retrieves providers matching the filter with caching
func (a *CachedProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	cacheKey := providersListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result []*entities.Provider
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	result, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	a.store(cacheKey, result, providersListTTL)
	return result, nil
}

// store updates the cache off the request path
func (a *CachedProviderAdapter) store(key string, value interface{}, ttl int) {
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(value); err == nil {
			if err := a.cache.Set(bgCtx, key, data, ttl); err != nil {
				log.Warn().Str("key", key).Err(err).Msg("Failed to cache provider entry")
			}
		}
	}()
}

func (a *CachedProviderAdapter) invalidate(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, providerCacheKey(id)); err != nil {
		log.Warn().Str("provider_id", id).Err(err).Msg("Failed to invalidate provider cache")
	}
	if err := a.cache.DeletePattern(ctx, "providers:list:*"); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate provider list caches")
	}
}
