package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/domain/providers"
)

// CacheInvalidationService listens for provider change events and evicts the
// affected cache entries, keeping read-through caches coherent across
// instances.
type CacheInvalidationService struct {
	bus   providers.EventBus
	cache providers.CacheProvider
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(bus providers.EventBus, cache providers.CacheProvider) *CacheInvalidationService {
	return &CacheInvalidationService{bus: bus, cache: cache}
}

// Start subscribes to provider update events and invalidates until the
// context is cancelled.
func (s *CacheInvalidationService) Start(ctx context.Context) error {
	events, err := s.bus.Subscribe(ctx, providers.EventChannelProviderUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to provider updates: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				s.invalidate(ctx, event.ProviderID)
			}
		}
	}()

	log.Info().Str("channel", providers.EventChannelProviderUpdates).Msg("Cache invalidation listener started")
	return nil
}

func (s *CacheInvalidationService) invalidate(ctx context.Context, providerID string) {
	if err := s.cache.Delete(ctx, fmt.Sprintf("provider:%s", providerID)); err != nil {
		log.Warn().Str("provider_id", providerID).Err(err).Msg("Failed to invalidate provider cache entry")
	}
	if err := s.cache.DeletePattern(ctx, "providers:list:*"); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate provider list cache")
	}
	log.Debug().Str("provider_id", providerID).Msg("Invalidated cached provider data")
}
