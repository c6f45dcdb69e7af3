package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
	"github.com/zatekoja/provider-discovery/pkg/geoutil"
)

// ProviderService handles provider ingestion and reads. Ingestion writes the
// database record, indexes searchable documents, and publishes a change
// event; the database write is the source of truth and the only fatal step.
type ProviderService struct {
	repo     repositories.ProviderRepository
	indexer  repositories.ProviderIndexer
	embedder providers.EmbeddingProvider
	bus      providers.EventBus
}

// NewProviderService creates a new provider service. The embedder and bus
// may be nil; ingestion then skips embeddings and events respectively.
func NewProviderService(
	repo repositories.ProviderRepository,
	indexer repositories.ProviderIndexer,
	embedder providers.EmbeddingProvider,
	bus providers.EventBus,
) *ProviderService {
	return &ProviderService{
		repo:     repo,
		indexer:  indexer,
		embedder: embedder,
		bus:      bus,
	}
}

// Ingest upserts a provider and its services. New records get generated
// identifiers; existing ones are updated in place.
func (s *ProviderService) Ingest(ctx context.Context, provider *entities.Provider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}

	isNew := provider.ID == ""
	if isNew {
		provider.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if isNew {
		provider.CreatedAt = now
		provider.IsActive = true
	}
	provider.UpdatedAt = now

	for _, svc := range provider.Services {
		if svc.ID == "" {
			svc.ID = uuid.NewString()
		}
		svc.ProviderID = provider.ID
	}

	s.computeEmbeddings(ctx, provider)

	if isNew {
		if err := s.repo.Create(ctx, provider); err != nil {
			return err
		}
	} else {
		err := s.repo.Update(ctx, provider)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			provider.CreatedAt = now
			err = s.repo.Create(ctx, provider)
		}
		if err != nil {
			return err
		}
	}

	s.index(ctx, provider)
	s.publish(ctx, provider.ID, entities.EventTypeProviderUpdated)

	return nil
}

// GetByID returns a single provider with its services.
func (s *ProviderService) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("provider id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns providers matching the filter.
func (s *ProviderService) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	return s.repo.List(ctx, filter)
}

// computeEmbeddings fills missing provider and service embeddings.
// Embedding failures are logged and skipped; the record still ingests and
// remains reachable through non-semantic retrieval.
func (s *ProviderService) computeEmbeddings(ctx context.Context, provider *entities.Provider) {
	if s.embedder == nil {
		return
	}

	if len(provider.Embedding) == 0 {
		text := strings.TrimSpace(provider.Name + " " + provider.Category)
		if vector, err := s.embedder.Embed(ctx, text); err != nil {
			log.Warn().Str("provider_id", provider.ID).Err(err).Msg("Provider embedding failed")
		} else {
			provider.Embedding = vector
		}
	}

	for _, svc := range provider.Services {
		if len(svc.Embedding) > 0 {
			continue
		}
		text := strings.TrimSpace(svc.Name + " " + svc.Description)
		if text == "" {
			continue
		}
		if vector, err := s.embedder.Embed(ctx, text); err != nil {
			log.Warn().Str("service_id", svc.ID).Err(err).Msg("Service embedding failed")
		} else {
			svc.Embedding = vector
		}
	}
}

// index writes searchable documents. Index failures are logged, not fatal:
// the database holds the record and the indexer backfill repairs the index.
func (s *ProviderService) index(ctx context.Context, provider *entities.Provider) {
	if s.indexer == nil {
		return
	}

	if err := s.indexer.IndexProvider(ctx, provider); err != nil {
		log.Error().Str("provider_id", provider.ID).Err(err).Msg("Failed to index provider")
		return
	}
	for _, svc := range provider.Services {
		if err := s.indexer.IndexService(ctx, svc); err != nil {
			log.Error().Str("service_id", svc.ID).Err(err).Msg("Failed to index service")
		}
	}
}

func (s *ProviderService) publish(ctx context.Context, providerID, eventType string) {
	if s.bus == nil {
		return
	}

	event := &entities.ProviderEvent{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, providers.EventChannelProviderUpdates, event); err != nil {
		log.Warn().Str("provider_id", providerID).Err(err).Msg("Failed to publish provider event")
	}
}

func validateProvider(provider *entities.Provider) error {
	if provider == nil {
		return apperrors.NewValidationError("provider is required")
	}
	if strings.TrimSpace(provider.Name) == "" {
		return apperrors.NewValidationError("provider name is required")
	}
	if strings.TrimSpace(provider.Category) == "" {
		return apperrors.NewValidationError("provider category is required")
	}
	if provider.Location != nil && !geoutil.ValidCoordinate(provider.Location.Longitude, provider.Location.Latitude) {
		return apperrors.NewValidationError("provider location coordinates are out of range")
	}
	for _, svc := range provider.Services {
		if strings.TrimSpace(svc.Name) == "" {
			return apperrors.NewValidationError("service name is required")
		}
	}
	return nil
}
