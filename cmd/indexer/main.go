// Backfills the search index from the database: fetches providers in pages,
// fills missing embeddings, and upserts provider and service documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/adapters/database"
	"github.com/zatekoja/provider-discovery/internal/adapters/search"
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/openai"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
	"github.com/zatekoja/provider-discovery/pkg/config"
)

func main() {
	pageSize := flag.Int("page-size", 100, "providers fetched per database page")
	skipEmbeddings := flag.Bool("skip-embeddings", false, "index without computing missing embeddings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("provider-discovery-indexer", os.Getenv("APP_ENV"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Typesense client")
	}
	if err := typesenseClient.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to init Typesense schema")
	}

	var embedder providers.EmbeddingProvider
	if !*skipEmbeddings && cfg.OpenAI.APIKey != "" {
		embedder, err = openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize embedding client, indexing without embeddings")
		}
	}

	repo := database.NewProviderAdapter(pgClient)
	indexer := search.NewTypesenseAdapter(typesenseClient)

	indexed, failed := 0, 0
	for offset := 0; ; offset += *pageSize {
		page, err := repo.List(ctx, repositories.ProviderFilter{Limit: *pageSize, Offset: offset})
		if err != nil {
			log.Fatal().Err(err).Int("offset", offset).Msg("Failed to list providers")
		}
		if len(page) == 0 {
			break
		}

		for _, provider := range page {
			fillEmbeddings(ctx, embedder, provider)

			if err := indexer.IndexProvider(ctx, provider); err != nil {
				log.Error().Str("provider_id", provider.ID).Err(err).Msg("Failed to index provider")
				failed++
				continue
			}
			for _, svc := range provider.Services {
				if err := indexer.IndexService(ctx, svc); err != nil {
					log.Error().Str("service_id", svc.ID).Err(err).Msg("Failed to index service")
				}
			}
			indexed++
		}

		log.Info().Int("indexed", indexed).Int("failed", failed).Msg("Page complete")
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("Backfill complete")
	if failed > 0 {
		os.Exit(1)
	}
}

func fillEmbeddings(ctx context.Context, embedder providers.EmbeddingProvider, provider *entities.Provider) {
	if embedder == nil {
		return
	}

	if len(provider.Embedding) == 0 {
		text := strings.TrimSpace(provider.Name + " " + provider.Category)
		if vector, err := embedder.Embed(ctx, text); err != nil {
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
		if vector, err := embedder.Embed(ctx, text); err != nil {
			log.Warn().Str("service_id", svc.ID).Err(err).Msg("Service embedding failed")
		} else {
			svc.Embedding = vector
		}
	}
}
