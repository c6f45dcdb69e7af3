package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/provider-discovery/internal/adapters/cache"
	"github.com/zatekoja/provider-discovery/internal/adapters/database"
	"github.com/zatekoja/provider-discovery/internal/adapters/events"
	"github.com/zatekoja/provider-discovery/internal/adapters/search"
	"github.com/zatekoja/provider-discovery/internal/api/handlers"
	"github.com/zatekoja/provider-discovery/internal/api/middleware"
	"github.com/zatekoja/provider-discovery/internal/api/routes"
	"github.com/zatekoja/provider-discovery/internal/application/services"
	"github.com/zatekoja/provider-discovery/internal/domain/providers"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/openai"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/redis"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
	"github.com/zatekoja/provider-discovery/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry tracing is optional; the service runs without it
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// Caching and events degrade gracefully without Redis
		log.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Typesense client")
	}
	if err := typesenseClient.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to init Typesense schema")
	}

	var embedder providers.EmbeddingProvider
	if cfg.OpenAI.APIKey != "" {
		embedder, err = openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize embedding client, semantic retrieval disabled")
			embedder = nil
		}
	} else {
		log.Warn().Msg("No embedding API key configured, semantic retrieval disabled")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	baseProviderRepo := database.NewProviderAdapter(pgClient)
	var providerRepo repositories.ProviderRepository
	if cacheProvider != nil {
		providerRepo = database.NewCachedProviderAdapter(baseProviderRepo, cacheProvider)
	} else {
		providerRepo = baseProviderRepo
	}

	analyticsRepo := database.NewSearchAnalyticsAdapter(pgClient)
	searchAdapter := search.NewTypesenseAdapter(typesenseClient)

	if cacheProvider != nil && eventBus != nil {
		invalidation := services.NewCacheInvalidationService(eventBus, cacheProvider)
		if err := invalidation.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation listener")
		}
	}

	searchService := services.NewSearchService(
		cfg.Engine,
		services.NewTermExpansionService(),
		services.NewTermMatchService(),
		services.NewCandidateRetriever(searchAdapter, embedder, cfg.Engine, metrics),
		services.NewCandidateMerger(providerRepo, metrics),
		searchAdapter,
		analyticsRepo,
	)
	providerService := services.NewProviderService(providerRepo, searchAdapter, embedder, eventBus)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		handlers.NewSearchHandler(searchService),
		handlers.NewProviderHandler(providerService),
		handlers.NewAnalyticsHandler(analyticsRepo),
		cacheMiddleware,
		metrics,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
