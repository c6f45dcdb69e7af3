package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/provider-discovery/pkg/config"
	"github.com/zatekoja/provider-discovery/pkg/retry"
)

const (
	ProvidersCollection = "providers"
	ServicesCollection  = "services"

	// EmbeddingDims matches the embedding model output length.
	EmbeddingDims = 1536
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Int("attempt", attempt).Err(err).Dur("next_delay", nextDelay).
				Msg("Typesense connection attempt failed, retrying")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the providers and services collections exist
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	existing := make(map[string]bool, len(collections))
	for _, col := range collections {
		existing[col.Name] = true
	}

	if !existing[ProvidersCollection] {
		if _, err := c.client.Collections().Create(ctx, providersSchema()); err != nil {
			return fmt.Errorf("failed to create %s collection: %w", ProvidersCollection, err)
		}
		log.Info().Str("collection", ProvidersCollection).Msg("Created Typesense collection")
	}

	if !existing[ServicesCollection] {
		if _, err := c.client.Collections().Create(ctx, servicesSchema()); err != nil {
			return fmt.Errorf("failed to create %s collection: %w", ServicesCollection, err)
		}
		log.Info().Str("collection", ServicesCollection).Msg("Created Typesense collection")
	}

	return nil
}

func providersSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ProvidersCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint", Optional: pointer.True()},
			{Name: "rating", Type: "float", Optional: pointer.True()},
			{Name: "review_count", Type: "int32"},
			{Name: "accepts_medicaid", Type: "bool", Facet: pointer.True()},
			{Name: "accepts_medicare", Type: "bool", Facet: pointer.True()},
			{Name: "accepts_uninsured", Type: "bool", Facet: pointer.True()},
			{Name: "telehealth_available", Type: "bool", Facet: pointer.True()},
			{Name: "accepted_insurance", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "service_categories", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "has_free_service", Type: "bool", Facet: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "embedding", Type: "float[]", NumDim: pointer.Int(EmbeddingDims), Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

func servicesSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ServicesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "provider_id", Type: "string", Facet: pointer.True()},
			{Name: "name", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "is_free", Type: "bool", Facet: pointer.True()},
			{Name: "price_min", Type: "float", Optional: pointer.True()},
			{Name: "price_max", Type: "float", Optional: pointer.True()},
			{Name: "embedding", Type: "float[]", NumDim: pointer.Int(EmbeddingDims), Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}
