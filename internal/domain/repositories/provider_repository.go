package repositories

import (
	"context"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// ProviderFilter holds filtering options for listing providers
type ProviderFilter struct {
	Category string
	Limit    int
	Offset   int
}

// ProviderRepository defines the interface for provider persistence
type ProviderRepository interface {
	Create(ctx context.Context, provider *entities.Provider) error
	Update(ctx context.Context, provider *entities.Provider) error
	GetByID(ctx context.Context, id string) (*entities.Provider, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error)
	List(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)
}

// ZeroResultQuery is a query that returned no providers, with its frequency.
type ZeroResultQuery struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// SearchAnalyticsRepository records search outcomes for diagnostics.
// Recording is best-effort; failures never affect the search itself.
type SearchAnalyticsRepository interface {
	RecordSearch(ctx context.Context, query string, resultCount int) error
	ZeroResultQueries(ctx context.Context, limit int) ([]ZeroResultQuery, error)
}
