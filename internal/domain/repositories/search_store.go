package repositories

import (
	"context"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// Collection names in the document store. Providers and services are indexed
// independently and reconciled per request by the candidate merger.
const (
	ProvidersCollection = "providers"
	ServicesCollection  = "services"
)

// SearchHit is one raw candidate document returned by a retrieval path,
// together with any native metadata the store annotated it with.
type SearchHit struct {
	Document map[string]interface{}

	// VectorDistance is the store's native vector distance for semantic
	// hits (smaller is closer), when the store reports one.
	VectorDistance *float64

	// GeoDistanceMeters is the store's native proximity annotation for
	// geo-first hits.
	GeoDistanceMeters *float64
}

// VectorSearchParams bounds one vector-similarity retrieval operation.
type VectorSearchParams struct {
	Collection     string
	EmbeddingField string
	Vector         []float32
	K              int
	NumProbes      int
	Filters        entities.Filters
	Limit          int
}

// ProximitySearchParams bounds one geo-first retrieval operation. The spatial
// predicate must head the composed query plan; structured filters are applied
// behind it.
type ProximitySearchParams struct {
	Collection  string
	Location    entities.GeoPoint
	RadiusMiles float64
	Filters     entities.Filters
	Limit       int
}

// FindParams bounds one plain filtered retrieval operation. Terms, when
// non-empty, add a bag-of-words text predicate over the query fields.
type FindParams struct {
	Collection string
	Filters    entities.Filters
	Terms      []string
	Limit      int
}

// SearchStore is the document store the retrieval engine runs against.
// Implementations must support vector-similarity search, geospatial-first
// query, and equality/range filtering.
type SearchStore interface {
	VectorSearch(ctx context.Context, params VectorSearchParams) ([]SearchHit, error)
	ProximitySearch(ctx context.Context, params ProximitySearchParams) ([]SearchHit, error)
	Find(ctx context.Context, params FindParams) ([]SearchHit, error)
	FindByIDs(ctx context.Context, collection string, ids []string) ([]SearchHit, error)

	// Collections lists the store's available collections, used to build
	// diagnostic detail when a required collection is missing.
	Collections(ctx context.Context) ([]string, error)
}

// ProviderIndexer writes provider and service documents into the store.
type ProviderIndexer interface {
	IndexProvider(ctx context.Context, provider *entities.Provider) error
	IndexService(ctx context.Context, service *entities.Service) error
	DeleteProvider(ctx context.Context, id string) error
}
