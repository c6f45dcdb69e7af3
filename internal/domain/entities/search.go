package entities

// SearchRequest is the engine's input: free-text query, optional user
// coordinate, structured filters, and a soft-capped result limit.
type SearchRequest struct {
	Query    string    `json:"query"`
	Location *GeoPoint `json:"location,omitempty"`
	Filters  Filters   `json:"filters"`
	Limit    int       `json:"limit,omitempty"`
}

// Filters is the structured filter bundle applied during retrieval.
type Filters struct {
	FreeOnly            bool     `json:"freeOnly,omitempty"`
	AcceptsMedicaid     bool     `json:"acceptsMedicaid,omitempty"`
	AcceptsMedicare     bool     `json:"acceptsMedicare,omitempty"`
	AcceptsUninsured    bool     `json:"acceptsUninsured,omitempty"`
	TelehealthAvailable bool     `json:"telehealthAvailable,omitempty"`
	MaxDistance         float64  `json:"maxDistance,omitempty"`
	InsuranceProviders  []string `json:"insuranceProviders,omitempty"`
	ServiceCategories   []string `json:"serviceCategories,omitempty"`
}

// PriceRange is the min/max cost across a provider's services, with free
// services counting as zero.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MergedCandidate is the per-request, per-provider aggregate built from
// provider-index and service-index hits sharing one provider identifier.
// It exists only for the duration of one request and is never persisted.
type MergedCandidate struct {
	Provider

	BestService     *Service    `json:"best_service,omitempty"`
	CheapestService *Service    `json:"cheapest_service,omitempty"`
	PriceRange      *PriceRange `json:"price_range,omitempty"`
	DistanceMiles   *float64    `json:"distance_miles,omitempty"`

	// Internal ranking state, never serialized.
	BestSimilarity float64 `json:"-"`
	Score          float64 `json:"-"`
	RetrievalOrder int     `json:"-"`
}

// SearchParams echoes the effective parameters a search ran with, for
// client-side display and debugging.
type SearchParams struct {
	Query         string    `json:"query"`
	ExpandedTerms []string  `json:"expanded_terms"`
	Location      *GeoPoint `json:"location,omitempty"`
	Filters       Filters   `json:"filters"`
}

// SearchResponse is the sanitized search result envelope.
type SearchResponse struct {
	Providers      []*MergedCandidate `json:"providers"`
	ProviderCount  int                `json:"provider_count"`
	ServiceCount   int                `json:"service_count"`
	TotalAvailable int                `json:"total_available"`
	SearchParams   SearchParams       `json:"search_params"`
}
