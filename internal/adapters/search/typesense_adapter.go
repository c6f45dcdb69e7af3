package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	tsclient "github.com/zatekoja/provider-discovery/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/provider-discovery/pkg/geoutil"
)

// maxPerPage is the store's hard page-size cap.
const maxPerPage = 250

// TypesenseAdapter implements the document store operations the retrieval
// engine needs: vector search, geo-first proximity search, filtered find,
// batch fetch by id, and indexing.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.SearchStore = (*TypesenseAdapter)(nil)
var _ repositories.ProviderIndexer = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// VectorSearch runs a vector-similarity query against one collection,
// with structured filters applied as a post-filter.
func (a *TypesenseAdapter) VectorSearch(ctx context.Context, params repositories.VectorSearchParams) ([]repositories.SearchHit, error) {
	filterBy := buildFilterBy(params.Collection, params.Filters, "")

	searchParams := &api.SearchCollectionParams{
		Q:           pointer.String("*"),
		QueryBy:     pointer.String("name"),
		VectorQuery: pointer.String(buildVectorQuery(params.EmbeddingField, params.Vector, params.K, params.NumProbes)),
		PerPage:     pointer.Int(pageSize(params.Limit)),
	}
	if filterBy != "" {
		searchParams.FilterBy = pointer.String(filterBy)
	}

	result, err := a.client.Client().Collection(params.Collection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s failed: %w", params.Collection, err)
	}

	return hitsFromResult(result, params.Limit), nil
}

// ProximitySearch runs a geo-first query ordered by distance from the given
// coordinate. The spatial predicate heads the composed filter; structured
// filters follow it, never precede it.
func (a *TypesenseAdapter) ProximitySearch(ctx context.Context, params repositories.ProximitySearchParams) ([]repositories.SearchHit, error) {
	radiusKm := geoutil.MilesToKm(params.RadiusMiles)
	geoPredicate := fmt.Sprintf("location:(%f, %f, %f km)", params.Location.Latitude, params.Location.Longitude, radiusKm)

	filterBy := geoPredicate
	if structured := buildFilterBy(params.Collection, params.Filters, ""); structured != "" {
		filterBy = geoPredicate + " && " + structured
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String(filterBy),
		SortBy:   pointer.String(fmt.Sprintf("location(%f, %f):asc", params.Location.Latitude, params.Location.Longitude)),
		PerPage:  pointer.Int(pageSize(params.Limit)),
	}

	result, err := a.client.Client().Collection(params.Collection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("proximity search on %s failed: %w", params.Collection, err)
	}

	return hitsFromResult(result, params.Limit), nil
}

// Find runs a plain filtered query, with an optional bag-of-words text
// predicate over the expanded terms.
func (a *TypesenseAdapter) Find(ctx context.Context, params repositories.FindParams) ([]repositories.SearchHit, error) {
	q := "*"
	queryBy := "name"
	if len(params.Terms) > 0 {
		q = strings.Join(params.Terms, " ")
		queryBy = "name,category,description"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(queryBy),
		PerPage: pointer.Int(pageSize(params.Limit)),
	}
	if filterBy := buildFilterBy(params.Collection, params.Filters, ""); filterBy != "" {
		searchParams.FilterBy = pointer.String(filterBy)
	}

	result, err := a.client.Client().Collection(params.Collection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("find on %s failed: %w", params.Collection, err)
	}

	return hitsFromResult(result, params.Limit), nil
}

// FindByIDs fetches documents by identifier in one batch.
func (a *TypesenseAdapter) FindByIDs(ctx context.Context, collection string, ids []string) ([]repositories.SearchHit, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String(fmt.Sprintf("id:[%s]", strings.Join(ids, ","))),
		PerPage:  pointer.Int(pageSize(len(ids))),
	}

	result, err := a.client.Client().Collection(collection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("batch fetch on %s failed: %w", collection, err)
	}

	return hitsFromResult(result, len(ids)), nil
}

// Collections lists available collection names for diagnostics.
func (a *TypesenseAdapter) Collections(ctx context.Context) ([]string, error) {
	collections, err := a.client.Client().Collections().Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve collections: %w", err)
	}

	names := make([]string, 0, len(collections))
	for _, col := range collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// IndexProvider upserts a provider document into the providers collection.
func (a *TypesenseAdapter) IndexProvider(ctx context.Context, provider *entities.Provider) error {
	document := providerDocument(provider)
	_, err := a.client.Client().Collection(tsclient.ProvidersCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index provider: %w", err)
	}
	return nil
}

// IndexService upserts a service document into the services collection.
func (a *TypesenseAdapter) IndexService(ctx context.Context, service *entities.Service) error {
	document := serviceDocument(service)
	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index service: %w", err)
	}
	return nil
}

// DeleteProvider removes a provider document from the index.
func (a *TypesenseAdapter) DeleteProvider(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ProvidersCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete provider from index: %w", err)
	}
	return nil
}

// buildVectorQuery renders the store's vector query expression. The cutoff
// parameter tunes when the store falls back from approximate to exhaustive
// search.
func buildVectorQuery(field string, vector []float32, k, cutoff int) string {
	var sb strings.Builder
	sb.WriteString(field)
	sb.WriteString(":([")
	for i, v := range vector {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteString(fmt.Sprintf("], k:%d", k))
	if cutoff > 0 {
		sb.WriteString(fmt.Sprintf(", flat_search_cutoff:%d", cutoff))
	}
	sb.WriteString(")")
	return sb.String()
}

// buildFilterBy renders the structured filter bundle for a collection.
// Provider-level and service-level collections carry different fields, so
// the same Filters bundle maps differently per collection.
func buildFilterBy(collection string, f entities.Filters, prefix string) string {
	var clauses []string
	if prefix != "" {
		clauses = append(clauses, prefix)
	}

	switch collection {
	case repositories.ServicesCollection:
		if f.FreeOnly {
			clauses = append(clauses, "is_free:=true")
		}
		if len(f.ServiceCategories) > 0 {
			clauses = append(clauses, fmt.Sprintf("category:[%s]", strings.Join(f.ServiceCategories, ",")))
		}
	default:
		clauses = append(clauses, "is_active:=true")
		if f.FreeOnly {
			clauses = append(clauses, "has_free_service:=true")
		}
		if f.AcceptsMedicaid {
			clauses = append(clauses, "accepts_medicaid:=true")
		}
		if f.AcceptsMedicare {
			clauses = append(clauses, "accepts_medicare:=true")
		}
		if f.AcceptsUninsured {
			clauses = append(clauses, "accepts_uninsured:=true")
		}
		if f.TelehealthAvailable {
			clauses = append(clauses, "telehealth_available:=true")
		}
		if len(f.InsuranceProviders) > 0 {
			clauses = append(clauses, fmt.Sprintf("accepted_insurance:[%s]", strings.Join(f.InsuranceProviders, ",")))
		}
		if len(f.ServiceCategories) > 0 {
			clauses = append(clauses, fmt.Sprintf("service_categories:[%s]", strings.Join(f.ServiceCategories, ",")))
		}
	}

	return strings.Join(clauses, " && ")
}

func pageSize(limit int) int {
	if limit <= 0 || limit > maxPerPage {
		return maxPerPage
	}
	return limit
}

// hitsFromResult converts store hits to raw candidate hits, capturing native
// distance metadata and stripping internal provenance keys.
func hitsFromResult(result *api.SearchResult, limit int) []repositories.SearchHit {
	if result == nil || result.Hits == nil {
		return nil
	}

	hits := make([]repositories.SearchHit, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := stripProvenance(*hit.Document)

		out := repositories.SearchHit{Document: doc}
		if hit.VectorDistance != nil {
			d := float64(*hit.VectorDistance)
			out.VectorDistance = &d
		}
		if hit.GeoDistanceMeters != nil {
			if meters, ok := (*hit.GeoDistanceMeters)["location"]; ok {
				m := float64(meters)
				out.GeoDistanceMeters = &m
			}
		}
		hits = append(hits, out)

		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

// stripProvenance drops store-internal keys from a raw document before it
// leaves the adapter.
func stripProvenance(doc map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "_") || k == "text_match" || k == "text_match_info" {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

func providerDocument(p *entities.Provider) map[string]interface{} {
	categories := make([]string, 0, len(p.Services))
	hasFree := false
	for _, svc := range p.Services {
		if svc.Category != "" {
			categories = append(categories, svc.Category)
		}
		if svc.IsFree {
			hasFree = true
		}
	}

	document := map[string]interface{}{
		"id":                   p.ID,
		"name":                 p.Name,
		"category":             p.Category,
		"review_count":         p.ReviewCount,
		"accepts_medicaid":     p.AcceptsMedicaid,
		"accepts_medicare":     p.AcceptsMedicare,
		"accepts_uninsured":    p.AcceptsUninsured,
		"telehealth_available": p.TelehealthAvailable,
		"has_free_service":     hasFree,
		"is_active":            p.IsActive,
		"created_at":           p.CreatedAt.Unix(),
	}
	if p.Location != nil {
		document["location"] = []float64{p.Location.Latitude, p.Location.Longitude}
	}
	if p.Rating != nil {
		document["rating"] = *p.Rating
	}
	if len(p.AcceptedInsurance) > 0 {
		document["accepted_insurance"] = p.AcceptedInsurance
	}
	if len(categories) > 0 {
		document["service_categories"] = categories
	}
	if len(p.Embedding) > 0 {
		document["embedding"] = p.Embedding
	}
	// Services ride along unindexed so provider hits come back self-contained
	// and the merger does not need a database round trip for them.
	if len(p.Services) > 0 {
		services := make([]map[string]interface{}, 0, len(p.Services))
		for _, svc := range p.Services {
			services = append(services, embeddedServiceDocument(svc))
		}
		document["services"] = services
	}
	return document
}

func embeddedServiceDocument(s *entities.Service) map[string]interface{} {
	doc := map[string]interface{}{
		"id":          s.ID,
		"provider_id": s.ProviderID,
		"name":        s.Name,
		"is_free":     s.IsFree,
	}
	if s.Category != "" {
		doc["category"] = s.Category
	}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if s.Price != nil {
		price := map[string]interface{}{}
		if s.Price.Flat != nil {
			price["flat"] = *s.Price.Flat
		}
		if s.Price.Min != nil {
			price["min"] = *s.Price.Min
		}
		if s.Price.Max != nil {
			price["max"] = *s.Price.Max
		}
		if len(price) > 0 {
			doc["price"] = price
		}
	}
	if s.PriceNote != "" {
		doc["price_note"] = s.PriceNote
	}
	return doc
}

func serviceDocument(s *entities.Service) map[string]interface{} {
	document := map[string]interface{}{
		"id":          s.ID,
		"provider_id": s.ProviderID,
		"name":        s.Name,
		"is_free":     s.IsFree,
		"created_at":  time.Now().Unix(),
	}
	if s.Category != "" {
		document["category"] = s.Category
	}
	if s.Description != "" {
		document["description"] = s.Description
	}
	if min, ok := s.EffectiveMin(); ok {
		document["price_min"] = min
	}
	if max, ok := s.EffectiveMax(); ok {
		document["price_max"] = max
	}
	if len(s.Embedding) > 0 {
		document["embedding"] = s.Embedding
	}
	return document
}
