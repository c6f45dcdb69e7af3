package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
)

func TestBuildFilterBy_ProviderCollection(t *testing.T) {
	filters := entities.Filters{
		FreeOnly:            true,
		AcceptsMedicaid:     true,
		TelehealthAvailable: true,
		InsuranceProviders:  []string{"Aetna", "Cigna"},
	}

	got := buildFilterBy(repositories.ProvidersCollection, filters, "")

	assert.Equal(t,
		"is_active:=true && has_free_service:=true && accepts_medicaid:=true && telehealth_available:=true && accepted_insurance:[Aetna,Cigna]",
		got)
}

func TestBuildFilterBy_ServiceCollection(t *testing.T) {
	filters := entities.Filters{
		FreeOnly:          true,
		ServiceCategories: []string{"dental", "vision"},
	}

	got := buildFilterBy(repositories.ServicesCollection, filters, "")

	assert.Equal(t, "is_free:=true && category:[dental,vision]", got)
}

func TestBuildFilterBy_EmptyFiltersStillScopeActive(t *testing.T) {
	got := buildFilterBy(repositories.ProvidersCollection, entities.Filters{}, "")
	assert.Equal(t, "is_active:=true", got)
}

func TestBuildVectorQuery(t *testing.T) {
	got := buildVectorQuery("embedding", []float32{0.5, -1}, 200, 40)
	assert.Equal(t, "embedding:([0.5,-1], k:200, flat_search_cutoff:40)", got)

	got = buildVectorQuery("embedding", []float32{1}, 10, 0)
	assert.Equal(t, "embedding:([1], k:10)", got)
}

func TestStripProvenance(t *testing.T) {
	doc := map[string]interface{}{
		"id":              "p1",
		"name":            "Clinic",
		"_internal":       "x",
		"text_match":      123,
		"text_match_info": map[string]interface{}{},
	}

	cleaned := stripProvenance(doc)

	assert.Equal(t, map[string]interface{}{"id": "p1", "name": "Clinic"}, cleaned)
}

func TestProviderDocument_DerivedFields(t *testing.T) {
	rating := 4.5
	price := 40.0
	provider := &entities.Provider{
		ID:        "p1",
		Name:      "Community Health",
		Category:  "Family Medicine",
		Rating:    &rating,
		Location:  &entities.GeoPoint{Latitude: 40.7, Longitude: -74.0},
		IsActive:  true,
		CreatedAt: time.Unix(1700000000, 0),
		Services: []*entities.Service{
			{ID: "s1", Category: "dental", IsFree: true},
			{ID: "s2", Category: "vision", Price: &entities.Price{Flat: &price}},
		},
	}

	doc := providerDocument(provider)

	assert.Equal(t, true, doc["has_free_service"])
	assert.Equal(t, []string{"dental", "vision"}, doc["service_categories"])
	assert.Equal(t, []float64{40.7, -74.0}, doc["location"])
	assert.Equal(t, 4.5, doc["rating"])
	assert.NotContains(t, doc, "embedding")

	// services ride along unindexed so provider hits are self-contained
	embedded, ok := doc["services"].([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, embedded, 2)
	assert.Equal(t, true, embedded[0]["is_free"])
}

func TestServiceDocument_PriceBounds(t *testing.T) {
	min, max := 25.0, 75.0
	svc := &entities.Service{
		ID:         "s1",
		ProviderID: "p1",
		Name:       "Screening",
		Price:      &entities.Price{Min: &min, Max: &max},
	}

	doc := serviceDocument(svc)

	assert.Equal(t, 25.0, doc["price_min"])
	assert.Equal(t, 75.0, doc["price_max"])
	assert.Equal(t, false, doc["is_free"])
}

func TestPageSize_CapsAtStoreLimit(t *testing.T) {
	assert.Equal(t, maxPerPage, pageSize(400))
	assert.Equal(t, maxPerPage, pageSize(0))
	assert.Equal(t, 6, pageSize(6))
}
