package services

import (
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/pkg/utils"
)

// providerFromDoc decodes a raw provider document from the search store into
// a Provider entity. Missing or mistyped fields decode to zero values; the
// merger decides what is fatal.
func providerFromDoc(doc map[string]interface{}) *entities.Provider {
	p := &entities.Provider{
		ID:                  docString(doc, "id"),
		Name:                docString(doc, "name"),
		Category:            docString(doc, "category"),
		PhoneNumber:         docString(doc, "phone_number"),
		Website:             docString(doc, "website"),
		Email:               docString(doc, "email"),
		BookingURL:          docString(doc, "booking_url"),
		ReviewCount:         int(docFloat(doc, "review_count")),
		AcceptsMedicaid:     docBool(doc, "accepts_medicaid"),
		AcceptsMedicare:     docBool(doc, "accepts_medicare"),
		AcceptsSelfPay:      docBool(doc, "accepts_self_pay"),
		AcceptsUninsured:    docBool(doc, "accepts_uninsured"),
		TelehealthAvailable: docBool(doc, "telehealth_available"),
		AcceptedInsurance:   docStrings(doc, "accepted_insurance"),
		IsActive:            docBool(doc, "is_active"),
	}

	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		lat, latOK := asFloat(loc[0])
		lon, lonOK := asFloat(loc[1])
		if latOK && lonOK {
			p.Location = &entities.GeoPoint{Latitude: lat, Longitude: lon}
		}
	}
	if v, ok := doc["rating"]; ok {
		if rating, ok := asFloat(v); ok {
			p.Rating = &rating
		}
	}
	p.Embedding = docVector(doc, "embedding")

	if raw, ok := doc["services"].([]interface{}); ok {
		for _, item := range raw {
			svcDoc, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			svc := serviceFromDoc(svcDoc)
			if svc.ProviderID == "" {
				svc.ProviderID = p.ID
			}
			p.Services = append(p.Services, svc)
		}
	}

	return p
}

// serviceFromDoc decodes a raw service document, accepting both the indexed
// flat shape (price_min/price_max) and the nested price object carried by
// embedded service entries.
func serviceFromDoc(doc map[string]interface{}) *entities.Service {
	svc := &entities.Service{
		ID:          docString(doc, "id"),
		ProviderID:  utils.ResolveProviderRef(doc),
		Name:        docString(doc, "name"),
		Category:    docString(doc, "category"),
		Description: docString(doc, "description"),
		IsFree:      docBool(doc, "is_free"),
		PriceNote:   docString(doc, "price_note"),
	}
	svc.Embedding = docVector(doc, "embedding")

	if priceDoc, ok := doc["price"].(map[string]interface{}); ok {
		price := &entities.Price{}
		if v, ok := asFloatKey(priceDoc, "flat"); ok {
			price.Flat = &v
		}
		if v, ok := asFloatKey(priceDoc, "min"); ok {
			price.Min = &v
		}
		if v, ok := asFloatKey(priceDoc, "max"); ok {
			price.Max = &v
		}
		if price.Flat != nil || price.Min != nil || price.Max != nil {
			svc.Price = price
		}
	} else {
		min, minOK := asFloatKey(doc, "price_min")
		max, maxOK := asFloatKey(doc, "price_max")
		if minOK || maxOK {
			price := &entities.Price{}
			if minOK {
				price.Min = &min
			}
			if maxOK {
				price.Max = &max
			}
			svc.Price = price
		}
	}

	return svc
}

func docString(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docBool(doc map[string]interface{}, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

func docFloat(doc map[string]interface{}, key string) float64 {
	v, _ := asFloatKey(doc, key)
	return v
}

func docStrings(doc map[string]interface{}, key string) []string {
	raw, ok := doc[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func docVector(doc map[string]interface{}, key string) []float32 {
	switch raw := doc[key].(type) {
	case []float32:
		return raw
	case []interface{}:
		out := make([]float32, 0, len(raw))
		for _, item := range raw {
			if f, ok := asFloat(item); ok {
				out = append(out, float32(f))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func asFloatKey(doc map[string]interface{}, key string) (float64, bool) {
	v, ok := doc[key]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
