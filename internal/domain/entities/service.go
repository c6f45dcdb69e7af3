package entities

// Service represents a specific offering provided by exactly one Provider.
type Service struct {
	ID          string    `json:"id" db:"id"`
	ProviderID  string    `json:"provider_id" db:"provider_id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category,omitempty" db:"category"`
	Description string    `json:"description,omitempty" db:"description"`
	IsFree      bool      `json:"is_free" db:"is_free"`
	Price       *Price    `json:"price,omitempty" db:"-"`
	PriceNote   string    `json:"price_note,omitempty" db:"price_note"`
	Embedding   []float32 `json:"embedding,omitempty" db:"-"`
}

// Price is either a flat price or a min/max range.
// IsFree on the owning Service overrides any Price to mean zero cost.
type Price struct {
	Flat *float64 `json:"flat,omitempty" db:"price_flat"`
	Min  *float64 `json:"min,omitempty" db:"price_min"`
	Max  *float64 `json:"max,omitempty" db:"price_max"`
}

// EffectiveMin returns the lowest cost this service can be obtained at.
// A free service always costs zero regardless of its stated price.
func (s *Service) EffectiveMin() (float64, bool) {
	if s.IsFree {
		return 0, true
	}
	if s.Price == nil {
		return 0, false
	}
	if s.Price.Flat != nil {
		return *s.Price.Flat, true
	}
	if s.Price.Min != nil {
		return *s.Price.Min, true
	}
	return 0, false
}

// EffectiveMax returns the highest stated cost for this service.
func (s *Service) EffectiveMax() (float64, bool) {
	if s.Price != nil {
		if s.Price.Max != nil {
			return *s.Price.Max, true
		}
		if s.Price.Flat != nil {
			return *s.Price.Flat, true
		}
	}
	if s.IsFree {
		return 0, true
	}
	return 0, false
}
