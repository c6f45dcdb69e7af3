package entities

import "time"

// Provider represents a care-giving organization or business.
// Providers are created and updated by the ingestion pipeline and are
// read-only from the search engine's perspective.
type Provider struct {
	ID                  string     `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Category            string     `json:"category" db:"category"`
	PhoneNumber         string     `json:"phone_number,omitempty" db:"phone_number"`
	Website             string     `json:"website,omitempty" db:"website"`
	Email               string     `json:"email,omitempty" db:"email"`
	BookingURL          string     `json:"booking_url,omitempty" db:"booking_url"`
	Address             Address    `json:"address" db:"-"`
	Location            *GeoPoint  `json:"location,omitempty" db:"-"`
	Rating              *float64   `json:"rating,omitempty" db:"rating"`
	ReviewCount         int        `json:"review_count" db:"review_count"`
	AcceptsMedicaid     bool       `json:"accepts_medicaid" db:"accepts_medicaid"`
	AcceptsMedicare     bool       `json:"accepts_medicare" db:"accepts_medicare"`
	AcceptsSelfPay      bool       `json:"accepts_self_pay" db:"accepts_self_pay"`
	AcceptsUninsured    bool       `json:"accepts_uninsured" db:"accepts_uninsured"`
	TelehealthAvailable bool       `json:"telehealth_available" db:"telehealth_available"`
	AcceptedInsurance   []string   `json:"accepted_insurance,omitempty" db:"-"`
	Services            []*Service `json:"services,omitempty" db:"-"`
	Embedding           []float32  `json:"embedding,omitempty" db:"-"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// Address represents a physical address
type Address struct {
	Street  string `json:"street" db:"street"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	ZipCode string `json:"zip_code" db:"zip_code"`
}

// GeoPoint represents geographical coordinates
type GeoPoint struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// ProviderEvent represents a change to a provider, published on the event bus
type ProviderEvent struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Provider event types
const (
	EventTypeProviderUpdated = "provider.updated"
	EventTypeProviderDeleted = "provider.deleted"
)
