package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
)

var providerColumns = []interface{}{
	"id", "name", "category", "phone_number", "website", "email", "booking_url",
	"street", "city", "state", "zip_code", "latitude", "longitude",
	"rating", "review_count", "accepts_medicaid", "accepts_medicare",
	"accepts_self_pay", "accepts_uninsured", "telehealth_available",
	"accepted_insurance", "is_active", "created_at", "updated_at",
}

var serviceColumns = []interface{}{
	"id", "provider_id", "name", "category", "description",
	"is_free", "price_flat", "price_min", "price_max", "price_note",
}

// ProviderAdapter implements ProviderRepository
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a provider and its services in one transaction
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Insert("providers").Rows(providerRecord(provider)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create provider", err)
	}

	for _, svc := range provider.Services {
		query, args, err := a.db.Insert("services").Rows(serviceRecord(svc)).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build service insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create service", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit provider", err)
	}
	return nil
}

// Update updates a provider and replaces its services
func (a *ProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	provider.UpdatedAt = time.Now()

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Update("providers").
		Set(providerRecord(provider)).
		Where(goqu.Ex{"id": provider.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update provider", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", provider.ID))
	}

	query, args, err = a.db.Delete("services").Where(goqu.Ex{"provider_id": provider.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build service delete query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to replace services", err)
	}

	for _, svc := range provider.Services {
		query, args, err := a.db.Insert("services").Rows(serviceRecord(svc)).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build service insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create service", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit provider update", err)
	}
	return nil
}

// GetByID retrieves a provider and its services by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	providers, err := a.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	return providers[0], nil
}

// GetByIDs retrieves multiple providers with their services in one batch
func (a *ProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	query, args, err := a.db.Select(providerColumns...).
		From("providers").
		Where(goqu.Ex{"id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get providers by ids", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	byID := make(map[string]*entities.Provider)
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providers = append(providers, provider)
		byID[provider.ID] = provider
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}

	if len(providers) == 0 {
		return []*entities.Provider{}, nil
	}

	if err := a.attachServices(ctx, byID); err != nil {
		return nil, err
	}

	return providers, nil
}

// List retrieves providers matching the filter
func (a *ProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 30
	}

	ds := a.db.Select(providerColumns...).
		From("providers").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(filter.Offset))
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	byID := make(map[string]*entities.Provider)
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providers = append(providers, provider)
		byID[provider.ID] = provider
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}

	if len(providers) > 0 {
		if err := a.attachServices(ctx, byID); err != nil {
			return nil, err
		}
	}

	return providers, nil
}

func (a *ProviderAdapter) attachServices(ctx context.Context, byID map[string]*entities.Provider) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	query, args, err := a.db.Select(serviceColumns...).
		From("services").
		Where(goqu.Ex{"provider_id": ids}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build services query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to get services", err)
	}
	defer rows.Close()

	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return apperrors.NewInternalError("failed to scan service", err)
		}
		if provider, ok := byID[svc.ProviderID]; ok {
			provider.Services = append(provider.Services, svc)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate services", err)
	}

	return nil
}

func providerRecord(p *entities.Provider) goqu.Record {
	record := goqu.Record{
		"id":                   p.ID,
		"name":                 p.Name,
		"category":             p.Category,
		"phone_number":         sql.NullString{String: p.PhoneNumber, Valid: p.PhoneNumber != ""},
		"website":              sql.NullString{String: p.Website, Valid: p.Website != ""},
		"email":                sql.NullString{String: p.Email, Valid: p.Email != ""},
		"booking_url":          sql.NullString{String: p.BookingURL, Valid: p.BookingURL != ""},
		"street":               p.Address.Street,
		"city":                 p.Address.City,
		"state":                p.Address.State,
		"zip_code":             p.Address.ZipCode,
		"review_count":         p.ReviewCount,
		"accepts_medicaid":     p.AcceptsMedicaid,
		"accepts_medicare":     p.AcceptsMedicare,
		"accepts_self_pay":     p.AcceptsSelfPay,
		"accepts_uninsured":    p.AcceptsUninsured,
		"telehealth_available": p.TelehealthAvailable,
		"accepted_insurance":   pq.Array(p.AcceptedInsurance),
		"is_active":            p.IsActive,
		"created_at":           p.CreatedAt,
		"updated_at":           p.UpdatedAt,
	}
	if p.Location != nil {
		record["latitude"] = p.Location.Latitude
		record["longitude"] = p.Location.Longitude
	} else {
		record["latitude"] = nil
		record["longitude"] = nil
	}
	if p.Rating != nil {
		record["rating"] = *p.Rating
	} else {
		record["rating"] = nil
	}
	return record
}

func serviceRecord(s *entities.Service) goqu.Record {
	record := goqu.Record{
		"id":          s.ID,
		"provider_id": s.ProviderID,
		"name":        s.Name,
		"category":    sql.NullString{String: s.Category, Valid: s.Category != ""},
		"description": sql.NullString{String: s.Description, Valid: s.Description != ""},
		"is_free":     s.IsFree,
		"price_note":  sql.NullString{String: s.PriceNote, Valid: s.PriceNote != ""},
		"price_flat":  nil,
		"price_min":   nil,
		"price_max":   nil,
	}
	if s.Price != nil {
		if s.Price.Flat != nil {
			record["price_flat"] = *s.Price.Flat
		}
		if s.Price.Min != nil {
			record["price_min"] = *s.Price.Min
		}
		if s.Price.Max != nil {
			record["price_max"] = *s.Price.Max
		}
	}
	return record
}

func scanProvider(rows *sql.Rows) (*entities.Provider, error) {
	provider := &entities.Provider{}
	var phone, website, email, bookingURL sql.NullString
	var latitude, longitude, rating sql.NullFloat64

	err := rows.Scan(
		&provider.ID,
		&provider.Name,
		&provider.Category,
		&phone,
		&website,
		&email,
		&bookingURL,
		&provider.Address.Street,
		&provider.Address.City,
		&provider.Address.State,
		&provider.Address.ZipCode,
		&latitude,
		&longitude,
		&rating,
		&provider.ReviewCount,
		&provider.AcceptsMedicaid,
		&provider.AcceptsMedicare,
		&provider.AcceptsSelfPay,
		&provider.AcceptsUninsured,
		&provider.TelehealthAvailable,
		pq.Array(&provider.AcceptedInsurance),
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	provider.PhoneNumber = phone.String
	provider.Website = website.String
	provider.Email = email.String
	provider.BookingURL = bookingURL.String
	if latitude.Valid && longitude.Valid {
		provider.Location = &entities.GeoPoint{Latitude: latitude.Float64, Longitude: longitude.Float64}
	}
	if rating.Valid {
		provider.Rating = &rating.Float64
	}

	return provider, nil
}

func scanService(rows *sql.Rows) (*entities.Service, error) {
	svc := &entities.Service{}
	var category, description, priceNote sql.NullString
	var priceFlat, priceMin, priceMax sql.NullFloat64

	err := rows.Scan(
		&svc.ID,
		&svc.ProviderID,
		&svc.Name,
		&category,
		&description,
		&svc.IsFree,
		&priceFlat,
		&priceMin,
		&priceMax,
		&priceNote,
	)
	if err != nil {
		return nil, err
	}

	svc.Category = category.String
	svc.Description = description.String
	svc.PriceNote = priceNote.String
	if priceFlat.Valid || priceMin.Valid || priceMax.Valid {
		svc.Price = &entities.Price{}
		if priceFlat.Valid {
			svc.Price.Flat = &priceFlat.Float64
		}
		if priceMin.Valid {
			svc.Price.Min = &priceMin.Float64
		}
		if priceMax.Valid {
			svc.Price.Max = &priceMax.Float64
		}
	}

	return svc, nil
}
