package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
)

// SearchAnalyticsAdapter implements SearchAnalyticsRepository
type SearchAnalyticsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// RecordSearch records one search outcome
func (a *SearchAnalyticsAdapter) RecordSearch(ctx context.Context, query string, resultCount int) error {
	record := goqu.Record{
		"id":           uuid.New().String(),
		"query":        query,
		"result_count": resultCount,
		"created_at":   time.Now(),
	}

	sqlQuery, args, err := a.db.Insert("search_analytics").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analytics insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, sqlQuery, args...); err != nil {
		return apperrors.NewInternalError("failed to record search", err)
	}
	return nil
}

// ZeroResultQueries returns the most frequent queries that produced no results
func (a *SearchAnalyticsAdapter) ZeroResultQueries(ctx context.Context, limit int) ([]repositories.ZeroResultQuery, error) {
	if limit <= 0 {
		limit = 100
	}

	sqlQuery, args, err := a.db.Select(
		goqu.I("query"),
		goqu.COUNT("*").As("count"),
	).From("search_analytics").
		Where(goqu.Ex{"result_count": 0}).
		GroupBy("query").
		Order(goqu.I("count").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build analytics query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query zero-result searches", err)
	}
	defer rows.Close()

	var results []repositories.ZeroResultQuery
	for rows.Next() {
		var zrq repositories.ZeroResultQuery
		if err := rows.Scan(&zrq.Query, &zrq.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan zero-result query", err)
		}
		results = append(results, zrq)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate zero-result queries", err)
	}

	return results, nil
}
