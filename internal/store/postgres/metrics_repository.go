package postgres

import (
	"context"
	"fmt"
	"time"

	"flexmon-go/internal/store"
)

// MetricsRepository implements store.MetricsRepository using PostgreSQL.
//
// Table and column identifiers are interpolated into the SQL text. They come
// exclusively from the engine's fixed series allow-list, never from user
// input; values are always bound parameters.
type MetricsRepository struct {
	db *DB
}

// NewMetricsRepository creates a new PostgreSQL-backed metrics repository.
func NewMetricsRepository(db *DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// AverageByHost computes the average of a series over the trailing window,
// grouped by (tenant, host).
func (r *MetricsRepository) AverageByHost(ctx context.Context, s store.Series, window time.Duration, tenantID string) ([]store.MetricAggregate, error) {
	query := fmt.Sprintf(`
		SELECT tenant_id, host, AVG(%s) AS avg_value
		FROM %s
		WHERE timestamp > NOW() - $1
		AND tenant_id = COALESCE($2, tenant_id)
		GROUP BY tenant_id, host
	`, s.Column, s.Table)

	rows, err := r.db.pool.Query(ctx, query, window, nullableString(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", s.Table, err)
	}
	defer rows.Close()

	var results []store.MetricAggregate
	for rows.Next() {
		var agg store.MetricAggregate
		if err := rows.Scan(&agg.TenantID, &agg.Host, &agg.Value); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		results = append(results, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregates: %w", err)
	}

	return results, nil
}

// AverageByDimension computes the average of a sub-dimensioned series over
// [from, to), grouped by (tenant, host, dimension).
func (r *MetricsRepository) AverageByDimension(ctx context.Context, s store.Series, from, to time.Time, tenantID string) ([]store.DimensionAggregate, error) {
	query := fmt.Sprintf(`
		SELECT tenant_id, host, %s, AVG(%s) AS avg_value
		FROM %s
		WHERE timestamp >= $1 AND timestamp < $2
		AND tenant_id = COALESCE($3, tenant_id)
		GROUP BY tenant_id, host, %s
	`, s.Dimension, s.Column, s.Table, s.Dimension)

	rows, err := r.db.pool.Query(ctx, query, from, to, nullableString(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s by %s: %w", s.Table, s.Dimension, err)
	}
	defer rows.Close()

	var results []store.DimensionAggregate
	for rows.Next() {
		var agg store.DimensionAggregate
		if err := rows.Scan(&agg.TenantID, &agg.Host, &agg.Dimension, &agg.Value); err != nil {
			return nil, fmt.Errorf("failed to scan dimension aggregate: %w", err)
		}
		results = append(results, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dimension aggregates: %w", err)
	}

	return results, nil
}

// CountEvents counts generic metric points with the given metric name over
// the trailing window, grouped by (tenant, host).
func (r *MetricsRepository) CountEvents(ctx context.Context, metricName string, window time.Duration, tenantID string) ([]store.MetricAggregate, error) {
	query := `
		SELECT tenant_id, host, COUNT(*)::float8 AS event_count
		FROM metrics_points
		WHERE metric_name = $1
		AND timestamp > NOW() - $2
		AND tenant_id = COALESCE($3, tenant_id)
		GROUP BY tenant_id, host
	`

	rows, err := r.db.pool.Query(ctx, query, metricName, window, nullableString(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to count events for %s: %w", metricName, err)
	}
	defer rows.Close()

	var results []store.MetricAggregate
	for rows.Next() {
		var agg store.MetricAggregate
		if err := rows.Scan(&agg.TenantID, &agg.Host, &agg.Value); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		results = append(results, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}

	return results, nil
}
