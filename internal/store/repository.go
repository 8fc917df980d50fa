// Package store defines interfaces for data persistence and telemetry queries.
// These abstractions allow swapping implementations (PostgreSQL, in-memory)
// without changing engine logic.
package store

import (
	"context"
	"time"

	"flexmon-go/internal/domain"
)

// Series names a telemetry series the metrics store can aggregate over.
// The engine resolves rule metric names against a fixed allow-list of
// these; identifiers never come from user input.
type Series struct {
	// Table is the backing relation for the series.
	Table string

	// Column is the value column aggregated.
	Column string

	// Dimension is the sub-dimension column for series that carry one
	// (e.g. the interface label on network series). Empty otherwise.
	Dimension string
}

// MetricAggregate is one (tenant, host) group produced by an aggregate query.
type MetricAggregate struct {
	TenantID string
	Host     string
	Value    float64
}

// DimensionAggregate is one (tenant, host, dimension) group produced by a
// sub-dimension aggregate query.
type DimensionAggregate struct {
	TenantID  string
	Host      string
	Dimension string
	Value     float64
}

// RuleRepository supplies the current rule set to the engine.
type RuleRepository interface {
	// ListEnabled returns all enabled alert rules.
	ListEnabled(ctx context.Context) ([]*domain.AlertRule, error)
}

// AlertRepository defines the interface for persistent alert storage.
type AlertRepository interface {
	// Create stores a new alert.
	Create(ctx context.Context, alert *domain.Alert) error

	// FindByFingerprintSince returns the most recent alert with the given
	// fingerprint whose triggered_at is after since, or nil if none exists.
	// Resolution state is deliberately not part of the lookup.
	FindByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (*domain.Alert, error)

	// List retrieves alerts matching the filter criteria.
	List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error)
}

// MetricsRepository answers windowed aggregate queries over telemetry series.
type MetricsRepository interface {
	// AverageByHost computes the average of a series over the trailing
	// window, grouped by (tenant, host). An empty tenantID means all tenants.
	AverageByHost(ctx context.Context, s Series, window time.Duration, tenantID string) ([]MetricAggregate, error)

	// AverageByDimension computes the average of a sub-dimensioned series
	// over [from, to), grouped by (tenant, host, dimension).
	AverageByDimension(ctx context.Context, s Series, from, to time.Time, tenantID string) ([]DimensionAggregate, error)

	// CountEvents counts generic metric points with the given metric name
	// over the trailing window, grouped by (tenant, host).
	CountEvents(ctx context.Context, metricName string, window time.Duration, tenantID string) ([]MetricAggregate, error)
}

// AgentRepository answers agent staleness queries for absence detection.
type AgentRepository interface {
	// StaleAgents returns distinct (tenant, host) pairs for licensed,
	// alert-enabled agents whose last_seen is older than the cutoff.
	StaleAgents(ctx context.Context, olderThan time.Time) ([]domain.AgentRef, error)
}
