// Package postgres provides PostgreSQL-based implementations of the store
// interfaces. The metric tables are TimescaleDB hypertables in production,
// but the queries here only rely on plain SQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flexmon-go/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS alert_rules (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type VARCHAR(20) NOT NULL,
			metric VARCHAR(100) NOT NULL DEFAULT '',
			condition VARCHAR(2),
			threshold DOUBLE PRECISION,
			duration_minutes INTEGER NOT NULL DEFAULT 5,
			severity VARCHAR(20) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			tenant_id VARCHAR(100),
			config JSONB NOT NULL DEFAULT '{}'::jsonb,
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alert_rules_enabled ON alert_rules(enabled);

		CREATE TABLE IF NOT EXISTS alerts (
			id VARCHAR(36) PRIMARY KEY,
			rule_id VARCHAR(36),
			rule_name VARCHAR(255) NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			value DOUBLE PRECISION,
			threshold DOUBLE PRECISION,
			triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
			resolved_at TIMESTAMP WITH TIME ZONE,
			acknowledged_at TIMESTAMP WITH TIME ZONE,
			acknowledged_by VARCHAR(255),
			fingerprint VARCHAR(64) NOT NULL,
			tags JSONB NOT NULL DEFAULT '{}'::jsonb
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_fingerprint_triggered
			ON alerts(fingerprint, triggered_at DESC);
		CREATE INDEX IF NOT EXISTS idx_alerts_tenant ON alerts(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_triggered ON alerts(triggered_at DESC);

		CREATE TABLE IF NOT EXISTS agents (
			id VARCHAR(36) PRIMARY KEY,
			fingerprint VARCHAR(64) NOT NULL,
			hostname VARCHAR(255) NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			licensed BOOLEAN NOT NULL DEFAULT FALSE,
			ignore_alerts BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen TIMESTAMP WITH TIME ZONE,
			registered_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_agents_last_seen ON agents(last_seen);

		CREATE TABLE IF NOT EXISTS metrics_cpu (
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			cpu_percent DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS metrics_memory (
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			memory_percent DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS metrics_disk (
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			disk_percent DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS metrics_network (
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			interface VARCHAR(100) NOT NULL,
			bytes_sent DOUBLE PRECISION NOT NULL,
			bytes_recv DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS metrics_points (
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			tenant_id VARCHAR(100) NOT NULL,
			host VARCHAR(255) NOT NULL,
			metric_name VARCHAR(100) NOT NULL,
			value DOUBLE PRECISION NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_metrics_points_name_time
			ON metrics_points(metric_name, timestamp DESC);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
