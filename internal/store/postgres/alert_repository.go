package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"flexmon-go/internal/domain"
)

// AlertRepository implements store.AlertRepository using PostgreSQL.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new PostgreSQL-backed alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create stores a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (
			id, rule_id, rule_name, tenant_id, host, severity, message,
			value, threshold, triggered_at, resolved_at, acknowledged_at,
			acknowledged_by, fingerprint, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	tags := alert.Tags
	if tags == nil {
		tags = map[string]string{}
	}

	_, err := r.db.pool.Exec(ctx, query,
		alert.ID,
		nullableString(alert.RuleID),
		alert.RuleName,
		alert.TenantID,
		alert.Host,
		alert.Severity,
		alert.Message,
		alert.Value,
		alert.Threshold,
		alert.TriggeredAt,
		alert.ResolvedAt,
		alert.AcknowledgedAt,
		nullableString(alert.AcknowledgedBy),
		alert.Fingerprint,
		tags,
	)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// FindByFingerprintSince returns the most recent alert with the given
// fingerprint triggered after since, or nil if none exists. The query
// deliberately ignores resolved_at: deduplication is a pure time-window
// check on triggered_at.
func (r *AlertRepository) FindByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (*domain.Alert, error) {
	query := `
		SELECT id, rule_id, rule_name, tenant_id, host, severity, message,
			   value, threshold, triggered_at, resolved_at, acknowledged_at,
			   acknowledged_by, fingerprint, tags
		FROM alerts
		WHERE fingerprint = $1 AND triggered_at > $2
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	row := r.db.pool.QueryRow(ctx, query, fingerprint, since)

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find alert by fingerprint: %w", err)
	}

	return alert, nil
}

// List retrieves alerts matching the filter criteria.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	query := `
		SELECT id, rule_id, rule_name, tenant_id, host, severity, message,
			   value, threshold, triggered_at, resolved_at, acknowledged_at,
			   acknowledged_by, fingerprint, tags
		FROM alerts
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.TenantID != "" {
		query += fmt.Sprintf(" AND tenant_id = $%d", argNum)
		args = append(args, filter.TenantID)
		argNum++
	}

	if filter.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, filter.Severity)
		argNum++
	}

	if filter.RuleID != "" {
		query += fmt.Sprintf(" AND rule_id = $%d", argNum)
		args = append(args, filter.RuleID)
		argNum++
	}

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND triggered_at > $%d", argNum)
		args = append(args, filter.Since)
		argNum++
	}

	query += " ORDER BY triggered_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// scanAlert scans a single row into an Alert.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var alert domain.Alert
	var ruleID, acknowledgedBy *string

	err := row.Scan(
		&alert.ID,
		&ruleID,
		&alert.RuleName,
		&alert.TenantID,
		&alert.Host,
		&alert.Severity,
		&alert.Message,
		&alert.Value,
		&alert.Threshold,
		&alert.TriggeredAt,
		&alert.ResolvedAt,
		&alert.AcknowledgedAt,
		&acknowledgedBy,
		&alert.Fingerprint,
		&alert.Tags,
	)

	if err != nil {
		return nil, err
	}

	if ruleID != nil {
		alert.RuleID = *ruleID
	}
	if acknowledgedBy != nil {
		alert.AcknowledgedBy = *acknowledgedBy
	}

	return &alert, nil
}

// nullableString returns nil if the string is empty, otherwise returns a pointer to it.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
