package postgres

import (
	"context"
	"fmt"

	"flexmon-go/internal/domain"
)

// RuleRepository implements store.RuleRepository using PostgreSQL.
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new PostgreSQL-backed rule repository.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListEnabled returns all enabled alert rules.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, type, metric, condition, threshold,
			   duration_minutes, severity, enabled, tenant_id, config, tags,
			   created_at, updated_at
		FROM alert_rules
		WHERE enabled = TRUE
		ORDER BY created_at
	`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		var rule domain.AlertRule
		var condition, tenantID *string

		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.Type,
			&rule.Metric,
			&condition,
			&rule.Threshold,
			&rule.DurationMinutes,
			&rule.Severity,
			&rule.Enabled,
			&tenantID,
			&rule.Config,
			&rule.Tags,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		if condition != nil {
			rule.Condition = domain.Condition(*condition)
		}
		if tenantID != nil {
			rule.TenantID = *tenantID
		}

		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}
