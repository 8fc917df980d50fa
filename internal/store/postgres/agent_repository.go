package postgres

import (
	"context"
	"fmt"
	"time"

	"flexmon-go/internal/domain"
)

// AgentRepository implements store.AgentRepository using PostgreSQL.
type AgentRepository struct {
	db *DB
}

// NewAgentRepository creates a new PostgreSQL-backed agent repository.
func NewAgentRepository(db *DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// StaleAgents returns distinct (tenant, host) pairs for licensed,
// alert-enabled agents whose last_seen is older than the cutoff.
// Unlicensed agents never participate in absence detection.
func (r *AgentRepository) StaleAgents(ctx context.Context, olderThan time.Time) ([]domain.AgentRef, error) {
	query := `
		SELECT DISTINCT tenant_id, hostname
		FROM agents
		WHERE licensed = TRUE
		AND ignore_alerts = FALSE
		AND last_seen < $1
	`

	rows, err := r.db.pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale agents: %w", err)
	}
	defer rows.Close()

	var refs []domain.AgentRef
	for rows.Next() {
		var ref domain.AgentRef
		if err := rows.Scan(&ref.TenantID, &ref.Host); err != nil {
			return nil, fmt.Errorf("failed to scan agent ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale agents: %w", err)
	}

	return refs, nil
}
