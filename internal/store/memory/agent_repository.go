package memory

import (
	"context"
	"sync"
	"time"

	"flexmon-go/internal/domain"
)

// AgentRepository is an in-memory implementation of store.AgentRepository.
type AgentRepository struct {
	mu     sync.RWMutex
	agents map[string]*domain.Agent
}

// NewAgentRepository creates a new in-memory agent repository.
func NewAgentRepository() *AgentRepository {
	return &AgentRepository{
		agents: make(map[string]*domain.Agent),
	}
}

// Register stores an agent. Existing agents with the same ID are replaced.
func (r *AgentRepository) Register(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agentCopy := *agent
	r.agents[agent.ID] = &agentCopy
	return nil
}

// StaleAgents returns distinct (tenant, host) pairs for licensed,
// alert-enabled agents whose last_seen is older than the cutoff.
func (r *AgentRepository) StaleAgents(ctx context.Context, olderThan time.Time) ([]domain.AgentRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[domain.AgentRef]bool)
	var results []domain.AgentRef
	for _, agent := range r.agents {
		if !agent.Licensed || agent.IgnoreAlerts {
			continue
		}
		if !agent.LastSeen.Before(olderThan) {
			continue
		}
		ref := domain.AgentRef{TenantID: agent.TenantID, Host: agent.Hostname}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		results = append(results, ref)
	}
	return results, nil
}

// Clear removes all agents. Useful for test cleanup.
func (r *AgentRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*domain.Agent)
}
