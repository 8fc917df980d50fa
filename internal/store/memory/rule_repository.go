// Package memory provides in-memory implementations of the store interfaces.
// This is useful for testing and development without external dependencies.
package memory

import (
	"context"
	"sync"

	"flexmon-go/internal/domain"
)

// RuleRepository is an in-memory implementation of store.RuleRepository.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.AlertRule
}

// NewRuleRepository creates a new in-memory rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		rules: make(map[string]*domain.AlertRule),
	}
}

// Create stores a rule. Existing rules with the same ID are replaced.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy
	return nil
}

// ListEnabled returns all enabled alert rules.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]*domain.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.AlertRule
	for _, rule := range r.rules {
		if !rule.Enabled {
			continue
		}
		ruleCopy := *rule
		results = append(results, &ruleCopy)
	}
	return results, nil
}

// Clear removes all rules. Useful for test cleanup.
func (r *RuleRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[string]*domain.AlertRule)
}
