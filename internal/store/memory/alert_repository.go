package memory

import (
	"context"
	"sync"
	"time"

	"flexmon-go/internal/domain"
)

// AlertRepository is an in-memory implementation of store.AlertRepository.
// It stores alerts in a map by ID with a secondary index by fingerprint.
type AlertRepository struct {
	mu sync.RWMutex

	// alerts stores all alerts by their database ID
	alerts map[string]*domain.Alert

	// byFingerprint indexes alerts by fingerprint, newest last
	byFingerprint map[string][]*domain.Alert
}

// NewAlertRepository creates a new in-memory alert repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		alerts:        make(map[string]*domain.Alert),
		byFingerprint: make(map[string][]*domain.Alert),
	}
}

// Create stores a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modification
	alertCopy := *alert
	r.alerts[alert.ID] = &alertCopy
	r.byFingerprint[alert.Fingerprint] = append(r.byFingerprint[alert.Fingerprint], &alertCopy)
	return nil
}

// FindByFingerprintSince returns the most recent alert with the given
// fingerprint triggered after since, or nil if none exists. Resolution
// state is not consulted.
func (r *AlertRepository) FindByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *domain.Alert
	for _, alert := range r.byFingerprint[fingerprint] {
		if !alert.TriggeredAt.After(since) {
			continue
		}
		if newest == nil || alert.TriggeredAt.After(newest.TriggeredAt) {
			newest = alert
		}
	}
	if newest == nil {
		return nil, nil
	}

	result := *newest
	return &result, nil
}

// List retrieves alerts matching the filter criteria.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Alert
	for _, alert := range r.alerts {
		if filter.TenantID != "" && alert.TenantID != filter.TenantID {
			continue
		}
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		if filter.RuleID != "" && alert.RuleID != filter.RuleID {
			continue
		}
		if !filter.Since.IsZero() && !alert.TriggeredAt.After(filter.Since) {
			continue
		}
		alertCopy := *alert
		results = append(results, &alertCopy)
	}

	start := filter.Offset
	if start > len(results) {
		start = len(results)
	}
	end := len(results)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	return results[start:end], nil
}

// Count returns the total number of stored alerts. Useful for tests.
func (r *AlertRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alerts)
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *AlertRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts = make(map[string]*domain.Alert)
	r.byFingerprint = make(map[string][]*domain.Alert)
}
