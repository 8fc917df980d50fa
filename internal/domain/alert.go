package domain

import (
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert cannot be found.
var ErrAlertNotFound = errors.New("alert not found")

// Alert is a persisted alert occurrence. Alerts are created by the evaluation
// engine (or by webhook ingestion using the same store); acknowledgement and
// resolution are performed only by the API layer, never by the engine.
type Alert struct {
	// ID is the unique database identifier for this alert.
	ID string `json:"id"`

	// RuleID references the originating rule. Empty for platform-level
	// alarms that are not tied to a rule (external webhook sources).
	RuleID string `json:"rule_id,omitempty"`

	// RuleName is a snapshot of the rule name at firing time.
	RuleName string `json:"rule_name"`

	// TenantID is the tenant the alert belongs to.
	TenantID string `json:"tenant_id"`

	// Host is the host the alert condition was observed on.
	Host string `json:"host"`

	// Severity is copied from the rule at firing time.
	Severity Severity `json:"severity"`

	// Message is the human-readable alert text.
	Message string `json:"message"`

	// Value is the observed value that triggered the alert. Nil when the
	// condition has no numeric observation (absence rules).
	Value *float64 `json:"value,omitempty"`

	// Threshold is a snapshot of the rule threshold at firing time.
	Threshold *float64 `json:"threshold,omitempty"`

	// TriggeredAt is when the engine recorded the alert. Deduplication is a
	// pure time-window check on this field.
	TriggeredAt time.Time `json:"triggered_at"`

	// ResolvedAt is set by the API layer when the alert is resolved.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// AcknowledgedAt and AcknowledgedBy are set by the API layer.
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`

	// Fingerprint is the deterministic deduplication identity for the
	// recurring condition this alert represents.
	Fingerprint string `json:"fingerprint"`

	// Tags are free-form labels.
	Tags map[string]string `json:"tags,omitempty"`
}

// IsResolved returns true if the alert has been resolved.
func (a *Alert) IsResolved() bool {
	return a.ResolvedAt != nil
}

// IsAcknowledged returns true if the alert has been acknowledged.
func (a *Alert) IsAcknowledged() bool {
	return a.AcknowledgedAt != nil
}

// AlertFilter provides filtering options for querying alerts.
type AlertFilter struct {
	TenantID string
	Severity Severity
	RuleID   string
	Since    time.Time
	Limit    int
	Offset   int
}
