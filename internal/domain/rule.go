// Package domain contains the core business entities and value objects for FlexMon.
// These models represent the ubiquitous language of the monitoring and alerting domain.
package domain

import (
	"errors"
	"time"
)

// RuleType identifies the detection strategy an alert rule uses.
// The set is closed: the engine dispatches on it exhaustively, so adding
// a strategy means adding a case to the dispatcher.
type RuleType string

const (
	// RuleTypeThreshold compares a windowed metric average against a fixed threshold.
	RuleTypeThreshold RuleType = "threshold"
	// RuleTypeRatio compares the ratio of two event counts against a percentage.
	RuleTypeRatio RuleType = "ratio"
	// RuleTypeAnomaly compares a current average against a historical baseline.
	RuleTypeAnomaly RuleType = "anomaly"
	// RuleTypeAbsence detects licensed agents that stopped reporting.
	RuleTypeAbsence RuleType = "absence"
	// RuleTypeLogQuery counts log documents matching a search predicate.
	RuleTypeLogQuery RuleType = "log_query"
)

// IsValid returns true if the rule type is a known valid value.
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeThreshold, RuleTypeRatio, RuleTypeAnomaly, RuleTypeAbsence, RuleTypeLogQuery:
		return true
	default:
		return false
	}
}

// Condition is the comparison operator a threshold rule applies.
type Condition string

const (
	ConditionGreater      Condition = ">"
	ConditionLess         Condition = "<"
	ConditionGreaterEqual Condition = ">="
	ConditionLessEqual    Condition = "<="
)

// IsValid returns true if the condition is a known valid operator.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGreater, ConditionLess, ConditionGreaterEqual, ConditionLessEqual:
		return true
	default:
		return false
	}
}

// Satisfied reports whether value compared against threshold meets the condition.
func (c Condition) Satisfied(value, threshold float64) bool {
	switch c {
	case ConditionGreater:
		return value > threshold
	case ConditionLess:
		return value < threshold
	case ConditionGreaterEqual:
		return value >= threshold
	case ConditionLessEqual:
		return value <= threshold
	default:
		return false
	}
}

// Severity represents the severity level of a rule or alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	default:
		return false
	}
}

// ErrRuleNotFound is returned when an alert rule cannot be found.
var ErrRuleNotFound = errors.New("alert rule not found")

// AlertRule is a declarative detection rule. Rules are owned and mutated by
// the API layer; the engine only reads enabled rules and evaluates them.
type AlertRule struct {
	// ID is the unique identifier for this rule.
	ID string `json:"id"`

	// Name is a human-readable rule name, snapshotted onto fired alerts.
	Name string `json:"name"`

	// Description explains what the rule watches.
	Description string `json:"description"`

	// Type selects the detection strategy.
	Type RuleType `json:"type"`

	// Metric is the target metric name. Interpretation depends on Type:
	// threshold and anomaly rules resolve it against a series allow-list,
	// ratio and log_query rules ignore it in favor of Config.
	Metric string `json:"metric"`

	// Condition is the comparison operator for threshold rules.
	Condition Condition `json:"condition,omitempty"`

	// Threshold is the numeric trigger level. Nil for rule types that
	// carry their threshold in Config or need none (absence).
	Threshold *float64 `json:"threshold,omitempty"`

	// DurationMinutes is the look-back window evaluated each pass.
	DurationMinutes int `json:"duration_minutes"`

	// Severity is stamped onto alerts fired by this rule.
	Severity Severity `json:"severity"`

	// Enabled gates evaluation. Disabled rules are never loaded by the engine.
	Enabled bool `json:"enabled"`

	// TenantID scopes the rule to a single tenant. Empty means platform-wide:
	// the rule evaluates across all tenants.
	TenantID string `json:"tenant_id,omitempty"`

	// Config is the strategy-specific configuration blob. Keys depend on Type:
	// ratio reads "numerator"/"denominator", anomaly reads "multiplier"/
	// "baseline_minutes", log_query reads "query"/"index"/"threshold".
	Config map[string]any `json:"config,omitempty"`

	// Tags are free-form labels attached by the rule owner.
	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration returns the rule's look-back window as a time.Duration.
// Rules with no explicit window default to five minutes.
func (r *AlertRule) Duration() time.Duration {
	if r.DurationMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.DurationMinutes) * time.Minute
}

// ConfigString reads a string value from the strategy configuration blob.
func (r *AlertRule) ConfigString(key string) (string, bool) {
	v, ok := r.Config[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ConfigFloat reads a numeric value from the strategy configuration blob.
// JSON numbers decode as float64; integer values are accepted as well.
func (r *AlertRule) ConfigFloat(key string) (float64, bool) {
	v, ok := r.Config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
