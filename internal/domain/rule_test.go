package domain

import (
	"testing"
	"time"
)

func TestCondition_Satisfied(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		value     float64
		threshold float64
		want      bool
	}{
		{"greater true", ConditionGreater, 95, 90, true},
		{"greater equal boundary", ConditionGreater, 90, 90, false},
		{"less true", ConditionLess, 5, 10, true},
		{"less false", ConditionLess, 10, 10, false},
		{"greater-or-equal boundary", ConditionGreaterEqual, 90, 90, true},
		{"less-or-equal boundary", ConditionLessEqual, 90, 90, true},
		{"less-or-equal false", ConditionLessEqual, 91, 90, false},
		{"unknown operator never satisfied", Condition("=="), 90, 90, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.condition.Satisfied(tt.value, tt.threshold); got != tt.want {
				t.Errorf("Satisfied(%v, %v) = %v, want %v", tt.value, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestRuleType_IsValid(t *testing.T) {
	valid := []RuleType{RuleTypeThreshold, RuleTypeRatio, RuleTypeAnomaly, RuleTypeAbsence, RuleTypeLogQuery}
	for _, rt := range valid {
		if !rt.IsValid() {
			t.Errorf("%q should be valid", rt)
		}
	}
	if RuleType("composite").IsValid() {
		t.Error("unknown rule type should not be valid")
	}
}

func TestAlertRule_Duration(t *testing.T) {
	rule := &AlertRule{DurationMinutes: 10}
	if got := rule.Duration(); got != 10*time.Minute {
		t.Errorf("Duration() = %v, want 10m", got)
	}

	// Missing window falls back to five minutes.
	rule = &AlertRule{}
	if got := rule.Duration(); got != 5*time.Minute {
		t.Errorf("Duration() = %v, want default 5m", got)
	}
}

func TestAlertRule_ConfigString(t *testing.T) {
	rule := &AlertRule{Config: map[string]any{
		"numerator": "http_errors",
		"empty":     "",
		"number":    3.0,
	}}

	if v, ok := rule.ConfigString("numerator"); !ok || v != "http_errors" {
		t.Errorf("ConfigString(numerator) = %q, %v", v, ok)
	}
	if _, ok := rule.ConfigString("empty"); ok {
		t.Error("empty string value should not be ok")
	}
	if _, ok := rule.ConfigString("number"); ok {
		t.Error("non-string value should not be ok")
	}
	if _, ok := rule.ConfigString("missing"); ok {
		t.Error("missing key should not be ok")
	}
}

func TestAlertRule_ConfigFloat(t *testing.T) {
	rule := &AlertRule{Config: map[string]any{
		"multiplier": 2.5,
		"threshold":  10, // decoded from YAML seeds as int
		"query":      "{}",
	}}

	if v, ok := rule.ConfigFloat("multiplier"); !ok || v != 2.5 {
		t.Errorf("ConfigFloat(multiplier) = %v, %v", v, ok)
	}
	if v, ok := rule.ConfigFloat("threshold"); !ok || v != 10 {
		t.Errorf("ConfigFloat(threshold) = %v, %v", v, ok)
	}
	if _, ok := rule.ConfigFloat("query"); ok {
		t.Error("string value should not be ok")
	}
}
