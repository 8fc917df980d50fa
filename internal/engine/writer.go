package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"flexmon-go/internal/domain"
	"flexmon-go/internal/metrics"
	"flexmon-go/internal/queue"
)

// fire runs one candidate through the dedup gate and, if it passes, writes
// the alert and hands it to the notification queue.
//
// The dedup check is purely time-window based on triggered_at: a matching
// fingerprint inside the window suppresses the candidate whether or not the
// earlier alert has since been resolved. Once the window has elapsed, a new
// alert is written even if the earlier one is still open.
func (e *Engine) fire(ctx context.Context, rule *domain.AlertRule, c candidate) {
	var discriminator []string
	if c.discriminator != "" {
		discriminator = append(discriminator, c.discriminator)
	}
	fingerprint := Fingerprint(rule.ID, c.tenantID, c.host, discriminator...)

	now := time.Now().UTC()

	lookupCtx, cancelLookup := e.storeCtx(ctx)
	existing, err := e.alerts.FindByFingerprintSince(lookupCtx, fingerprint, now.Add(-e.cfg.DedupWindow))
	cancelLookup()
	if err != nil {
		e.logger.Error("dedup lookup failed",
			"rule_id", rule.ID,
			"fingerprint", fingerprint,
			"error", err,
		)
		return
	}

	if existing != nil {
		metrics.AlertsSuppressedTotal.WithLabelValues(string(rule.Type)).Inc()
		e.logger.Debug("suppressing duplicate alert",
			"rule_id", rule.ID,
			"fingerprint", fingerprint,
			"prior_alert_id", existing.ID,
		)
		return
	}

	alert := &domain.Alert{
		ID:          uuid.New().String(),
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		TenantID:    c.tenantID,
		Host:        c.host,
		Severity:    rule.Severity,
		Message:     c.message,
		Value:       c.value,
		Threshold:   rule.Threshold,
		TriggeredAt: now,
		Fingerprint: fingerprint,
	}

	insertCtx, cancelInsert := e.storeCtx(ctx)
	err = e.alerts.Create(insertCtx, alert)
	cancelInsert()
	if err != nil {
		e.logger.Error("failed to write alert",
			"rule_id", rule.ID,
			"fingerprint", fingerprint,
			"error", err,
		)
		return
	}

	metrics.AlertsFiredTotal.WithLabelValues(string(rule.Type), string(rule.Severity)).Inc()
	e.logger.Info("alert fired",
		"alert_id", alert.ID,
		"rule_id", rule.ID,
		"rule_name", rule.Name,
		"tenant_id", alert.TenantID,
		"host", alert.Host,
		"severity", alert.Severity,
	)

	e.publish(ctx, alert)
}

// publish hands a fired alert to the notification pipeline. Delivery is
// owned downstream; a publish failure is logged but does not undo the
// write.
func (e *Engine) publish(ctx context.Context, alert *domain.Alert) {
	if e.producer == nil {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		metrics.AlertsPublishedTotal.WithLabelValues("failure").Inc()
		e.logger.Error("failed to serialize alert for publishing", "alert_id", alert.ID, "error", err)
		return
	}

	msg := &queue.Message{
		Key:   []byte(alert.Fingerprint),
		Value: payload,
	}
	if err := e.producer.Publish(ctx, msg); err != nil {
		metrics.AlertsPublishedTotal.WithLabelValues("failure").Inc()
		e.logger.Error("failed to publish alert", "alert_id", alert.ID, "error", err)
		return
	}

	metrics.AlertsPublishedTotal.WithLabelValues("success").Inc()
}
