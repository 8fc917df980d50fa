package engine

import (
	"context"
	"fmt"

	"flexmon-go/internal/domain"
)

// evaluateThreshold compares the windowed average of a series against the
// rule's threshold, grouped by (tenant, host).
func (e *Engine) evaluateThreshold(ctx context.Context, rule *domain.AlertRule) []candidate {
	if rule.Threshold == nil || !rule.Condition.IsValid() {
		e.skip(rule, "missing_config", "threshold rule needs a threshold and a comparison operator")
		return nil
	}

	series, ok := thresholdSeries[rule.Metric]
	if !ok {
		e.skip(rule, "unsupported_metric", fmt.Sprintf("metric %q has no backing series", rule.Metric))
		return nil
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	groups, err := e.metrics.AverageByHost(sctx, series, rule.Duration(), rule.TenantID)
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("threshold aggregation failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	var candidates []candidate
	for _, g := range groups {
		if !rule.Condition.Satisfied(g.Value, *rule.Threshold) {
			continue
		}
		value := g.Value
		candidates = append(candidates, candidate{
			tenantID: g.TenantID,
			host:     g.Host,
			value:    &value,
			message:  fmt.Sprintf("%s: %s = %.2f", rule.Name, rule.Metric, g.Value),
		})
	}

	return candidates
}
