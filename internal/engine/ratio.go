package engine

import (
	"context"
	"fmt"

	"flexmon-go/internal/domain"
	"flexmon-go/internal/store"
)

// defaultRatioThreshold is the firing percentage used when a ratio rule
// carries no threshold of its own.
const defaultRatioThreshold = 5.0

// evaluateRatio compares the percentage of numerator events against the
// denominator population, grouped by (tenant, host). Groups whose
// denominator count is not positive are skipped entirely to avoid division
// artifacts.
func (e *Engine) evaluateRatio(ctx context.Context, rule *domain.AlertRule) []candidate {
	numerator, okN := rule.ConfigString("numerator")
	denominator, okD := rule.ConfigString("denominator")
	if !okN || !okD {
		e.skip(rule, "missing_config", "ratio rule needs numerator and denominator metric names")
		return nil
	}

	threshold := defaultRatioThreshold
	if rule.Threshold != nil && *rule.Threshold > 0 {
		threshold = *rule.Threshold
	}

	numCtx, cancelNum := e.storeCtx(ctx)
	numCounts, err := e.metrics.CountEvents(numCtx, numerator, rule.Duration(), rule.TenantID)
	cancelNum()
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("ratio numerator count failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	denCtx, cancelDen := e.storeCtx(ctx)
	denCounts, err := e.metrics.CountEvents(denCtx, denominator, rule.Duration(), rule.TenantID)
	cancelDen()
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("ratio denominator count failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	numByGroup := make(map[string]float64, len(numCounts))
	for _, g := range numCounts {
		numByGroup[groupKey(g)] = g.Value
	}

	var candidates []candidate
	for _, g := range denCounts {
		if g.Value <= 0 {
			continue
		}

		ratio := numByGroup[groupKey(g)] / g.Value * 100
		if ratio <= threshold {
			continue
		}

		value := ratio
		candidates = append(candidates, candidate{
			tenantID: g.TenantID,
			host:     g.Host,
			value:    &value,
			message:  fmt.Sprintf("%s: %s/%s = %.2f%%", rule.Name, numerator, denominator, ratio),
		})
	}

	return candidates
}

func groupKey(g store.MetricAggregate) string {
	return g.TenantID + "|" + g.Host
}
