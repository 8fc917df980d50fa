package engine

import (
	"context"
	"fmt"
	"time"

	"flexmon-go/internal/domain"
	"flexmon-go/internal/store"
)

const (
	// defaultAnomalyMultiplier flags a current average more than three
	// times the baseline.
	defaultAnomalyMultiplier = 3.0

	// defaultBaselineWindow is the historical interval the baseline is
	// averaged over when the rule does not configure one.
	defaultBaselineWindow = 60 * time.Minute
)

// evaluateAnomaly compares the current windowed average of a
// sub-dimensioned series against a historical baseline, grouped by
// (tenant, host, dimension). The baseline interval ends where the
// evaluation window begins; the two never overlap.
func (e *Engine) evaluateAnomaly(ctx context.Context, rule *domain.AlertRule) []candidate {
	series, ok := anomalySeries[rule.Metric]
	if !ok {
		e.skip(rule, "unsupported_metric", fmt.Sprintf("metric %q has no sub-dimensioned series", rule.Metric))
		return nil
	}

	multiplier := defaultAnomalyMultiplier
	if m, ok := rule.ConfigFloat("multiplier"); ok && m > 0 {
		multiplier = m
	}

	baselineWindow := defaultBaselineWindow
	if b, ok := rule.ConfigFloat("baseline_minutes"); ok && b > 0 {
		baselineWindow = time.Duration(b) * time.Minute
	}

	now := time.Now().UTC()
	evalStart := now.Add(-rule.Duration())
	baselineStart := evalStart.Add(-baselineWindow)

	baseCtx, cancelBase := e.storeCtx(ctx)
	baseline, err := e.metrics.AverageByDimension(baseCtx, series, baselineStart, evalStart, rule.TenantID)
	cancelBase()
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("anomaly baseline aggregation failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	curCtx, cancelCur := e.storeCtx(ctx)
	current, err := e.metrics.AverageByDimension(curCtx, series, evalStart, now, rule.TenantID)
	cancelCur()
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("anomaly current aggregation failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	baselineByGroup := make(map[string]float64, len(baseline))
	for _, g := range baseline {
		baselineByGroup[dimensionKey(g)] = g.Value
	}

	var candidates []candidate
	for _, g := range current {
		base := baselineByGroup[dimensionKey(g)]
		// A ratio against a zero or negative baseline is meaningless.
		if base <= 0 {
			continue
		}
		if g.Value <= base*multiplier {
			continue
		}

		value := g.Value
		candidates = append(candidates, candidate{
			tenantID:      g.TenantID,
			host:          g.Host,
			value:         &value,
			message:       fmt.Sprintf("%s: %s on %s = %.2f (baseline %.2f)", rule.Name, rule.Metric, g.Dimension, g.Value, base),
			discriminator: g.Dimension,
		})
	}

	return candidates
}

func dimensionKey(g store.DimensionAggregate) string {
	return g.TenantID + "|" + g.Host + "|" + g.Dimension
}
