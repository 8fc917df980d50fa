package engine

import (
	"context"
	"fmt"

	"flexmon-go/internal/domain"
)

const (
	// defaultLogIndex is searched when a log-query rule names no index.
	defaultLogIndex = "flexmon-logs"

	// defaultLogQueryThreshold is the firing document count used when a
	// log-query rule carries no threshold of its own.
	defaultLogQueryThreshold = 10.0

	// unknownTenant is stamped on log-query candidates whose host bucket
	// resolved no tenant and whose rule is platform-wide.
	unknownTenant = "unknown"
)

// evaluateLogQuery counts log documents matching the rule's query predicate
// over the duration window, bucketed by host. A bucket whose count reaches
// the threshold fires. A search-backend failure yields zero candidates for
// this pass; it never aborts the pass.
func (e *Engine) evaluateLogQuery(ctx context.Context, rule *domain.AlertRule) []candidate {
	rawQuery, ok := rule.ConfigString("query")
	if !ok {
		e.skip(rule, "missing_config", "log query rule needs a query predicate")
		return nil
	}

	index := defaultLogIndex
	if idx, ok := rule.ConfigString("index"); ok {
		index = idx
	}

	threshold := defaultLogQueryThreshold
	if t, ok := rule.ConfigFloat("threshold"); ok && t > 0 {
		threshold = t
	} else if rule.Threshold != nil && *rule.Threshold > 0 {
		threshold = *rule.Threshold
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	buckets, err := e.search.CountByHost(sctx, index, rawQuery, rule.Duration())
	if err != nil {
		e.skip(rule, "search_error", err.Error())
		e.logger.Error("log search failed", "rule_id", rule.ID, "index", index, "error", err)
		return nil
	}

	var candidates []candidate
	for _, b := range buckets {
		count := float64(b.Count)
		if count < threshold {
			continue
		}

		tenantID := b.TenantID
		if tenantID == "" {
			tenantID = rule.TenantID
		}
		if tenantID == "" {
			tenantID = unknownTenant
		}

		value := count
		candidates = append(candidates, candidate{
			tenantID: tenantID,
			host:     b.Host,
			value:    &value,
			message:  fmt.Sprintf("%s: %d matching log entries on %s", rule.Name, b.Count, b.Host),
		})
	}

	return candidates
}
