package engine

import (
	"context"
	"time"

	"flexmon-go/internal/domain"
)

// absenceMessage is the fixed message for unresponsive-agent alerts.
const absenceMessage = "Node not responding"

// evaluateAbsence detects licensed agents whose last report is older than
// the rule's duration window. Unlicensed agents never fire, regardless of
// staleness. Absence candidates carry no observed value.
func (e *Engine) evaluateAbsence(ctx context.Context, rule *domain.AlertRule) []candidate {
	cutoff := time.Now().UTC().Add(-rule.Duration())

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	refs, err := e.agents.StaleAgents(sctx, cutoff)
	if err != nil {
		e.skip(rule, "store_error", err.Error())
		e.logger.Error("stale agent query failed", "rule_id", rule.ID, "error", err)
		return nil
	}

	var candidates []candidate
	for _, ref := range refs {
		if rule.TenantID != "" && ref.TenantID != rule.TenantID {
			continue
		}
		candidates = append(candidates, candidate{
			tenantID: ref.TenantID,
			host:     ref.Host,
			message:  absenceMessage,
		})
	}

	return candidates
}
