// Package engine implements the alert rule evaluation engine. A scheduler
// loop periodically loads the enabled rules, dispatches each to the
// evaluator matching its type, and turns the resulting candidates into
// persisted alerts through a fingerprint-based deduplication gate.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flexmon-go/internal/config"
	"flexmon-go/internal/domain"
	"flexmon-go/internal/lock"
	"flexmon-go/internal/logsearch"
	"flexmon-go/internal/metrics"
	"flexmon-go/internal/queue"
	"flexmon-go/internal/store"
)

// candidate is an ephemeral detection result produced by an evaluator.
// It is never persisted directly; the dedup gate either discards it or
// turns it into an Alert.
type candidate struct {
	tenantID string
	host     string

	// value is the observed numeric value. Nil for conditions with no
	// numeric observation (absence).
	value *float64

	message string

	// discriminator separates otherwise identical conditions in the
	// fingerprint, such as the interface label on anomaly candidates.
	discriminator string
}

// Engine owns the scheduler loop and the injected store adapters. It is
// constructed explicitly by its owner process; there is no process-wide
// singleton.
type Engine struct {
	cfg      config.EngineConfig
	rules    store.RuleRepository
	alerts   store.AlertRepository
	metrics  store.MetricsRepository
	agents   store.AgentRepository
	search   logsearch.Searcher
	producer queue.Producer
	locker   lock.Locker
	logger   *slog.Logger
}

// NewEngine creates a new evaluation engine.
func NewEngine(
	cfg config.EngineConfig,
	rules store.RuleRepository,
	alerts store.AlertRepository,
	metricsRepo store.MetricsRepository,
	agents store.AgentRepository,
	search logsearch.Searcher,
	producer queue.Producer,
	locker lock.Locker,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		rules:    rules,
		alerts:   alerts,
		metrics:  metricsRepo,
		agents:   agents,
		search:   search,
		producer: producer,
		locker:   locker,
		logger:   logger,
	}
}

// Run drives evaluation passes until the context is canceled. The delay
// between passes is fixed and measured from pass completion, not pass
// start. A stop request is honored only at pass boundaries: the in-flight
// pass always finishes.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("starting evaluation engine",
		"interval", e.cfg.Interval,
		"dedup_window", e.cfg.DedupWindow,
		"parallelism", e.cfg.Parallelism,
	)

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.locker.Release(releaseCtx); err != nil {
			e.logger.Warn("failed to release engine lease", "error", err)
		}
	}()

	for {
		// The pass runs on a non-cancelable context so an in-flight pass
		// is never aborted mid-way; cancellation is observed below.
		e.RunOnce(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			e.logger.Info("stopping evaluation engine")
			return nil
		case <-time.After(e.cfg.Interval):
		}
	}
}

// RunOnce executes a single evaluation pass. A panic escaping the pass is
// caught here so it cannot kill the scheduler loop.
func (e *Engine) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during evaluation pass", "panic", r)
		}
	}()

	held, err := e.locker.Acquire(ctx)
	if err != nil {
		e.logger.Error("failed to acquire engine lease", "error", err)
		return
	}
	if !held {
		metrics.PassesSkippedTotal.Inc()
		e.logger.Debug("another instance holds the engine lease, skipping pass")
		return
	}

	start := time.Now()

	sctx, cancel := e.storeCtx(ctx)
	rules, err := e.rules.ListEnabled(sctx)
	cancel()
	if err != nil {
		e.logger.Error("failed to load enabled rules", "error", err)
		return
	}

	e.logger.Debug("starting evaluation pass", "rules", len(rules))

	if e.cfg.Parallelism <= 1 {
		for _, rule := range rules {
			e.evaluateRule(ctx, rule)
		}
	} else {
		sem := make(chan struct{}, e.cfg.Parallelism)
		var wg sync.WaitGroup
		for _, rule := range rules {
			wg.Add(1)
			sem <- struct{}{}
			go func(r *domain.AlertRule) {
				defer wg.Done()
				defer func() { <-sem }()
				e.evaluateRule(ctx, r)
			}(rule)
		}
		wg.Wait()
	}

	metrics.PassesTotal.Inc()
	metrics.PassDuration.Observe(time.Since(start).Seconds())

	e.logger.Debug("evaluation pass complete",
		"rules", len(rules),
		"duration", time.Since(start),
	)
}

// evaluateRule dispatches one rule to its evaluator and flushes the
// resulting candidates. A panic escaping a single rule is caught here so it
// cannot abort the remainder of the pass.
func (e *Engine) evaluateRule(ctx context.Context, rule *domain.AlertRule) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during rule evaluation",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"panic", r,
			)
		}
	}()

	var candidates []candidate

	switch rule.Type {
	case domain.RuleTypeThreshold:
		candidates = e.evaluateThreshold(ctx, rule)
	case domain.RuleTypeRatio:
		candidates = e.evaluateRatio(ctx, rule)
	case domain.RuleTypeAnomaly:
		candidates = e.evaluateAnomaly(ctx, rule)
	case domain.RuleTypeAbsence:
		candidates = e.evaluateAbsence(ctx, rule)
	case domain.RuleTypeLogQuery:
		candidates = e.evaluateLogQuery(ctx, rule)
	default:
		e.skip(rule, "unknown_type", "rule has unknown type")
		return
	}

	metrics.RulesEvaluatedTotal.WithLabelValues(string(rule.Type)).Inc()

	for _, c := range candidates {
		metrics.CandidatesTotal.WithLabelValues(string(rule.Type)).Inc()
		e.fire(ctx, rule, c)
	}
}

// skip records a rule skipped without evaluation. Skips are silent with
// respect to the pass, but observable through metrics and debug logs.
func (e *Engine) skip(rule *domain.AlertRule, reason, msg string) {
	metrics.RulesSkippedTotal.WithLabelValues(string(rule.Type), reason).Inc()
	e.logger.Debug("skipping rule",
		"rule_id", rule.ID,
		"rule_name", rule.Name,
		"type", rule.Type,
		"reason", reason,
		"detail", msg,
	)
}

// storeCtx bounds an individual store call so a stalled backend cannot
// stall the pass indefinitely.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}
