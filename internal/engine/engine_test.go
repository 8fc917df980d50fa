package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"flexmon-go/internal/config"
	"flexmon-go/internal/domain"
	"flexmon-go/internal/lock"
	"flexmon-go/internal/logsearch"
	"flexmon-go/internal/queue"
	queuemem "flexmon-go/internal/queue/memory"
	storemem "flexmon-go/internal/store/memory"
)

// testEngine bundles an engine with its in-memory backends.
type testEngine struct {
	engine  *Engine
	rules   *storemem.RuleRepository
	alerts  *storemem.AlertRepository
	metrics *storemem.MetricsRepository
	agents  *storemem.AgentRepository
	search  *logsearch.Memory
	queue   *queuemem.Queue
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	te := &testEngine{
		rules:   storemem.NewRuleRepository(),
		alerts:  storemem.NewAlertRepository(),
		metrics: storemem.NewMetricsRepository(),
		agents:  storemem.NewAgentRepository(),
		search:  logsearch.NewMemory(),
		queue:   queuemem.NewQueue(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	te.engine = NewEngine(
		config.Default().Engine,
		te.rules,
		te.alerts,
		te.metrics,
		te.agents,
		te.search,
		te.queue,
		lock.NewNoop(),
		logger,
	)
	return te
}

func (te *testEngine) addRule(t *testing.T, rule *domain.AlertRule) {
	t.Helper()
	if err := te.rules.Create(context.Background(), rule); err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func cpuThresholdRule() *domain.AlertRule {
	return &domain.AlertRule{
		ID:              "rule-cpu",
		Name:            "High CPU",
		Type:            domain.RuleTypeThreshold,
		Metric:          "cpu_percent",
		Condition:       domain.ConditionGreater,
		Threshold:       floatPtr(90),
		DurationMinutes: 5,
		Severity:        domain.SeverityCritical,
		Enabled:         true,
	}
}

func TestThresholdRuleFires(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	alerts, err := te.alerts.List(context.Background(), domain.AlertFilter{})
	if err != nil {
		t.Fatalf("failed to list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}

	alert := alerts[0]
	if alert.TenantID != "t1" || alert.Host != "h1" {
		t.Errorf("unexpected alert target: tenant=%s host=%s", alert.TenantID, alert.Host)
	}
	if alert.Value == nil || *alert.Value != 95 {
		t.Errorf("expected observed value 95, got %v", alert.Value)
	}
	if alert.Severity != domain.SeverityCritical {
		t.Errorf("expected severity critical, got %s", alert.Severity)
	}
	if alert.RuleName != "High CPU" {
		t.Errorf("expected rule name snapshot, got %q", alert.RuleName)
	}
	if alert.Threshold == nil || *alert.Threshold != 90 {
		t.Errorf("expected threshold snapshot 90, got %v", alert.Threshold)
	}
	if alert.Fingerprint != Fingerprint("rule-cpu", "t1", "h1") {
		t.Errorf("unexpected fingerprint %s", alert.Fingerprint)
	}
}

func TestThresholdBelowThresholdDoesNotFire(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	// Equal to the threshold: ">" must not fire.
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 90, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 0 {
		t.Fatalf("expected no alerts, got %d", n)
	}
}

func TestThresholdUnsupportedMetricSkipped(t *testing.T) {
	te := newTestEngine(t)
	rule := cpuThresholdRule()
	rule.Metric = "load_average"
	te.addRule(t, rule)

	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 0 {
		t.Fatalf("expected no alerts for unmapped metric, got %d", n)
	}
}

func TestThresholdMissingConfigSkipped(t *testing.T) {
	te := newTestEngine(t)
	rule := cpuThresholdRule()
	rule.Threshold = nil
	te.addRule(t, rule)
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 0 {
		t.Fatalf("expected no alerts for rule without threshold, got %d", n)
	}
}

func TestThresholdTenantScope(t *testing.T) {
	te := newTestEngine(t)
	rule := cpuThresholdRule()
	rule.TenantID = "t1"
	te.addRule(t, rule)
	now := time.Now().UTC()
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, now.Add(-time.Minute))
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t2", "h2", "", 99, now.Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	alerts, _ := te.alerts.List(context.Background(), domain.AlertFilter{})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for scoped tenant, got %d", len(alerts))
	}
	if alerts[0].TenantID != "t1" {
		t.Errorf("expected alert for t1, got %s", alerts[0].TenantID)
	}
}

func TestDedupSuppressesSecondPass(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())
	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 1 {
		t.Fatalf("expected second pass to be suppressed, got %d alerts", n)
	}
}

func TestDedupSuppressesResolvedAlertInWindow(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	// A fingerprint match inside the window suppresses even when the
	// earlier alert is already resolved. Resolution state is not consulted.
	resolved := time.Now().UTC().Add(-2 * time.Minute)
	if err := te.alerts.Create(context.Background(), &domain.Alert{
		ID:          "prior",
		RuleID:      "rule-cpu",
		TenantID:    "t1",
		Host:        "h1",
		TriggeredAt: time.Now().UTC().Add(-5 * time.Minute),
		ResolvedAt:  &resolved,
		Fingerprint: Fingerprint("rule-cpu", "t1", "h1"),
	}); err != nil {
		t.Fatalf("failed to seed prior alert: %v", err)
	}

	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 1 {
		t.Fatalf("expected candidate to be suppressed, got %d alerts", n)
	}
}

func TestDedupDoesNotSuppressOutsideWindow(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	// An unresolved alert triggered before the dedup window does not block
	// a new firing: the check is a pure time-window test on triggered_at.
	if err := te.alerts.Create(context.Background(), &domain.Alert{
		ID:          "prior",
		RuleID:      "rule-cpu",
		TenantID:    "t1",
		Host:        "h1",
		TriggeredAt: time.Now().UTC().Add(-20 * time.Minute),
		Fingerprint: Fingerprint("rule-cpu", "t1", "h1"),
	}); err != nil {
		t.Fatalf("failed to seed prior alert: %v", err)
	}

	te.engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 2 {
		t.Fatalf("expected new alert alongside the stale one, got %d alerts", n)
	}
}

func TestFiredAlertPublishedToQueue(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	msgs := te.queue.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}

	var published domain.Alert
	if err := json.Unmarshal(msgs[0].Value, &published); err != nil {
		t.Fatalf("failed to decode published alert: %v", err)
	}
	if published.TenantID != "t1" || published.Host != "h1" {
		t.Errorf("unexpected published target: tenant=%s host=%s", published.TenantID, published.Host)
	}
	if string(msgs[0].Key) != published.Fingerprint {
		t.Errorf("expected message keyed by fingerprint, got %s", msgs[0].Key)
	}
}

func TestSuppressedCandidateNotPublished(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())
	te.engine.RunOnce(context.Background())

	if n := te.queue.Len(); n != 1 {
		t.Fatalf("expected exactly 1 published message, got %d", n)
	}
}

func TestUnknownRuleTypeSkipped(t *testing.T) {
	te := newTestEngine(t)
	te.addRule(t, &domain.AlertRule{
		ID:      "rule-weird",
		Name:    "Weird",
		Type:    domain.RuleType("chaos"),
		Enabled: true,
	})
	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	te.engine.RunOnce(context.Background())

	// The unknown type is skipped silently; the healthy rule still fires.
	if n := te.alerts.Count(); n != 1 {
		t.Fatalf("expected 1 alert, got %d", n)
	}
}

func TestRulePanicDoesNotAbortPass(t *testing.T) {
	te := newTestEngine(t)

	// A nil metrics repository makes threshold evaluation panic; the
	// absence rule after it must still be evaluated.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(
		config.Default().Engine,
		te.rules,
		te.alerts,
		nil,
		te.agents,
		te.search,
		te.queue,
		lock.NewNoop(),
		logger,
	)

	te.addRule(t, cpuThresholdRule())
	te.addRule(t, &domain.AlertRule{
		ID:              "rule-absence",
		Name:            "Agent down",
		Type:            domain.RuleTypeAbsence,
		DurationMinutes: 10,
		Severity:        domain.SeverityError,
		Enabled:         true,
	})
	te.agents.Register(context.Background(), &domain.Agent{
		ID:       "a1",
		Hostname: "h2",
		TenantID: "t1",
		Licensed: true,
		LastSeen: time.Now().UTC().Add(-11 * time.Minute),
	})

	engine.RunOnce(context.Background())

	alerts, _ := te.alerts.List(context.Background(), domain.AlertFilter{})
	if len(alerts) != 1 {
		t.Fatalf("expected absence alert despite threshold panic, got %d alerts", len(alerts))
	}
	if alerts[0].RuleID != "rule-absence" {
		t.Errorf("expected absence alert, got rule %s", alerts[0].RuleID)
	}
}

func TestParallelPassEvaluatesAllRules(t *testing.T) {
	te := newTestEngine(t)

	cfg := config.Default().Engine
	cfg.Parallelism = 4
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(cfg, te.rules, te.alerts, te.metrics, te.agents, te.search, te.queue, lock.NewNoop(), logger)

	now := time.Now().UTC()
	for _, metric := range []string{"cpu_percent", "memory_percent", "disk_percent"} {
		rule := cpuThresholdRule()
		rule.ID = "rule-" + metric
		rule.Metric = metric
		te.addRule(t, rule)
		te.metrics.AddSample(thresholdSeries[metric], "t1", "h1", "", 95, now.Add(-time.Minute))
	}

	engine.RunOnce(context.Background())

	if n := te.alerts.Count(); n != 3 {
		t.Fatalf("expected 3 alerts from parallel pass, got %d", n)
	}
}

// heldLease simulates another instance holding the engine lease.
type heldLease struct{}

func (heldLease) Acquire(ctx context.Context) (bool, error) { return false, nil }
func (heldLease) Release(ctx context.Context) error         { return nil }

func TestPassSkippedWhileAnotherInstanceHoldsLease(t *testing.T) {
	te := newTestEngine(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(
		config.Default().Engine,
		te.rules,
		te.alerts,
		te.metrics,
		te.agents,
		te.search,
		te.queue,
		heldLease{},
		logger,
	)

	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	engine.RunOnce(context.Background())

	// The condition is breached, but this instance does not hold the lease:
	// the pass evaluates nothing.
	if n := te.alerts.Count(); n != 0 {
		t.Fatalf("expected no alerts while another instance holds the lease, got %d", n)
	}
	if n := te.queue.Len(); n != 0 {
		t.Fatalf("expected no published messages while another instance holds the lease, got %d", n)
	}
}

// failingProducer rejects every publish.
type failingProducer struct{}

func (failingProducer) Publish(ctx context.Context, msg *queue.Message) error {
	return errors.New("broker unavailable")
}

func (failingProducer) Close() error { return nil }

func TestPublishFailureDoesNotLoseAlert(t *testing.T) {
	te := newTestEngine(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(
		config.Default().Engine,
		te.rules,
		te.alerts,
		te.metrics,
		te.agents,
		te.search,
		failingProducer{},
		lock.NewNoop(),
		logger,
	)

	te.addRule(t, cpuThresholdRule())
	te.metrics.AddSample(thresholdSeries["cpu_percent"], "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

	engine.RunOnce(context.Background())

	// The hand-off failed, but the write already happened; the alert row
	// stays and the dedup gate still sees it on the next pass.
	if n := te.alerts.Count(); n != 1 {
		t.Fatalf("expected the alert to be persisted despite the publish failure, got %d", n)
	}

	engine.RunOnce(context.Background())
	if n := te.alerts.Count(); n != 1 {
		t.Fatalf("expected dedup to hold after a publish failure, got %d alerts", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	te := newTestEngine(t)

	cfg := config.Default().Engine
	cfg.Interval = 10 * time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(cfg, te.rules, te.alerts, te.metrics, te.agents, te.search, te.queue, lock.NewNoop(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
}
