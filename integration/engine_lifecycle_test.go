package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flexmon-go/internal/config"
	"flexmon-go/internal/domain"
	"flexmon-go/internal/engine"
	"flexmon-go/internal/lock"
	"flexmon-go/internal/logsearch"
	queuemem "flexmon-go/internal/queue/memory"
	"flexmon-go/internal/store"
	storemem "flexmon-go/internal/store/memory"
)

var _ = Describe("Engine Lifecycle", func() {
	var (
		ruleRepo    *storemem.RuleRepository
		alertRepo   *storemem.AlertRepository
		metricsRepo *storemem.MetricsRepository
		agentRepo   *storemem.AgentRepository
		search      *logsearch.Memory
		producer    *queuemem.Queue
		eng         *engine.Engine
		cancel      context.CancelFunc
		done        chan struct{}
	)

	cpuSeries := store.Series{Table: "metrics_cpu", Column: "cpu_percent"}

	threshold := func(v float64) *float64 { return &v }

	BeforeEach(func() {
		ruleRepo = storemem.NewRuleRepository()
		alertRepo = storemem.NewAlertRepository()
		metricsRepo = storemem.NewMetricsRepository()
		agentRepo = storemem.NewAgentRepository()
		search = logsearch.NewMemory()
		producer = queuemem.NewQueue()

		cfg := config.Default().Engine
		cfg.Interval = 20 * time.Millisecond

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		eng = engine.NewEngine(
			cfg,
			ruleRepo,
			alertRepo,
			metricsRepo,
			agentRepo,
			search,
			producer,
			lock.NewNoop(),
			logger,
		)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			_ = eng.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 2*time.Second).Should(BeClosed())
	})

	Context("when a threshold rule is breached", func() {
		It("creates exactly one alert and publishes it, suppressing repeats", func() {
			Expect(ruleRepo.Create(context.Background(), &domain.AlertRule{
				ID:              "rule-cpu",
				Name:            "High CPU",
				Type:            domain.RuleTypeThreshold,
				Metric:          "cpu_percent",
				Condition:       domain.ConditionGreater,
				Threshold:       threshold(90),
				DurationMinutes: 5,
				Severity:        domain.SeverityCritical,
				Enabled:         true,
			})).To(Succeed())

			metricsRepo.AddSample(cpuSeries, "t1", "h1", "", 95, time.Now().UTC().Add(-time.Minute))

			Eventually(alertRepo.Count, 2*time.Second).Should(Equal(1))

			alerts, err := alertRepo.List(context.Background(), domain.AlertFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts[0].TenantID).To(Equal("t1"))
			Expect(alerts[0].Host).To(Equal("h1"))
			Expect(*alerts[0].Value).To(Equal(95.0))
			Expect(alerts[0].Severity).To(Equal(domain.SeverityCritical))

			var published domain.Alert
			Eventually(producer.Len, 2*time.Second).Should(Equal(1))
			Expect(json.Unmarshal(producer.Messages()[0].Value, &published)).To(Succeed())
			Expect(published.Fingerprint).To(Equal(alerts[0].Fingerprint))

			// Further passes keep running against the same data; the dedup
			// gate must hold the row count at one.
			Consistently(alertRepo.Count, 200*time.Millisecond).Should(Equal(1))
		})
	})

	Context("when a licensed agent stops reporting", func() {
		It("fires a node-not-responding alert without an observed value", func() {
			Expect(ruleRepo.Create(context.Background(), &domain.AlertRule{
				ID:              "rule-absence",
				Name:            "Agent down",
				Type:            domain.RuleTypeAbsence,
				DurationMinutes: 10,
				Severity:        domain.SeverityError,
				Enabled:         true,
			})).To(Succeed())

			Expect(agentRepo.Register(context.Background(), &domain.Agent{
				ID:       "a1",
				Hostname: "h2",
				TenantID: "t1",
				Licensed: true,
				LastSeen: time.Now().UTC().Add(-11 * time.Minute),
			})).To(Succeed())

			Expect(agentRepo.Register(context.Background(), &domain.Agent{
				ID:       "a2",
				Hostname: "h3",
				TenantID: "t1",
				Licensed: false,
				LastSeen: time.Now().UTC().Add(-11 * time.Minute),
			})).To(Succeed())

			Eventually(alertRepo.Count, 2*time.Second).Should(Equal(1))

			alerts, err := alertRepo.List(context.Background(), domain.AlertFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts[0].Host).To(Equal("h2"))
			Expect(alerts[0].Message).To(Equal("Node not responding"))
			Expect(alerts[0].Value).To(BeNil())
		})
	})

	Context("when a log query rule crosses its threshold", func() {
		It("fires per host bucket at or above the threshold", func() {
			Expect(ruleRepo.Create(context.Background(), &domain.AlertRule{
				ID:              "rule-logs",
				Name:            "Error burst",
				Type:            domain.RuleTypeLogQuery,
				DurationMinutes: 5,
				Severity:        domain.SeverityWarning,
				Enabled:         true,
				Config: map[string]any{
					"query":     `{"match": {"level": "error"}}`,
					"threshold": float64(10),
				},
			})).To(Succeed())

			search.SetBuckets("flexmon-logs", []logsearch.HostCount{
				{Host: "h1", TenantID: "t1", Count: 25},
				{Host: "h2", TenantID: "t1", Count: 2},
			})

			Eventually(alertRepo.Count, 2*time.Second).Should(Equal(1))

			alerts, err := alertRepo.List(context.Background(), domain.AlertFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts[0].Host).To(Equal("h1"))
			Expect(*alerts[0].Value).To(Equal(25.0))
		})
	})
})
