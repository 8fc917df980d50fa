package memory

import (
	"context"
	"sync"
	"time"

	"flexmon-go/internal/store"
)

// sample is one telemetry observation held by the in-memory metrics store.
type sample struct {
	tenantID  string
	host      string
	dimension string
	value     float64
	ts        time.Time
}

// MetricsRepository is an in-memory implementation of store.MetricsRepository.
// It holds raw samples and computes aggregates over them, so tests exercise
// the same windowing semantics the SQL implementation has.
type MetricsRepository struct {
	mu sync.RWMutex

	// samples holds series samples keyed by "table.column"
	samples map[string][]sample

	// events holds generic metric points keyed by metric name
	events map[string][]sample
}

// NewMetricsRepository creates a new in-memory metrics repository.
func NewMetricsRepository() *MetricsRepository {
	return &MetricsRepository{
		samples: make(map[string][]sample),
		events:  make(map[string][]sample),
	}
}

func seriesKey(s store.Series) string {
	return s.Table + "." + s.Column
}

// AddSample records a series observation.
func (r *MetricsRepository) AddSample(s store.Series, tenantID, host, dimension string, value float64, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := seriesKey(s)
	r.samples[key] = append(r.samples[key], sample{
		tenantID:  tenantID,
		host:      host,
		dimension: dimension,
		value:     value,
		ts:        ts,
	})
}

// AddEvent records a generic metric point under the given metric name.
func (r *MetricsRepository) AddEvent(metricName, tenantID, host string, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[metricName] = append(r.events[metricName], sample{
		tenantID: tenantID,
		host:     host,
		ts:       ts,
	})
}

// AverageByHost computes the average of a series over the trailing window,
// grouped by (tenant, host).
func (r *MetricsRepository) AverageByHost(ctx context.Context, s store.Series, window time.Duration, tenantID string) ([]store.MetricAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-window)

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[store.MetricAggregate]*acc)
	for _, smp := range r.samples[seriesKey(s)] {
		if !smp.ts.After(cutoff) {
			continue
		}
		if tenantID != "" && smp.tenantID != tenantID {
			continue
		}
		key := store.MetricAggregate{TenantID: smp.tenantID, Host: smp.host}
		if groups[key] == nil {
			groups[key] = &acc{}
		}
		groups[key].sum += smp.value
		groups[key].count++
	}

	var results []store.MetricAggregate
	for key, a := range groups {
		key.Value = a.sum / float64(a.count)
		results = append(results, key)
	}
	return results, nil
}

// AverageByDimension computes the average of a sub-dimensioned series over
// [from, to), grouped by (tenant, host, dimension).
func (r *MetricsRepository) AverageByDimension(ctx context.Context, s store.Series, from, to time.Time, tenantID string) ([]store.DimensionAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[store.DimensionAggregate]*acc)
	for _, smp := range r.samples[seriesKey(s)] {
		if smp.ts.Before(from) || !smp.ts.Before(to) {
			continue
		}
		if tenantID != "" && smp.tenantID != tenantID {
			continue
		}
		key := store.DimensionAggregate{TenantID: smp.tenantID, Host: smp.host, Dimension: smp.dimension}
		if groups[key] == nil {
			groups[key] = &acc{}
		}
		groups[key].sum += smp.value
		groups[key].count++
	}

	var results []store.DimensionAggregate
	for key, a := range groups {
		key.Value = a.sum / float64(a.count)
		results = append(results, key)
	}
	return results, nil
}

// CountEvents counts metric points with the given name over the trailing
// window, grouped by (tenant, host).
func (r *MetricsRepository) CountEvents(ctx context.Context, metricName string, window time.Duration, tenantID string) ([]store.MetricAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-window)

	counts := make(map[store.MetricAggregate]int)
	for _, smp := range r.events[metricName] {
		if !smp.ts.After(cutoff) {
			continue
		}
		if tenantID != "" && smp.tenantID != tenantID {
			continue
		}
		key := store.MetricAggregate{TenantID: smp.tenantID, Host: smp.host}
		counts[key]++
	}

	var results []store.MetricAggregate
	for key, n := range counts {
		key.Value = float64(n)
		results = append(results, key)
	}
	return results, nil
}

// Clear removes all samples. Useful for test cleanup.
func (r *MetricsRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = make(map[string][]sample)
	r.events = make(map[string][]sample)
}
