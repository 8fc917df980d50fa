// Package logsearch provides the log index adapter used by log-query rules.
// It issues time-bounded searches aggregated by host, with a nested
// aggregation resolving the owning tenant per host bucket.
package logsearch

import (
	"context"
	"time"
)

// HostCount is one host bucket from a log aggregation.
type HostCount struct {
	// Host is the bucket key.
	Host string

	// TenantID is the tenant resolved from the nested aggregation.
	// Empty if the bucket's documents carried no tenant field.
	TenantID string

	// Count is the number of matching documents for the host.
	Count int64
}

// Searcher answers host-bucketed log count queries.
type Searcher interface {
	// CountByHost runs the raw query DSL against the index, restricted to
	// the trailing window, and returns per-host document counts with the
	// resolved tenant per bucket.
	CountByHost(ctx context.Context, index, rawQuery string, window time.Duration) ([]HostCount, error)
}
