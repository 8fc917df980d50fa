// Package lock provides the single-active-instance lease. Multiple engine
// replicas may run for availability, but only the lease holder evaluates
// rules in any given pass.
package lock

import (
	"context"
)

// Locker guards an evaluation pass. Implementations must be safe for
// concurrent use.
type Locker interface {
	// Acquire attempts to take or refresh the lease. It returns true if
	// this instance holds the lease and may run a pass.
	Acquire(ctx context.Context) (bool, error)

	// Release gives up the lease if this instance holds it.
	Release(ctx context.Context) error
}

// Noop is a Locker that always grants the lease. Used in memory mode and
// single-instance deployments.
type Noop struct{}

// NewNoop creates a Locker that always grants the lease.
func NewNoop() *Noop {
	return &Noop{}
}

// Acquire always succeeds.
func (*Noop) Acquire(ctx context.Context) (bool, error) {
	return true, nil
}

// Release does nothing.
func (*Noop) Release(ctx context.Context) error {
	return nil
}
