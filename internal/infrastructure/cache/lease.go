package cache

import (
	"context"
	"time"
)

// SweepLeaseKey is the lease that elects the instance running a timed sweep
const SweepLeaseKey = "freight:lease:reconciliation"

// Lease is a named, expiring lock held by one owner at a time
type Lease interface {
	// TryAcquire takes the lease for ttl if nobody holds it. It returns
	// false without error when another owner holds it.
	TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Release gives the lease up if owner still holds it
	Release(ctx context.Context, key, owner string) error

	Close() error
}
