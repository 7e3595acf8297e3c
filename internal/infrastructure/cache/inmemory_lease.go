package cache

import (
	"context"
	"sync"
	"time"
)

type holder struct {
	owner     string
	expiresAt time.Time
}

// InMemoryLease implements Lease inside one process. It is suitable for
// single-instance deployments and tests.
type InMemoryLease struct {
	mu      sync.Mutex
	holders map[string]holder
	now     func() time.Time
}

// NewInMemoryLease creates an empty in-memory lease table
func NewInMemoryLease() *InMemoryLease {
	return &InMemoryLease{
		holders: make(map[string]holder),
		now:     time.Now,
	}
}

// TryAcquire takes key for owner if it is free or expired
func (l *InMemoryLease) TryAcquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.holders[key]; ok && now.Before(h.expiresAt) {
		return false, nil
	}
	l.holders[key] = holder{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

// Release frees key if owner holds it
func (l *InMemoryLease) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.holders[key]; ok && h.owner == owner {
		delete(l.holders, key)
	}
	return nil
}

// Holder returns the current owner of key, or "" when it is free
func (l *InMemoryLease) Holder(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holders[key]
	if !ok || !l.now().Before(h.expiresAt) {
		return ""
	}
	return h.owner
}

// Close is a no-op
func (l *InMemoryLease) Close() error {
	return nil
}

var _ Lease = (*InMemoryLease)(nil)
