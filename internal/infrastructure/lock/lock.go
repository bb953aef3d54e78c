package lock

import (
	"context"
	"errors"
	"time"
)

var ErrNotHeld = errors.New("lock not held by this owner")

// Service is an exclusive, time-boxed keyed lock.
//
// The referral activation flow uses it to reject obvious double-taps
// (duplicate webhook delivery, a retried deep link) before touching the
// database. It is a latency optimization, not a safety mechanism: the
// at-most-once guarantee comes from the uniqueness constraint on
// referral_edge, which holds even if the lock is absent, stale, or held in
// a different process. The interface exists so the in-memory implementation
// can be swapped for the Redis one when running more than one instance.
type Service interface {
	// TryAcquire takes the lock for owner if it is free or expired.
	// Returns false without blocking when a live lock is already held.
	TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Release frees the lock if owner still holds it. Releasing a lock
	// that expired and was re-acquired by someone else returns ErrNotHeld
	// and leaves the new holder untouched.
	Release(ctx context.Context, key, owner string) error
}
