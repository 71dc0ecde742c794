// Package workerlease provides an optional Redis-backed lease so that
// multiple scraperdev instances can share one city's backend queue
// without two instances claiming the same worker slot ID at once. It is
// additive (SPEC_FULL.md §9 domain-stack wiring): when config.RedisConfig
// disables the lease, Supervisor skips it entirely and behaves exactly
// as a single-instance deployment. Grounded on the teacher's Redis
// fixed-window counter in internal/http/middleware.go
// (rateLimitMiddleware's Incr/Expire pair), adapted here into a
// SetNX/Expire mutual-exclusion lease instead of a counter.
package workerlease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease guards one worker slot across instances sharing the same city.
// A nil *Lease is valid and always grants (single-instance mode).
type Lease struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	owner  string
}

// New connects to url and returns a Lease scoped to cityKey (the city
// slug, or "global" when no --city restriction is set) and ttl. owner
// should be stable per process (e.g. hostname:pid) so renewals from the
// same instance succeed and a crashed instance's lease expires on TTL.
func New(url, cityKey, owner string, ttl time.Duration) (*Lease, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("workerlease: parse redis url: %w", err)
	}
	return &Lease{
		rdb:    redis.NewClient(opt),
		prefix: fmt.Sprintf("scraperdev:lease:%s:worker:", cityKey),
		ttl:    ttl,
		owner:  owner,
	}, nil
}

// TryAcquire attempts to claim workerID for this instance, returning
// true on success. A lease already held by this same owner is renewed
// rather than rejected, so an idle slot that kept its lease after a
// no-work poll is not locked out by its own lease on the next tick.
// Busy slots are not polled, so their lease is not renewed while a task
// runs.
func (l *Lease) TryAcquire(ctx context.Context, workerID int) (bool, error) {
	if l == nil {
		return true, nil
	}
	key := l.key(workerID)
	ok, err := l.rdb.SetNX(ctx, key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("workerlease: acquire %s: %w", key, err)
	}
	if ok {
		return true, nil
	}

	held, err := l.rdb.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("workerlease: read holder of %s: %w", key, err)
	}
	if held != l.owner {
		return false, nil
	}
	if err := l.rdb.Expire(ctx, key, l.ttl).Err(); err != nil {
		return false, fmt.Errorf("workerlease: renew %s: %w", key, err)
	}
	return true, nil
}

// Release drops the lease early, e.g. once a claimed task finishes and
// the worker slot returns to idle before the TTL would otherwise expire.
func (l *Lease) Release(ctx context.Context, workerID int) error {
	if l == nil {
		return nil
	}
	key := l.key(workerID)
	held, err := l.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("workerlease: read holder of %s: %w", key, err)
	}
	if held != l.owner {
		return nil
	}
	return l.rdb.Del(ctx, key).Err()
}

// Close releases the underlying Redis connection pool.
func (l *Lease) Close() error {
	if l == nil {
		return nil
	}
	return l.rdb.Close()
}

func (l *Lease) key(workerID int) string {
	return fmt.Sprintf("%s%d", l.prefix, workerID)
}
