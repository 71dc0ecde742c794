package workerlease

import (
	"context"
	"testing"
)

// A nil *Lease is the single-instance deployment mode: every call must
// be a harmless no-op/always-grant, since Supervisor holds a *Lease
// field that is nil whenever config.RedisConfig.LeaseEnabled is false.
func TestNilLease_AlwaysGrants(t *testing.T) {
	var l *Lease

	ok, err := l.TryAcquire(context.Background(), 0)
	if err != nil || !ok {
		t.Fatalf("expected nil lease to grant, got ok=%v err=%v", ok, err)
	}
	if err := l.Release(context.Background(), 0); err != nil {
		t.Fatalf("expected nil lease release to be a no-op, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("expected nil lease close to be a no-op, got %v", err)
	}
}
