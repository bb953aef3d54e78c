package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryService_Exclusive(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	ok, err := s.TryAcquire(ctx, "pair:1:2", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = s.TryAcquire(ctx, "pair:1:2", "b", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second acquire on a live lock must fail")
	}

	// a different key is independent
	ok, _ = s.TryAcquire(ctx, "pair:3:4", "b", time.Minute)
	if !ok {
		t.Fatal("different key should acquire")
	}
}

func TestMemoryService_ReleaseChecksOwner(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	s.TryAcquire(ctx, "k", "owner1", time.Minute)

	if err := s.Release(ctx, "k", "intruder"); err != ErrNotHeld {
		t.Fatalf("release by non-owner = %v, want ErrNotHeld", err)
	}
	if err := s.Release(ctx, "k", "owner1"); err != nil {
		t.Fatalf("release by owner: %v", err)
	}
	if err := s.Release(ctx, "k", "owner1"); err != ErrNotHeld {
		t.Fatalf("double release = %v, want ErrNotHeld", err)
	}

	ok, _ := s.TryAcquire(ctx, "k", "owner2", time.Minute)
	if !ok {
		t.Fatal("released key should acquire")
	}
}

func TestMemoryService_ExpiryFreesKey(t *testing.T) {
	s := NewMemoryService()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.TryAcquire(ctx, "k", "crashed", 30*time.Second)

	now = now.Add(29 * time.Second)
	if ok, _ := s.TryAcquire(ctx, "k", "b", 30*time.Second); ok {
		t.Fatal("lock should still be live before its TTL")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := s.TryAcquire(ctx, "k", "b", 30*time.Second); !ok {
		t.Fatal("expired lock should be acquirable")
	}

	// the crashed holder cannot release the re-acquired lock
	if err := s.Release(ctx, "k", "crashed"); err != ErrNotHeld {
		t.Fatalf("stale release = %v, want ErrNotHeld", err)
	}
}

func TestMemoryService_Sweep(t *testing.T) {
	s := NewMemoryService()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		s.TryAcquire(ctx, key, "o", 10*time.Second)
	}
	s.TryAcquire(ctx, "live", "o", 10*time.Minute)

	now = now.Add(time.Minute)
	if removed := s.Sweep(); removed != 3 {
		t.Fatalf("sweep removed %d, want 3", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("%d entries after sweep, want 1", s.Len())
	}
	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("second sweep removed %d, want 0", removed)
	}
}

func TestMemoryService_ConcurrentAcquire(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	const goroutines = 50
	var wins int64
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryAcquire(ctx, "contested", "o", time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d goroutines won the lock, want exactly 1", wins)
	}
}
