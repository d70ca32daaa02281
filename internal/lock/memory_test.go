package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryExcludesConcurrentHolders(t *testing.T) {
	m := NewMemory()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "order_1", time.Second)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
}

func TestMemoryAcquireTimesOut(t *testing.T) {
	m := NewMemory()
	release, err := m.Acquire(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, "k", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	if _, err := m.Acquire(context.Background(), "other", time.Minute); err != nil {
		t.Fatalf("independent key should be free: %v", err)
	}
}

func TestMemoryExpiredHolderIsReplaced(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.clock = func() time.Time { return now }

	staleRelease, err := m.Acquire(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Second)
	release, err := m.Acquire(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatalf("expired lock should be reclaimable: %v", err)
	}

	staleRelease()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, "k", time.Second); !errors.Is(err, ErrNotAcquired) {
		t.Fatal("stale release must not free the new holder's lock")
	}
	release()
}
