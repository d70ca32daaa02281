// Package lock provides short-lived keyed mutual exclusion across requests.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the key stays held until the context ends.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serialises work on a key. Acquire blocks until the key is free, ttl
// elapses on the holder, or ctx is done. The returned func releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

const retryInterval = 25 * time.Millisecond

// wait polls try until it reports true or ctx ends.
func wait(ctx context.Context, try func() (bool, error)) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}
