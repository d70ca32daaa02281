package lock

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Locker used when no Redis is configured.
type Memory struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	seq   uint64
	clock func() time.Time
}

type memoryEntry struct {
	token   uint64
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]memoryEntry), clock: time.Now}
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	var token uint64
	err := wait(ctx, func() (bool, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		now := m.clock()
		if cur, ok := m.held[key]; ok && now.Before(cur.expires) {
			return false, nil
		}
		m.seq++
		token = m.seq
		m.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.held[key]; ok && cur.token == token {
			delete(m.held, key)
		}
	}, nil
}
