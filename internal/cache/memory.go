package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a bounded in-process store that evicts the least recently used
// entry when full. Entries expire after the ttl given to NewMemory; the ttl
// passed to Set is ignored.
type Memory struct {
	lru    *expirable.LRU[string, []byte]
	closed atomic.Bool
}

// NewMemory returns a store holding at most capacity entries. A ttl of zero
// keeps entries until they are evicted.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](capacity, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.lru.Add(key, value)
	return nil
}

// Len reports the number of entries, expired ones not yet swept included.
func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Close() {
	m.closed.Store(true)
	m.lru.Purge()
}
