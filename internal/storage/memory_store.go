package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and tooling. It counts
// writes per key so debounce behavior can be asserted, and can be flipped
// into a failing state to exercise degraded-mode paths.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    map[string]int
	failing bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		sets: make(map[string]int),
	}
}

// SetFailing makes every subsequent operation return ErrUnavailable.
func (s *MemoryStore) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// SetCount reports how many Set calls key has received.
func (s *MemoryStore) SetCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, false, ErrUnavailable
	}
	val, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := append([]byte(nil), val...)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	s.data[key] = append([]byte(nil), value...)
	s.sets[key]++
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	delete(s.data, key)
	return nil
}
