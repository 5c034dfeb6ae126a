package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is a Provider that keeps everything in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	locks KeyedMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetConfigPath() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	unlock := s.locks.Lock(key)
	defer unlock()
	s.put(key, value)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	unlock := s.locks.Lock(key)
	defer unlock()
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	cur, ok, _ := s.Get(ctx, key)
	next, keep, err := fn(cur, ok)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	if !keep {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil
	}
	s.put(key, next)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) put(key string, value []byte) {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()
}
