package memory

import (
	"context"
	"sync"

	"cineflix/proj/internal/storage"
)

type entry struct {
	value   []byte
	version int64
}

// Store keeps every key in process memory. Nothing survives a restart.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
}

func New() *Store {
	return &Store{data: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key string) (storage.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok {
		return storage.Item{}, storage.ErrNotFound
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return storage.Item{Value: value, Version: e.version}, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.data[key]
	if expected != storage.AnyVersion && current.version != expected {
		return 0, storage.ErrConflict
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	next := current.version + 1
	s.data[key] = entry{value: stored, version: next}
	return next, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}
