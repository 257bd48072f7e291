package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/lumenlearn/lms-backend/internal/data/cache"
)

// MemoryStore is an in-process cache.Store for tests. It records every
// deleted key and pattern so invalidation fan-out can be asserted against.
type MemoryStore struct {
	mu              sync.Mutex
	entries         map[string][]byte
	DeletedKeys     []string
	DeletedPatterns []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string][]byte{}}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
		s.DeletedKeys = append(s.DeletedKeys, key)
	}
	return nil
}

// DeletePattern supports the only glob shape the repositories emit: a
// literal prefix followed by a trailing '*'.
func (s *MemoryStore) DeletePattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeletedPatterns = append(s.DeletedPatterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Has reports whether a key is currently cached.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// DeletedPattern reports whether a pattern delete covering key was issued.
func (s *MemoryStore) DeletedPattern(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pattern := range s.DeletedPatterns {
		if strings.HasPrefix(key, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}
