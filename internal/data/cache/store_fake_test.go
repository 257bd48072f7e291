package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// fakeStore backs the unit tests in this package without Redis.
type fakeStore struct {
	entries         map[string][]byte
	deletedKeys     []string
	deletedPatterns []string

	failGet    bool
	failSet    bool
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string][]byte{}}
}

func (s *fakeStore) Get(ctx context.Context, key string, dest interface{}) error {
	if s.failGet {
		return errors.New("get failed")
	}
	data, ok := s.entries[key]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *fakeStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.failSet {
		return errors.New("set failed")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = data
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, keys ...string) error {
	if s.failDelete {
		return errors.New("delete failed")
	}
	for _, key := range keys {
		delete(s.entries, key)
		s.deletedKeys = append(s.deletedKeys, key)
	}
	return nil
}

func (s *fakeStore) DeletePattern(ctx context.Context, pattern string) error {
	if s.failDelete {
		return errors.New("delete failed")
	}
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }
