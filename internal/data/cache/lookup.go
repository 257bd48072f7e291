package cache

import (
	"context"
	"errors"
	"time"

	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

// Lookup is the shared read-through sequence: consult the store, fall back
// to fetch on miss, populate the store with the result. Cache failures on
// either side degrade to a plain fetch.
func Lookup[T any](ctx context.Context, store Store, log *logger.Logger, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if store != nil {
		var cached T
		err := store.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrMiss) {
			log.Warn("cache get failed", "key", key, "error", err)
		}
	}

	val, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if store != nil {
		if err := store.Set(ctx, key, val, ttl); err != nil {
			log.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return val, nil
}

// LookupPtr is Lookup for nullable point reads. A nil fetch result is
// returned without being cached, so an absent row never sticks as a cached
// null past its own creation.
func LookupPtr[T any](ctx context.Context, store Store, log *logger.Logger, key string, ttl time.Duration, fetch func(context.Context) (*T, error)) (*T, error) {
	if store != nil {
		var cached *T
		err := store.Get(ctx, key, &cached)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil && !errors.Is(err, ErrMiss) {
			log.Warn("cache get failed", "key", key, "error", err)
		}
	}

	val, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}

	if store != nil {
		if err := store.Set(ctx, key, val, ttl); err != nil {
			log.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return val, nil
}
