package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestLookupFetchesOnceThenServesFromCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	log := testLogger(t)

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	got, err := Lookup(ctx, store, log, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = Lookup(ctx, store, log, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls, "second lookup should hit the cache")
}

func TestLookupFetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	log := testLogger(t)

	boom := errors.New("boom")
	_, err := Lookup(ctx, store, log, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	_, cached := store.entries["k"]
	assert.False(t, cached)
}

func TestLookupDegradesWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failGet = true
	store.failSet = true
	log := testLogger(t)

	got, err := Lookup(ctx, store, log, "k", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestLookupNilStore(t *testing.T) {
	got, err := Lookup(context.Background(), nil, testLogger(t), "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestLookupPtrDoesNotCacheNil(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	log := testLogger(t)

	calls := 0
	var row *string
	fetch := func(context.Context) (*string, error) {
		calls++
		return row, nil
	}

	got, err := LookupPtr(ctx, store, log, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, cached := store.entries["k"]
	assert.False(t, cached, "absent row must not be cached")

	// The row appears; the next lookup must see it, not a stale null.
	val := "here"
	row = &val
	got, err = LookupPtr(ctx, store, log, "k", time.Minute, fetch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "here", *got)
	assert.Equal(t, 2, calls)

	// Now it is cached.
	got, err = LookupPtr(ctx, store, log, "k", time.Minute, fetch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, calls)
}
