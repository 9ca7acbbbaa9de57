// Package storagetest holds helpers shared by the record store backends'
// tests and by the layers built on top of them.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cineflix/proj/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests exercises the storage.Store contract against a fresh store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Set(ctx, storage.KeyMovies, []byte(`[]`), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		item, err := s.Get(ctx, storage.KeyMovies)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(item.Value))
		assert.Equal(t, int64(1), item.Version)

		v, err = s.Set(ctx, storage.KeyMovies, []byte(`[{"id":1}]`), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set(ctx, storage.KeyUsers, []byte(`[]`), 0)
		require.NoError(t, err)

		_, err = s.Set(ctx, storage.KeyUsers, []byte(`[1]`), 0)
		assert.ErrorIs(t, err, storage.ErrConflict)
		_, err = s.Set(ctx, storage.KeyUsers, []byte(`[1]`), 7)
		assert.ErrorIs(t, err, storage.ErrConflict)

		item, err := s.Get(ctx, storage.KeyUsers)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(item.Value))
	})

	t.Run("AnyVersionOverwrites", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set(ctx, storage.KeyPlans, []byte(`[]`), storage.AnyVersion)
		require.NoError(t, err)
		v, err := s.Set(ctx, storage.KeyPlans, []byte(`[{}]`), storage.AnyVersion)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set(ctx, storage.KeyCurrentUser, []byte(`{}`), 0)
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, storage.KeyCurrentUser))
		require.NoError(t, s.Delete(ctx, storage.KeyCurrentUser))
		_, err = s.Get(ctx, storage.KeyCurrentUser)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		v, err := s.Set(ctx, storage.KeyCurrentUser, []byte(`{}`), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("ConcurrentCreateOneWinner", func(t *testing.T) {
		s := newStore(t)
		const writers = 8
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Set(ctx, storage.KeySubscriptions, []byte(`[]`), 0)
				results <- err
			}()
		}
		wg.Wait()
		close(results)
		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, storage.ErrConflict)
		}
		assert.Equal(t, 1, wins)
	})
}

// FlakyStore wraps a store and fails writes to the listed keys.
type FlakyStore struct {
	storage.Store

	mu       sync.Mutex
	failSet  map[string]error
	setCalls map[string]int
}

func NewFlakyStore(inner storage.Store) *FlakyStore {
	return &FlakyStore{Store: inner, failSet: map[string]error{}, setCalls: map[string]int{}}
}

var ErrInjected = errors.New("injected failure")

// FailSet makes every following Set on key return storage.ErrUnavailable.
func (f *FlakyStore) FailSet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = storage.Unavailable("flaky.Set", ErrInjected)
}

// ConflictSet makes every following Set on key fail as if another writer
// had always bumped the version first.
func (f *FlakyStore) ConflictSet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = fmt.Errorf("flaky.Set %s: %w", key, storage.ErrConflict)
}

func (f *FlakyStore) Heal(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failSet, key)
}

func (f *FlakyStore) SetCalls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls[key]
}

func (f *FlakyStore) Set(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	f.mu.Lock()
	f.setCalls[key]++
	err := f.failSet[key]
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.Store.Set(ctx, key, value, expected)
}
