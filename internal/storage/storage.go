package storage

import (
	"context"
	"fmt"
)

// Keys of the record store. Each one holds a single JSON document.
const (
	KeyUsers         = "users"
	KeyMovies        = "movies"
	KeyPlans         = "plans"
	KeySubscriptions = "subscriptions"
	KeyWatchProgress = "watchProgress"
	KeyCurrentUser   = "currentUser"
)

var Keys = []string{KeyUsers, KeyMovies, KeyPlans, KeySubscriptions, KeyWatchProgress, KeyCurrentUser}

// AnyVersion disables the version check on Set.
const AnyVersion int64 = -1

// Item is a stored value and its version. Versions start at 1 and grow by
// one on every write; a missing key has version 0.
type Item struct {
	Value   []byte
	Version int64
}

// Store is a string-keyed document store with compare-and-set writes.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (Item, error)
	// Set replaces the value when the current version equals expected
	// (0 meaning "absent") and returns the new version. A mismatch yields
	// ErrConflict. Pass AnyVersion to overwrite unconditionally.
	Set(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Unavailable wraps a backend error so that callers can match ErrUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
