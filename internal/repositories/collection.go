package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cineflix/proj/internal/storage"
)

// Record is implemented by pointers to the persisted entity types.
type Record[T any] interface {
	*T
	GetID() int64
	SetID(int64)
}

// Constraint is checked against the current records before an insert or
// update is written. existing still holds the previous version of candidate
// on update, so implementations must skip records with the same id.
type Constraint[T any] func(ctx context.Context, existing []T, candidate *T) error

// errUnchanged aborts a mutation without writing.
var errUnchanged = errors.New("unchanged")

// Collection stores every record of one entity type as a JSON array under a
// single key. Writes are read-modify-write cycles guarded by a mutex and by
// the store's version check, so concurrent writers through other processes
// are retried instead of lost.
type Collection[T any, P Record[T]] struct {
	log        *slog.Logger
	store      storage.Store
	key        string
	ids        *IDGenerator
	retries    int
	constraint Constraint[T]

	mu sync.Mutex
}

func NewCollection[T any, P Record[T]](log *slog.Logger, store storage.Store, key string, ids *IDGenerator, retries int) *Collection[T, P] {
	return &Collection[T, P]{
		log:     log.With("collection", key),
		store:   store,
		key:     key,
		ids:     ids,
		retries: retries,
	}
}

func (c *Collection[T, P]) WithConstraint(fn Constraint[T]) *Collection[T, P] {
	c.constraint = fn
	return c
}

func (c *Collection[T, P]) load(ctx context.Context) ([]T, int64, error) {
	item, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []T{}, 0, nil
		}
		return nil, 0, err
	}
	return c.decode(item.Value), item.Version, nil
}

// decode never fails: an unreadable document yields an empty collection and
// unreadable records are dropped.
func (c *Collection[T, P]) decode(raw []byte) []T {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		c.log.Warn("malformed collection, treating as empty", "err", err)
		return []T{}
	}
	records := make([]T, 0, len(docs))
	for i, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			c.log.Warn("dropping malformed record", "index", i, "err", err)
			continue
		}
		if P(&rec).GetID() <= 0 {
			c.log.Warn("dropping record without id", "index", i)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (c *Collection[T, P]) mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return casWrite(ctx, c.log, c.store, c.key, c.retries, func(item storage.Item) ([]byte, error) {
		next, err := fn(c.decode(item.Value))
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return json.Marshal(next)
	})
}

// casWrite reads key, lets build produce the new value and writes it back
// with a version check, retrying on storage.ErrConflict. A missing key is
// passed to build as a JSON null at version 0.
func casWrite(ctx context.Context, log *slog.Logger, store storage.Store, key string, retries int, build func(storage.Item) ([]byte, error)) error {
	for attempt := 0; ; attempt++ {
		item, err := store.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			item = storage.Item{Value: []byte("null")}
		}
		raw, err := build(item)
		if err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}
		_, err = store.Set(ctx, key, raw, item.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) || attempt >= retries {
			return fmt.Errorf("write %s: %w", key, err)
		}
		log.Warn("concurrent write detected, retrying", "key", key, "attempt", attempt+1)
	}
}

func indexOf[T any, P Record[T]](records []T, id int64) int {
	for i := range records {
		if P(&records[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func maxID[T any, P Record[T]](records []T) int64 {
	var highest int64
	for i := range records {
		if id := P(&records[i]).GetID(); id > highest {
			highest = id
		}
	}
	return highest
}

// FindAll returns the records in stored order.
func (c *Collection[T, P]) FindAll(ctx context.Context) ([]T, error) {
	records, _, err := c.load(ctx)
	return records, err
}

func (c *Collection[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	var zero T
	records, _, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	if i := indexOf[T, P](records, id); i >= 0 {
		return records[i], nil
	}
	return zero, storage.ErrNotFound
}

// Filter returns the records matching keep, in stored order.
func (c *Collection[T, P]) Filter(ctx context.Context, keep func(*T) bool) ([]T, error) {
	records, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	for i := range records {
		if keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// Insert appends rec. A zero id is replaced by a fresh one; an id that is
// already taken yields storage.ErrDuplicate.
func (c *Collection[T, P]) Insert(ctx context.Context, rec T) (T, error) {
	var inserted T
	err := c.mutate(ctx, func(records []T) ([]T, error) {
		candidate := rec
		p := P(&candidate)
		if p.GetID() <= 0 {
			p.SetID(c.ids.Next(maxID[T, P](records)))
		} else if indexOf[T, P](records, p.GetID()) >= 0 {
			return nil, fmt.Errorf("id %d: %w", p.GetID(), storage.ErrDuplicate)
		}
		if c.constraint != nil {
			if err := c.constraint(ctx, records, &candidate); err != nil {
				return nil, err
			}
		}
		inserted = candidate
		return append(records, candidate), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return inserted, nil
}

// Update applies patch to the record with the given id. The id itself
// cannot be changed.
func (c *Collection[T, P]) Update(ctx context.Context, id int64, patch func(P)) (T, error) {
	var updated T
	err := c.mutate(ctx, func(records []T) ([]T, error) {
		i := indexOf[T, P](records, id)
		if i < 0 {
			return nil, storage.ErrNotFound
		}
		candidate := records[i]
		patch(P(&candidate))
		P(&candidate).SetID(id)
		if c.constraint != nil {
			if err := c.constraint(ctx, records, &candidate); err != nil {
				return nil, err
			}
		}
		records[i] = candidate
		updated = candidate
		return records, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

func (c *Collection[T, P]) DeleteByID(ctx context.Context, id int64) error {
	return c.mutate(ctx, func(records []T) ([]T, error) {
		i := indexOf[T, P](records, id)
		if i < 0 {
			return nil, storage.ErrNotFound
		}
		return append(records[:i], records[i+1:]...), nil
	})
}

// DeleteMany removes every listed id that exists and reports how many were
// removed. Unknown ids are ignored.
func (c *Collection[T, P]) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var removed int
	err := c.mutate(ctx, func(records []T) ([]T, error) {
		removed = 0
		kept := make([]T, 0, len(records))
		for i := range records {
			if _, ok := drop[P(&records[i]).GetID()]; ok {
				removed++
				continue
			}
			kept = append(kept, records[i])
		}
		if removed == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	return removed, err
}

// ReplaceAll overwrites the whole collection. Records without an id get one.
// The incoming set is held to the same rules as Insert: ids must be unique
// (storage.ErrDuplicate) and every record must pass the constraint against
// the rest of the set. Nothing is written when a record fails.
func (c *Collection[T, P]) ReplaceAll(ctx context.Context, records []T) error {
	return c.mutate(ctx, func([]T) ([]T, error) {
		next := make([]T, len(records))
		copy(next, records)
		seen := make(map[int64]struct{}, len(next))
		for i := range next {
			id := P(&next[i]).GetID()
			if id <= 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				return nil, fmt.Errorf("id %d: %w", id, storage.ErrDuplicate)
			}
			seen[id] = struct{}{}
		}
		floor := maxID[T, P](next)
		for i := range next {
			if P(&next[i]).GetID() <= 0 {
				id := c.ids.Next(floor)
				P(&next[i]).SetID(id)
				floor = id
			}
		}
		if c.constraint != nil {
			for i := range next {
				if err := c.constraint(ctx, next, &next[i]); err != nil {
					return nil, err
				}
			}
		}
		return next, nil
	})
}

// Seed writes records only when the key does not exist yet.
func (c *Collection[T, P]) Seed(ctx context.Context, records []T) (bool, error) {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", c.key, err)
	}
	if _, err := c.store.Set(ctx, c.key, raw, 0); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
