package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

// ProgressRepository stores the watchProgress mapping: one JSON object whose
// keys identify what was watched and whose values are models.Progress.
type ProgressRepository struct {
	log     *slog.Logger
	store   storage.Store
	retries int

	mu sync.Mutex
}

func NewProgressRepository(log *slog.Logger, store storage.Store, retries int) *ProgressRepository {
	return &ProgressRepository{
		log:     log.With("collection", storage.KeyWatchProgress),
		store:   store,
		retries: retries,
	}
}

func (r *ProgressRepository) decode(raw []byte) map[string]models.Progress {
	var docs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		r.log.Warn("malformed progress mapping, treating as empty", "err", err)
		return map[string]models.Progress{}
	}
	entries := make(map[string]models.Progress, len(docs))
	for key, doc := range docs {
		var p models.Progress
		if err := json.Unmarshal(doc, &p); err != nil {
			r.log.Warn("dropping malformed progress entry", "key", key, "err", err)
			continue
		}
		entries[key] = p
	}
	return entries
}

func (r *ProgressRepository) All(ctx context.Context) (map[string]models.Progress, error) {
	item, err := r.store.Get(ctx, storage.KeyWatchProgress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[string]models.Progress{}, nil
		}
		return nil, err
	}
	return r.decode(item.Value), nil
}

func (r *ProgressRepository) Get(ctx context.Context, key string) (models.Progress, bool, error) {
	entries, err := r.All(ctx)
	if err != nil {
		return models.Progress{}, false, err
	}
	p, ok := entries[key]
	return p, ok, nil
}

// Put inserts or replaces the entry for key.
func (r *ProgressRepository) Put(ctx context.Context, key string, p models.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return casWrite(ctx, r.log, r.store, storage.KeyWatchProgress, r.retries, func(item storage.Item) ([]byte, error) {
		entries := r.decode(item.Value)
		entries[key] = p
		return json.Marshal(entries)
	})
}

func (r *ProgressRepository) Remove(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return casWrite(ctx, r.log, r.store, storage.KeyWatchProgress, r.retries, func(item storage.Item) ([]byte, error) {
		entries := r.decode(item.Value)
		removed := false
		for _, key := range keys {
			if _, ok := entries[key]; ok {
				delete(entries, key)
				removed = true
			}
		}
		if !removed {
			return nil, errUnchanged
		}
		return json.Marshal(entries)
	})
}
