package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

// SessionRepository holds the single signed-in user under currentUser.
type SessionRepository struct {
	log   *slog.Logger
	store storage.Store
}

func NewSessionRepository(log *slog.Logger, store storage.Store) *SessionRepository {
	return &SessionRepository{log: log.With("collection", storage.KeyCurrentUser), store: store}
}

// Load reports false when nobody is signed in. An unreadable session counts
// as signed out.
func (r *SessionRepository) Load(ctx context.Context) (models.User, bool, error) {
	item, err := r.store.Get(ctx, storage.KeyCurrentUser)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, err
	}
	var user *models.User
	if err := json.Unmarshal(item.Value, &user); err != nil {
		r.log.Warn("malformed session, treating as signed out", "err", err)
		return models.User{}, false, nil
	}
	if user == nil || user.ID <= 0 {
		return models.User{}, false, nil
	}
	return *user, true, nil
}

func (r *SessionRepository) Save(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.store.Set(ctx, storage.KeyCurrentUser, raw, storage.AnyVersion)
	return err
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, storage.KeyCurrentUser)
}
