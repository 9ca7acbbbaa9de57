package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/storage"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailInUse   = errors.New("email already used by another user")
	ErrPlanNotFound = errors.New("plan not found")
)

type UsersStorage interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	Update(ctx context.Context, id int64, patch repositories.UserPatch) (models.User, error)
	DeleteByID(ctx context.Context, id int64) error
}

type UserService struct {
	log     *slog.Logger
	storage UsersStorage
}

func New(log *slog.Logger, storage UsersStorage) *UserService {
	return &UserService{log: log, storage: storage}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.storage.FindAll(ctx)
}

// Search matches name or email containing query, ignoring case.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	all, err := s.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	user, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch repositories.UserPatch) (models.User, error) {
	const op = "users.UserService.Update"
	log := s.log.With("op", op, "id", id)
	user, err := s.storage.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Info("user not found")
			return models.User{}, ErrUserNotFound
		case errors.Is(err, storage.ErrDuplicate):
			log.Info("email already in use")
			return models.User{}, ErrEmailInUse
		case errors.Is(err, storage.ErrInvalidReference):
			log.Info("unknown plan")
			return models.User{}, ErrPlanNotFound
		}
		log.Error(err.Error())
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	const op = "users.UserService.Delete"
	if err := s.storage.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		s.log.Error(err.Error(), "op", op, "id", id)
		return err
	}
	return nil
}
