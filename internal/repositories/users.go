package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

// UserPatch holds the fields to change; nil fields are left as they are.
type UserPatch struct {
	Name               *string
	Email              *string
	Password           *string
	PlanID             *int64
	ClearPlan          bool
	SubscriptionStart  *time.Time
	SubscriptionPeriod *fields.Period
}

func (p UserPatch) Apply(u *models.User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.ClearPlan {
		u.PlanID = nil
		u.SubscriptionStart = nil
		u.SubscriptionPeriod = ""
	}
	if p.PlanID != nil {
		id := *p.PlanID
		u.PlanID = &id
	}
	if p.SubscriptionStart != nil {
		start := *p.SubscriptionStart
		u.SubscriptionStart = &start
	}
	if p.SubscriptionPeriod != nil {
		u.SubscriptionPeriod = *p.SubscriptionPeriod
	}
}

type UserRepository struct {
	users *Collection[models.User, *models.User]
	plans *PlanRepository
}

func NewUserRepository(log *slog.Logger, store storage.Store, ids *IDGenerator, retries int, plans *PlanRepository) *UserRepository {
	r := &UserRepository{plans: plans}
	r.users = NewCollection[models.User](log, store, storage.KeyUsers, ids, retries).WithConstraint(r.check)
	return r
}

// check keeps emails unique (exact match) and plan references valid.
func (r *UserRepository) check(ctx context.Context, existing []models.User, candidate *models.User) error {
	for i := range existing {
		if existing[i].ID != candidate.ID && existing[i].Email == candidate.Email {
			return fmt.Errorf("email %q: %w", candidate.Email, storage.ErrDuplicate)
		}
	}
	if candidate.PlanID != nil && r.plans != nil {
		if _, err := r.plans.FindByID(ctx, *candidate.PlanID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("plan %d: %w", *candidate.PlanID, storage.ErrInvalidReference)
			}
			return err
		}
	}
	return nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.users.FindAll(ctx)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	return r.users.FindByID(ctx, id)
}

// FindByEmail matches the email exactly, case included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	found, err := r.users.Filter(ctx, func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return models.User{}, err
	}
	if len(found) == 0 {
		return models.User{}, storage.ErrNotFound
	}
	return found[0], nil
}

func (r *UserRepository) Insert(ctx context.Context, user models.User) (models.User, error) {
	return r.users.Insert(ctx, user)
}

func (r *UserRepository) Update(ctx context.Context, id int64, patch UserPatch) (models.User, error) {
	return r.users.Update(ctx, id, patch.Apply)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.users.DeleteByID(ctx, id)
}

func (r *UserRepository) ReplaceAll(ctx context.Context, users []models.User) error {
	return r.users.ReplaceAll(ctx, users)
}

func (r *UserRepository) Seed(ctx context.Context) (bool, error) {
	return r.users.Seed(ctx, nil)
}
