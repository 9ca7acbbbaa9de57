package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cineflix/proj/internal/storage"
)

type Options struct {
	// WriteRetries bounds the re-reads after a version conflict.
	WriteRetries int
	Now          func() time.Time
}

type Repositories struct {
	Users         *UserRepository
	Movies        *MovieRepository
	Plans         *PlanRepository
	Subscriptions *SubscriptionRepository
	Progress      *ProgressRepository
	Session       *SessionRepository
}

func New(log *slog.Logger, store storage.Store, opts Options) *Repositories {
	ids := NewIDGenerator(opts.Now)
	plans := NewPlanRepository(log, store, ids, opts.WriteRetries)
	return &Repositories{
		Users:         NewUserRepository(log, store, ids, opts.WriteRetries, plans),
		Movies:        NewMovieRepository(log, store, ids, opts.WriteRetries),
		Plans:         plans,
		Subscriptions: NewSubscriptionRepository(log, store, ids, opts.WriteRetries),
		Progress:      NewProgressRepository(log, store, opts.WriteRetries),
		Session:       NewSessionRepository(log, store),
	}
}

// Seed installs the sample catalog, the plans and an empty user list for
// every key that does not exist yet. Existing data is never touched.
func (r *Repositories) Seed(ctx context.Context, log *slog.Logger) error {
	const op = "repositories.Repositories.Seed"
	log = log.With("op", op)
	seeders := []struct {
		key  string
		seed func(context.Context) (bool, error)
	}{
		{storage.KeyUsers, r.Users.Seed},
		{storage.KeyMovies, r.Movies.Seed},
		{storage.KeyPlans, r.Plans.Seed},
	}
	for _, s := range seeders {
		created, err := s.seed(ctx)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, s.key, err)
		}
		if created {
			log.Info("seeded collection", "key", s.key)
		}
	}
	return nil
}
