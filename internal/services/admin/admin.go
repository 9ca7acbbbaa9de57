package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

type MoviesStorage interface {
	FindAll(ctx context.Context) ([]models.Movie, error)
	ReplaceAll(ctx context.Context, movies []models.Movie) error
}

type UsersStorage interface {
	FindAll(ctx context.Context) ([]models.User, error)
	ReplaceAll(ctx context.Context, users []models.User) error
}

type PlansStorage interface {
	FindAll(ctx context.Context) ([]models.Plan, error)
	ReplaceAll(ctx context.Context, plans []models.Plan) error
}

type AdminService struct {
	log    *slog.Logger
	movies MoviesStorage
	users  UsersStorage
	plans  PlansStorage
	now    func() time.Time
}

func New(log *slog.Logger, movies MoviesStorage, users UsersStorage, plans PlansStorage) *AdminService {
	return &AdminService{
		log:    log,
		movies: movies,
		users:  users,
		plans:  plans,
		now:    time.Now,
	}
}

type Stats struct {
	TotalMovies         int     `json:"total_movies"`
	TotalUsers          int     `json:"total_users"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
}

type Report struct {
	TotalMovies       int            `json:"total_movies"`
	TotalUsers        int            `json:"total_users"`
	GenreDistribution map[string]int `json:"genre_distribution"`
	PlanDistribution  map[string]int `json:"plan_distribution"`
}

type snapshot struct {
	movies []models.Movie
	users  []models.User
	plans  []models.Plan
}

func (s *AdminService) load(ctx context.Context, log *slog.Logger) (snapshot, error) {
	var (
		snap snapshot
		err  error
	)
	if snap.movies, err = s.movies.FindAll(ctx); err != nil {
		log.Error("Error loading movies", "errMsg", err.Error())
		return snapshot{}, err
	}
	if snap.users, err = s.users.FindAll(ctx); err != nil {
		log.Error("Error loading users", "errMsg", err.Error())
		return snapshot{}, err
	}
	if snap.plans, err = s.plans.FindAll(ctx); err != nil {
		log.Error("Error loading plans", "errMsg", err.Error())
		return snapshot{}, err
	}
	return snap, nil
}

// subscribedPlans yields the plan of every user whose plan still exists.
func (snap snapshot) subscribedPlans() []models.Plan {
	byID := make(map[int64]models.Plan, len(snap.plans))
	for _, p := range snap.plans {
		byID[p.ID] = p
	}
	var out []models.Plan
	for _, u := range snap.users {
		if !u.HasPlan() {
			continue
		}
		if p, ok := byID[*u.PlanID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Stats counts users with any plan as active. Revenue only includes plans
// that still exist.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	const op = "admin.AdminService.Stats"
	snap, err := s.load(ctx, s.log.With("op", op))
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		TotalMovies: len(snap.movies),
		TotalUsers:  len(snap.users),
	}
	for _, u := range snap.users {
		if u.HasPlan() {
			stats.ActiveSubscriptions++
		}
	}
	for _, p := range snap.subscribedPlans() {
		stats.MonthlyRevenue += p.Price
	}
	stats.MonthlyRevenue = math.Round(stats.MonthlyRevenue*100) / 100
	return stats, nil
}

func (s *AdminService) Report(ctx context.Context) (Report, error) {
	const op = "admin.AdminService.Report"
	snap, err := s.load(ctx, s.log.With("op", op))
	if err != nil {
		return Report{}, err
	}
	report := Report{
		TotalMovies:       len(snap.movies),
		TotalUsers:        len(snap.users),
		GenreDistribution: make(map[string]int),
		PlanDistribution:  make(map[string]int),
	}
	for _, m := range snap.movies {
		report.GenreDistribution[string(m.Genre)]++
	}
	for _, p := range snap.subscribedPlans() {
		report.PlanDistribution[p.Name]++
	}
	return report, nil
}

// Export returns every collection with passwords masked.
func (s *AdminService) Export(ctx context.Context) (models.ExportDocument, error) {
	const op = "admin.AdminService.Export"
	log := s.log.With("op", op)
	snap, err := s.load(ctx, log)
	if err != nil {
		return models.ExportDocument{}, err
	}
	users := make([]models.User, len(snap.users))
	for i, u := range snap.users {
		u.Password = models.HiddenPassword
		users[i] = u
	}
	doc := models.ExportDocument{
		Movies:     snap.movies,
		Users:      users,
		Plans:      snap.plans,
		ExportDate: s.now().UTC(),
	}
	log.Info("data exported", "movies", len(doc.Movies), "users", len(doc.Users), "plans", len(doc.Plans))
	return doc, nil
}

// ExportFileName is the suggested download name for an export made at t.
func ExportFileName(t time.Time) string {
	return "cineflix-backup-" + t.UTC().Format(time.DateOnly) + ".json"
}

// Import overwrites the collections present in doc and returns the keys
// it wrote. Absent collections are left untouched.
func (s *AdminService) Import(ctx context.Context, doc models.ExportDocument) ([]string, error) {
	const op = "admin.AdminService.Import"
	log := s.log.With("op", op)
	if err := s.checkPlanReferences(ctx, doc); err != nil {
		if !errors.Is(err, storage.ErrInvalidReference) {
			log.Error("Error checking plan references", "errMsg", err.Error())
		} else {
			log.Info("import rejected", "reason", err.Error())
		}
		return []string{}, err
	}
	written := []string{}
	steps := []struct {
		key     string
		present bool
		write   func() error
	}{
		{storage.KeyPlans, doc.Plans != nil, func() error { return s.plans.ReplaceAll(ctx, doc.Plans) }},
		{storage.KeyMovies, doc.Movies != nil, func() error { return s.movies.ReplaceAll(ctx, doc.Movies) }},
		{storage.KeyUsers, doc.Users != nil, func() error { return s.users.ReplaceAll(ctx, doc.Users) }},
	}
	for _, step := range steps {
		if !step.present {
			continue
		}
		if err := step.write(); err != nil {
			log.Error("Error importing collection", "key", step.key, "written", written, "errMsg", err.Error())
			return written, err
		}
		written = append(written, step.key)
	}
	log.Info("data imported", "keys", written)
	return written, nil
}

// checkPlanReferences verifies that every user left after importing doc
// points at a plan that will still exist. Imported plans replace the stored
// ones, so a plans-only import may orphan users already stored.
func (s *AdminService) checkPlanReferences(ctx context.Context, doc models.ExportDocument) error {
	if doc.Plans == nil && doc.Users == nil {
		return nil
	}
	plans, users := doc.Plans, doc.Users
	var err error
	if plans == nil {
		if plans, err = s.plans.FindAll(ctx); err != nil {
			return err
		}
	}
	if users == nil {
		if users, err = s.users.FindAll(ctx); err != nil {
			return err
		}
	}
	known := make(map[int64]struct{}, len(plans))
	for _, p := range plans {
		if p.ID > 0 {
			known[p.ID] = struct{}{}
		}
	}
	for _, u := range users {
		if !u.HasPlan() {
			continue
		}
		if _, ok := known[*u.PlanID]; !ok {
			return fmt.Errorf("user %q: plan %d: %w", u.Email, *u.PlanID, storage.ErrInvalidReference)
		}
	}
	return nil
}
