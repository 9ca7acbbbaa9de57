package repositories

import (
	"context"
	"log/slog"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

type PlanRepository struct {
	plans *Collection[models.Plan, *models.Plan]
}

func NewPlanRepository(log *slog.Logger, store storage.Store, ids *IDGenerator, retries int) *PlanRepository {
	return &PlanRepository{
		plans: NewCollection[models.Plan](log, store, storage.KeyPlans, ids, retries),
	}
}

func (r *PlanRepository) FindAll(ctx context.Context) ([]models.Plan, error) {
	return r.plans.FindAll(ctx)
}

func (r *PlanRepository) FindByID(ctx context.Context, id int64) (models.Plan, error) {
	return r.plans.FindByID(ctx, id)
}

// FindByName matches ignoring case and accents, so "padrao" finds "Padrão".
func (r *PlanRepository) FindByName(ctx context.Context, name string) (models.Plan, error) {
	slug := models.Slugify(name)
	found, err := r.plans.Filter(ctx, func(p *models.Plan) bool { return p.Slug() == slug })
	if err != nil {
		return models.Plan{}, err
	}
	if len(found) == 0 {
		return models.Plan{}, storage.ErrNotFound
	}
	return found[0], nil
}

func (r *PlanRepository) Insert(ctx context.Context, plan models.Plan) (models.Plan, error) {
	return r.plans.Insert(ctx, plan)
}

func (r *PlanRepository) ReplaceAll(ctx context.Context, plans []models.Plan) error {
	return r.plans.ReplaceAll(ctx, plans)
}

func (r *PlanRepository) Seed(ctx context.Context) (bool, error) {
	return r.plans.Seed(ctx, SamplePlans())
}
