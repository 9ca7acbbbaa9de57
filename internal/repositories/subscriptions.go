package repositories

import (
	"context"
	"log/slog"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

type SubscriptionRepository struct {
	subscriptions *Collection[models.Subscription, *models.Subscription]
}

func NewSubscriptionRepository(log *slog.Logger, store storage.Store, ids *IDGenerator, retries int) *SubscriptionRepository {
	return &SubscriptionRepository{
		subscriptions: NewCollection[models.Subscription](log, store, storage.KeySubscriptions, ids, retries),
	}
}

func (r *SubscriptionRepository) FindAll(ctx context.Context) ([]models.Subscription, error) {
	return r.subscriptions.FindAll(ctx)
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	return r.subscriptions.Filter(ctx, func(s *models.Subscription) bool { return s.UserID == userID })
}

func (r *SubscriptionRepository) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	return r.subscriptions.Insert(ctx, sub)
}

func (r *SubscriptionRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.subscriptions.DeleteByID(ctx, id)
}
