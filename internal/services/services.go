package services

import (
	"log/slog"

	"cineflix/proj/internal/config"
	"cineflix/proj/internal/mails"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/admin"
	"cineflix/proj/internal/services/auth"
	"cineflix/proj/internal/services/checkout"
	"cineflix/proj/internal/services/movies"
	"cineflix/proj/internal/services/player"
	"cineflix/proj/internal/services/users"
	"cineflix/proj/internal/storage"
)

type Services struct {
	Auth     *auth.AuthService
	Movies   *movies.MovieService
	Users    *users.UserService
	Plans    *repositories.PlanRepository
	Checkout *checkout.Service
	Player   *player.PlayerService
	Admin    *admin.AdminService
}

// New builds every service on top of store. A nil assets disables video
// uploads.
func New(
	log *slog.Logger,
	cfg *config.Config,
	store storage.Store,
	assets movies.AssetStorage,
	taskExecutor auth.TaskExecutor,
) *Services {
	repos := repositories.New(log, store, repositories.Options{WriteRetries: cfg.Store.WriteRetries})

	var mailer auth.MailProvider
	if cfg.SMTP.Host != "" {
		mailer = mails.New(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Timeout,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.Sender,
			cfg.SMTP.RetriesCount,
		)
	} else {
		mailer = &mails.LogMailer{Log: log}
	}

	return &Services{
		Auth:   auth.New(log, repos.Users, repos.Session, mailer, taskExecutor),
		Movies: movies.New(log, repos.Movies, assets, cfg.Assets.MaxUploadBytes),
		Users:  users.New(log, repos.Users),
		Plans:  repos.Plans,
		Checkout: checkout.New(
			log,
			repos.Users,
			repos.Plans,
			repos.Subscriptions,
			repos.Session,
			mailer,
			taskExecutor,
			checkout.Options{
				YearlyDiscount:  cfg.Checkout.YearlyDiscount,
				ProcessingDelay: cfg.Checkout.ProcessingDelay,
				WorkflowTTL:     cfg.Checkout.WorkflowTTL,
			},
		),
		Player: player.New(log, repos.Progress, repos.Movies, player.Options{
			ResumeThreshold: cfg.Player.ResumeThreshold,
			SaveInterval:    cfg.Player.SaveInterval,
			PerUserProgress: cfg.Player.PerUserProgress,
		}),
		Admin: admin.New(log, repos.Movies, repos.Users, repos.Plans),
	}
}
