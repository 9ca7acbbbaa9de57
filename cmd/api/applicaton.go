package main

import (
	"log/slog"

	"cineflix/proj/internal/api/tasks"
	"cineflix/proj/internal/config"
	"cineflix/proj/internal/lib/validator"
	"cineflix/proj/internal/services"
	"cineflix/proj/internal/services/movies"
	"cineflix/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	services  *services.Services
	tasks     *tasks.BackgroundTasks
	store     storage.Store
	validator *govalidator.Validate
}

func NewApplication(cfg *config.Config, log *slog.Logger, store storage.Store, assets movies.AssetStorage) *Application {
	bgTasks := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	app := &Application{
		cfg:       cfg,
		log:       log,
		services:  services.New(log, cfg, store, assets, bgTasks),
		tasks:     bgTasks,
		store:     store,
		validator: validator.New(),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
	return app
}
