package main

import (
	"context"
	"flag"
	"os"

	"cineflix/proj/internal/config"
	"cineflix/proj/internal/lib/logger"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/movies"
	"cineflix/proj/internal/storage/assets"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")

	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error("failed to open record store", "driver", cfg.Store.Driver, "errMsg", err.Error())
		os.Exit(1)
	}
	defer store.Close()
	log.Info("record store opened", "driver", cfg.Store.Driver, "target", storeTarget(cfg.Store))

	if cfg.Store.Seed {
		repos := repositories.New(log, store, repositories.Options{WriteRetries: cfg.Store.WriteRetries})
		if err := repos.Seed(ctx, log); err != nil {
			log.Error("failed to seed record store", "errMsg", err.Error())
			os.Exit(1)
		}
	}

	var assetStorage movies.AssetStorage
	if cfg.Assets.Bucket != "" {
		s3Storage, err := assets.NewS3Storage(ctx, cfg.Assets)
		if err != nil {
			log.Error("failed to configure asset storage", "errMsg", err.Error())
			os.Exit(1)
		}
		assetStorage = s3Storage
		log.Info("video uploads enabled", "bucket", cfg.Assets.Bucket)
	}

	app := NewApplication(cfg, log, store, assetStorage)
	if err := app.serve(); err != nil {
		app.log.Error("shutting down the server", "reason", err.Error())
		store.Close()
		os.Exit(1)
	}
}
