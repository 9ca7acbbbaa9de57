package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"cineflix/proj/internal/lib/logger"
)

// serve runs the API until SIGINT/SIGTERM, then stops accepting requests and
// drains queued mail before returning. The store is closed by the caller.
func (app *Application) serve() error {
	server := &http.Server{
		Addr:         net.JoinHostPort(app.cfg.Server.Host, app.cfg.Server.Port),
		Handler:      app.routes(),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
		ErrorLog:     logger.LogAdapter(app.log),
	}
	app.tasks.Run()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		app.log.Info("starting server",
			"url", fmt.Sprintf("http://%s", server.Addr),
			"version", version,
			"store", app.cfg.Store.Driver,
			"uploads", app.cfg.Assets.Bucket != "",
		)
		listenErr <- server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	app.log.Info("shutting down the server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return app.shutdownFailed(err)
	}
	app.log.Info("waiting for background tasks to finish")
	if err := app.tasks.Shutdown(shutdownCtx); err != nil {
		return app.shutdownFailed(err)
	}
	app.log.Info("server stopped")
	return nil
}

func (app *Application) shutdownFailed(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		app.log.Error("graceful shutdown timed out, forcing exit", "timeout", app.cfg.Server.ShutdownTimeout)
		return fmt.Errorf("graceful shutdown timed out: %w", err)
	}
	return err
}
