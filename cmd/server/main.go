package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coursegate/internal/platform/config"
	"coursegate/internal/platform/httpserver"
	"coursegate/internal/platform/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main loads configuration and hands the server lifecycle to run. Business
// logic lives in internal services packages.
func main() {
	cfg, err := config.Load(config.NewViper(os.Getenv("COURSEGATE_CONFIG")))
	if err != nil {
		logger.New("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx ends or the listener fails. Buffered audit events are
// flushed and the database closed before it returns on either path.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	app.start()
	defer app.close()

	srv := httpserver.New(cfg.Server.Addr, app.handler)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting coursegate role backend",
			"addr", cfg.Server.Addr,
			"roles_store", cfg.Roles.Store,
			"version", version,
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	return nil
}
