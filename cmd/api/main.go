package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"motico-catalog/internal/app"
	"motico-catalog/internal/config"
	"motico-catalog/internal/logger"
	"motico-catalog/internal/server"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Catalog API stopped", zap.Error(err))
	}
	log.Info("Graceful shutdown complete")
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests and
// releases the storage backends.
func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting product catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("lock", cfg.Lock.Backend),
	)

	if cfg.JWT.Secret == "" {
		log.Warn("JWT_SECRET is empty, every admin route will answer 401")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.Open(startCtx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize catalog: %w", err)
	}

	srv := server.NewServer(cfg, log, application.ServerDeps())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		srv.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	return srv.Close()
}
