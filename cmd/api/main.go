package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/httpserver"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stopExpiry := context.WithCancel(context.Background())
	defer stopExpiry()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init app: %v", err)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, application.HTTPDeps())
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	go application.RunExpiry(ctx, cfg.OrderExpiryInterval)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s storage=%s", cfg.HTTPAddr, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}
	stopExpiry()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	application.Close(shutdownCtx)
}
