// Package main is the entry point for the ctaglass server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randytsao24/ctaglass/internal/api"
	"github.com/randytsao24/ctaglass/internal/app"
	"github.com/randytsao24/ctaglass/internal/config"
	"github.com/randytsao24/ctaglass/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env-file", config.DefaultEnvFile, "optional .env file loaded before the environment")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "ctaglass:", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(os.Stdout, level, cfg.IsDevelopment())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	controllerDone := make(chan struct{})
	go func() {
		application.Run(runCtx)
		close(controllerDone)
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(api.ServicesFrom(application), logger, cfg.HTTPTimeout+5*time.Second),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", "http://localhost:"+cfg.Port),
			slog.String("env", cfg.Env))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = server.Shutdown(shutdownCtx)
		cancel()
	}

	cancelRun()
	<-controllerDone
	application.Close()

	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	if err != nil {
		logging.LogError(logger, "server stopped with error", err)
		return err
	}
	logger.Info("goodbye")
	return nil
}
