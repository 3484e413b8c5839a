package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/config"
	"github.com/hongminglow/exam-results/internal/server"
	postgres "github.com/hongminglow/exam-results/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, cfg.QueryTimeout)
	if err != nil {
		logger.Error("init database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.SeedUsersPath != "" {
		seeds, err := auth.LoadSeedFile(cfg.SeedUsersPath)
		if err != nil {
			logger.Error("load seed users", "path", cfg.SeedUsersPath, "err", err)
			os.Exit(1)
		}
		created, err := auth.SeedUsers(ctx, store, seeds)
		if err != nil {
			logger.Error("seed users", "err", err)
			os.Exit(1)
		}
		logger.Info("seeded users", "created", created, "declared", len(seeds))
	}

	srv := server.New(cfg, server.Deps{Users: store, Results: store}, logger)

	go func() {
		logger.Info("exam results backend listening", "addr", cfg.HTTPAddress(), "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "err", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
