package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"study-quiz/internal/adapter"
	"study-quiz/internal/adapter/studyapi"
	"study-quiz/internal/auth"
	"study-quiz/internal/cache"
	"study-quiz/internal/cli"
	"study-quiz/internal/config"
	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/service"
	"study-quiz/internal/validation"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	client := studyapi.NewClient(cfg.StudyAPI, &http.Client{Timeout: cfg.StudyAPI.Timeout})
	validator := validation.NewValidator(cfg.Upload)

	provider := auth.NewProvider(client, store, validator, auth.ProviderOptions{
		Profile:       cfg.CLI.Profile,
		CredentialTTL: cfg.Redis.CredentialTTL,
	})
	if err := provider.Restore(ctx); err != nil {
		logger.Get().Warn("Failed to restore stored credential", zap.Error(err))
	}

	controller := service.NewSessionController(client, provider, provider, validator)
	return cli.NewApp(provider, controller, validator, os.Stdout).Run(ctx, os.Stdin)
}

// openStore keeps the credential in Redis when configured, otherwise in a local
// SQLite file so sign-in and resume carry over between runs. Process memory is
// the last resort and loses both on exit.
func openStore(ctx context.Context, cfg *config.Config) (domain.Cache, func()) {
	appLogger := logger.Get()

	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err == nil {
			store := adapter.NewRedisCacheAdapter(redisClient)
			if err = cache.CheckConnection(ctx, store); err == nil {
				return store, func() { _ = redisClient.Close() }
			}
			_ = redisClient.Close()
		}
		appLogger.Warn("Redis unavailable, falling back to the local store", zap.Error(err))
	}

	path := cfg.CLI.StorePathOrDefault()
	sqliteStore, err := adapter.NewSQLiteCacheAdapter(path)
	if err == nil {
		if err = cache.CheckConnection(ctx, sqliteStore); err == nil {
			appLogger.Debug("Using local store", zap.String("path", path))
			return sqliteStore, func() { _ = sqliteStore.Close() }
		}
		_ = sqliteStore.Close()
	}
	appLogger.Warn("Local store unavailable, sign-in will not be kept between runs",
		zap.String("path", path),
		zap.Error(err),
	)
	return adapter.NewMemoryCacheAdapter(), func() {}
}
