// @title Study Quiz API
// @version 1.0
// @description Quiz session facade over the study service: upload a PDF, answer the generated quiz, review explanations and topics.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "study-quiz/cmd/api/docs"
	"study-quiz/internal/adapter"
	"study-quiz/internal/adapter/studyapi"
	"study-quiz/internal/cache"
	"study-quiz/internal/config"
	"study-quiz/internal/domain"
	"study-quiz/internal/handler"
	"study-quiz/internal/logger"
	"study-quiz/internal/middleware"
	"study-quiz/internal/service"
	"study-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	evictionInterval   = 10 * time.Minute
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

// newStore returns the credential store: Redis when configured, process memory otherwise.
func newStore(ctx context.Context, cfg config.RedisConfig) domain.Cache {
	appLogger := logger.Get()
	if cfg.Address == "" {
		appLogger.Warn("Redis address not configured, remembered sections will not survive a restart")
		return adapter.NewMemoryCacheAdapter()
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	store := adapter.NewRedisCacheAdapter(redisClient)
	if err := cache.CheckConnection(ctx, store); err != nil {
		_ = redisClient.Close()
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return store
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := newStore(ctx, cfg.Redis)

	studyClient := studyapi.NewClient(cfg.StudyAPI, &http.Client{Timeout: cfg.StudyAPI.Timeout})
	appLogger.Info("Study API client initialized", zap.String("base_url", cfg.StudyAPI.BaseURL))

	validator := validation.NewValidator(cfg.Upload)
	registry := service.NewSessionRegistry(studyClient, store, validator, cfg.Redis.CredentialTTL)

	go func() {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				registry.Evict(sessionIdleTimeout)
			}
		}
	}()

	authHandler := handler.NewAuthHandler(studyClient, validator, registry)
	sessionHandler := handler.NewSessionHandler(validator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app.Group("/api"), authHandler, sessionHandler, registry)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
