// @title QuizLens API
// @version 1.0
// @description Turns pasted text or a photographed page into a multiple-choice quiz. The session is tracked with a cookie.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "quiz-lens/cmd/api/docs"
	"quiz-lens/internal/adapter"
	"quiz-lens/internal/adapter/ocr"
	"quiz-lens/internal/adapter/quizgen"
	"quiz-lens/internal/cache"
	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"
	"quiz-lens/internal/handler"
	"quiz-lens/internal/logger"
	"quiz-lens/internal/middleware"
	"quiz-lens/internal/repository"
	"quiz-lens/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

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

	ctx := context.Background()

	// Session store
	var store domain.Cache
	var memoryStore *adapter.MemoryCacheAdapter
	switch cfg.Session.Store {
	case config.StoreRedis:
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		store = adapter.NewRedisCacheAdapter(redisClient)
	default:
		memoryStore = adapter.NewMemoryCacheAdapter()
		if err := memoryStore.StartSweeper(cfg.Session.SweepSchedule); err != nil {
			appLogger.Fatal("Failed to schedule session sweeper", zap.Error(err))
		}
		store = memoryStore
		appLogger.Info("Using in-memory session store", zap.String("sweep_schedule", cfg.Session.SweepSchedule))
	}

	sessions := repository.NewSessionRepository(store, cfg.Session.TTL)
	images := repository.NewImageRepository(store, cfg.Session.TTL)

	// OCR and quiz generation
	extractor := ocr.NewTesseractExtractor(cfg.OCR)

	completer, err := quizgen.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != config.ProviderOllama {
		appLogger.Warn("No API key configured; quiz generation will report an error",
			zap.String("provider", cfg.LLM.Provider))
	}
	generator := quizgen.NewLLMQuizGenerator(completer, cfg.LLM.Timeout)
	appLogger.Info("Quiz generator initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model))

	flow := service.NewQuizFlowService(sessions, images, extractor, service.NewQuizRequester(generator), cfg.Session.LoadingDelay)

	// Handlers
	pageHandler, err := handler.NewPageHandler(flow, cfg.OCR.MaxImageBytes)
	if err != nil {
		appLogger.Fatal("Failed to parse page templates", zap.Error(err))
	}
	handlers := handler.Handlers{
		Pages:   pageHandler,
		Session: handler.NewSessionHandler(flow, cfg.OCR.MaxImageBytes),
		Health:  handler.NewHealthHandler(store, cfg.Session.Store),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))
	app.Use(middleware.Session(cfg.Session.CookieName, cfg.Session.TTL))
	app.Use(middleware.RequestLogger())

	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, handlers)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := flow.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Quiz generation did not stop in time", zap.Error(err))
	}
	if memoryStore != nil {
		memoryStore.StopSweeper()
	}
	appLogger.Info("Server exited gracefully")
}
