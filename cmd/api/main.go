package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/L235/OversightBot/internal/api/http"
	"github.com/L235/OversightBot/internal/api/http/handlers"
	"github.com/L235/OversightBot/internal/auth"
	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/events"
	"github.com/L235/OversightBot/internal/observability"
	"github.com/L235/OversightBot/internal/persistence"
	"github.com/L235/OversightBot/internal/repository"
	"github.com/L235/OversightBot/internal/service"
	"github.com/L235/OversightBot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.NewSQLite(cfg.SQLite, logger)
	if err != nil {
		logger.Fatal("failed to open sqlite", zap.Error(err))
	}
	defer db.Close()

	if cfg.SQLite.RunMigrations {
		if err := persistence.ApplySchema(ctx, db.Handle(), logger); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	ticketRepo := repository.NewTicketRepository(db.Handle())
	reviewerRepo := repository.NewReviewerRepository(db.Handle())
	pingRepo := repository.NewPingRepository(db.Handle())

	dispatcher := events.NewInMemoryDispatcher()

	accessService := service.NewAccessService(cfg.Oversight, service.AccessDependencies{
		ReviewerRepo: reviewerRepo,
		PingRepo:     pingRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	limiter := service.NewRateLimiter(cfg.Oversight, ticketRepo)
	oversightService := service.NewOversightService(cfg.Oversight, service.OversightDependencies{
		TicketRepo: ticketRepo,
		Access:     accessService,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, pingRepo, redis, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	reminderWorker := worker.NewReminderWorker(cfg.Oversight, ticketRepo, notificationService, logger)
	go reminderWorker.Start(ctx)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, db, redis),
		Tickets:        handlers.NewTicketsHandler(oversightService),
		Reviewers:      handlers.NewReviewersHandler(accessService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
