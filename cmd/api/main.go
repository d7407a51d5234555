package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/mvura-console/internal/api/http"
	"github.com/spec-kit/mvura-console/internal/api/http/handlers"
	"github.com/spec-kit/mvura-console/internal/auth"
	"github.com/spec-kit/mvura-console/internal/config"
	"github.com/spec-kit/mvura-console/internal/events"
	"github.com/spec-kit/mvura-console/internal/observability"
	"github.com/spec-kit/mvura-console/internal/persistence"
	"github.com/spec-kit/mvura-console/internal/repository"
	"github.com/spec-kit/mvura-console/internal/service"
	"github.com/spec-kit/mvura-console/internal/worker"
	"github.com/spec-kit/mvura-console/pkg/util/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	validator := validation.New()
	dispatcher := events.NewInMemoryDispatcher()

	ticketRepo := repository.NewTicketRepository()
	clientRepo := repository.NewClientRepository()
	agentRepo := repository.NewAgentRepository(repository.DefaultAgents...)
	operatorRepo := repository.NewOperatorRepository()

	historyRepo := repository.NewMemoryTicketHistoryRepository()
	if pg.Enabled() {
		historyRepo = repository.NewTicketHistoryRepository(pg.Pool)
	}

	var sessionStore auth.SessionStore = auth.NewMemorySessionStore()
	if redis.Enabled() {
		sessionStore = auth.NewRedisSessionStore(redis.Client, logger)
	}

	if err := auth.BootstrapOperator(ctx, operatorRepo, cfg.Auth.OperatorEmail, cfg.Auth.OperatorName, cfg.Auth.OperatorPassword, cfg.Auth.BcryptCost); err != nil {
		logger.Fatal("failed to create operator", zap.Error(err))
	}
	gate := auth.NewSessionGate(operatorRepo, sessionStore, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()), logger)
	if err := gate.Init(ctx); err != nil {
		logger.Fatal("failed to start session gate", zap.Error(err))
	}
	defer gate.Teardown()

	agentService := service.NewAgentService(agentRepo, logger)
	if err := agentService.EnsureAgents(ctx, cfg.Seed.Agents); err != nil {
		logger.Fatal("failed to register agents", zap.Error(err))
	}
	clientService := service.NewClientService(clientRepo, ticketRepo, dispatcher, validator, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		ClientRepo:  clientRepo,
		AgentRepo:   agentRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Validator:   validator,
		Logger:      logger,
	})
	reportService := service.NewReportService(ticketRepo, agentRepo)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:    ticketRepo,
		AgentRepo:     agentRepo,
		TicketService: ticketService,
		Logger:        logger,
	})

	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification), logger)

	if cfg.Seed.Enabled {
		if err := service.SeedDemoData(ctx, clientService, ticketService, logger); err != nil {
			logger.Fatal("failed to load demo data", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:              handlers.NewAuthHandler(gate),
		Tickets:           handlers.NewTicketsHandler(ticketService, assignmentService),
		Clients:           handlers.NewClientsHandler(clientService),
		Agents:            handlers.NewAgentsHandler(agentService),
		Reports:           handlers.NewReportsHandler(reportService),
		SessionMiddleware: auth.NewSessionMiddleware(gate),
		Metrics:           metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
