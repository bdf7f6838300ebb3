package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sigetic/helpdesk/internal/api/http"
	"github.com/sigetic/helpdesk/internal/api/http/handlers"
	"github.com/sigetic/helpdesk/internal/auth"
	"github.com/sigetic/helpdesk/internal/config"
	"github.com/sigetic/helpdesk/internal/email"
	"github.com/sigetic/helpdesk/internal/events"
	"github.com/sigetic/helpdesk/internal/observability"
	"github.com/sigetic/helpdesk/internal/persistence"
	"github.com/sigetic/helpdesk/internal/repository"
	"github.com/sigetic/helpdesk/internal/service"
	"github.com/sigetic/helpdesk/internal/storage"
	"github.com/sigetic/helpdesk/internal/telegram"
	"github.com/sigetic/helpdesk/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	imageRepo := repository.NewTicketImageRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	siteRepo := repository.NewSiteRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)

	imageStore := storage.NewLocalImageStore(cfg.Media.Root, cfg.Media.BaseURL)
	dispatcher := events.NewInMemoryDispatcher(logger)
	location := cfg.App.Location()

	notificationDeps := service.NotificationDependencies{
		Dispatcher: dispatcher,
		TicketRepo: ticketRepo,
		SiteRepo:   siteRepo,
		UserRepo:   userRepo,
		Location:   location,
		Logger:     logger.Named("notifications"),
	}
	if cfg.Telegram.Enabled() {
		notificationDeps.Sender = telegram.NewClient(cfg.Telegram)
	}
	if cfg.SMTP.Enabled() {
		notificationDeps.Mailer = email.NewMailer(cfg.SMTP)
	}
	worker.StartNotificationWorker(service.NewNotificationService(notificationDeps), logger)

	directory := service.NewDirectoryService(userRepo, redis.Handle(), cfg.Redis.DirectoryTTL(), logger)
	directory.Invalidate(ctx)

	authService := service.NewAuthService(cfg.Auth, userRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		ImageRepo:      imageRepo,
		CategoryRepo:   categoryRepo,
		SiteRepo:       siteRepo,
		DepartmentRepo: departmentRepo,
		ImageStore:     imageStore,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	queryService := service.NewQueryService(service.QueryDependencies{
		TicketRepo: ticketRepo,
		Directory:  directory,
		Location:   location,
		Logger:     logger,
	})
	referenceService := service.NewReferenceService(categoryRepo, departmentRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, queryService, assignmentService),
		Admin:          handlers.NewAdminTicketsHandler(queryService, assignmentService, directory),
		Reference:      handlers.NewReferenceHandler(referenceService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		MediaPrefix:    cfg.Media.BaseURL,
		MediaRoot:      cfg.Media.Root,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
