package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/config"
	"github.com/noah-isme/backoffice-api/internal/database"
	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/handler"
	"github.com/noah-isme/backoffice-api/internal/middleware"
	"github.com/noah-isme/backoffice-api/internal/observability"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/router"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/pkg/crm"
	"github.com/noah-isme/backoffice-api/pkg/taskqueue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	format.SetLogger(logger)
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		migrator, err := database.NewMigrator(db, logger)
		if err != nil {
			log.Fatalf("failed to prepare migrations: %v", err)
		}
		if err := migrator.Up(context.Background()); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	queue, err := taskqueue.New(redisClient, cfg.TaskQueueName, logger)
	if err != nil {
		log.Fatalf("failed to create task queue: %v", err)
	}

	natsConn, err := crm.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	var crmPublisher service.CRMPublisher
	if natsConn != nil {
		defer natsConn.Close()
		crmPublisher = crm.NewPublisher(natsConn, cfg.CRMSubject, logger)
	} else {
		logger.Warn().Msg("nats url not configured, crm sync disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	limits := pagination.Limits{Default: cfg.DefaultPerPage, Max: cfg.MaxPerPage}

	offererRepo := repository.NewOffererRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	incidentRepo := repository.NewFinanceIncidentRepository(db)
	batchRepo := repository.NewCashflowBatchRepository(db)
	reimbursementRuleRepo := repository.NewCustomReimbursementRuleRepository(db)
	ruleRepo := repository.NewOfferValidationRuleRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	actionRepo := repository.NewActionHistoryRepository(db)

	offererService := service.NewOffererService(offererRepo, crmPublisher, validate, limits, 0, logger)
	venueService := service.NewVenueService(venueRepo, validate, limits, 0, logger)
	publicAccountService := service.NewUserService(userRepo, crmPublisher, validate, limits, service.PublicAccounts, logger)
	backofficeUserService := service.NewUserService(userRepo, nil, validate, limits, service.BackofficeUsers, logger)
	bookingService := service.NewBookingService(bookingRepo, validate, cfg.SearchResultCap, logger)
	financeService := service.NewFinanceService(incidentRepo, bookingRepo, batchRepo, actionRepo, queue, validate, limits, logger)
	reimbursementRuleService := service.NewReimbursementRuleService(reimbursementRuleRepo, validate, limits, logger)
	ruleService := service.NewOfferValidationRuleService(ruleRepo, offerRepo, validate, limits, logger)
	providerService := service.NewProviderService(providerRepo, validate, limits, logger)
	actionHistoryService := service.NewActionHistoryService(actionRepo, limits, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		OffererHandler:             handler.NewOffererHandler(offererService, validate, logger),
		VenueHandler:               handler.NewVenueHandler(venueService, logger),
		PublicAccountHandler:       handler.NewPublicAccountHandler(publicAccountService, logger),
		BackofficeUserHandler:      handler.NewBackofficeUserHandler(backofficeUserService, logger),
		BookingHandler:             handler.NewBookingHandler(bookingService, logger),
		FinanceHandler:             handler.NewFinanceHandler(financeService, reimbursementRuleService, logger),
		OfferValidationRuleHandler: handler.NewOfferValidationRuleHandler(ruleService, logger),
		ProviderHandler:            handler.NewProviderHandler(providerService, logger),
		ActionHistoryHandler:       handler.NewActionHistoryHandler(actionHistoryService, logger),
		AutocompleteHandler:        handler.NewAutocompleteHandler(offererService, venueService, logger),
		HealthChecks: map[string]func(context.Context) error{
			"postgres": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
