package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beauty-booking-api/config"
	httpdelivery "beauty-booking-api/internal/delivery/http"
	"beauty-booking-api/internal/delivery/http/handler"
	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/infrastructure/cache"
	"beauty-booking-api/internal/infrastructure/database"
	"beauty-booking-api/internal/jobs"
	"beauty-booking-api/internal/realtime"
	"beauty-booking-api/internal/repository"
	"beauty-booking-api/internal/service"
	"beauty-booking-api/internal/usecase"
	"beauty-booking-api/pkg/jwt"
	"beauty-booking-api/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds every long-lived component of the application so that
// startup and shutdown can be driven from one place.
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Hub         *realtime.Hub
	SlotHolds   *service.SlotHoldService
	JobRunner   *jobs.Runner
}

func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	app := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
	}

	if err := app.initializeServer(); err != nil {
		return nil, err
	}

	return app, nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if cfg.App.Env == "development" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func (a *App) initializeServer() error {
	// Repositories
	userRepo := repository.NewUserRepository(a.DB)
	roleRepo := repository.NewRoleRepository(a.DB)
	providerRepo := repository.NewProviderRepository(a.DB)
	serviceRepo := repository.NewServiceRepository(a.DB)
	availabilityRepo := repository.NewAvailabilityRepository(a.DB)
	timeOffRepo := repository.NewTimeOffRepository(a.DB)
	bookingRepo := repository.NewBookingRepository(a.DB)
	rescheduleRepo := repository.NewRescheduleRepository(a.DB)
	auditLogRepo := repository.NewAuditLogRepository(a.DB)

	// Services
	jwtService := jwt.NewJWTService(a.Config.JWT)
	auditService := service.NewAuditService(a.Log, auditLogRepo)

	a.Hub = realtime.NewHub(a.Log)
	go a.Hub.Run()

	notifier := service.NewLogNotifier(a.Log, a.Hub)
	a.SlotHolds = service.NewSlotHoldService(a.RedisClient, a.Log, a.Config.Booking.SlotHoldTTL)
	conflictService := service.NewConflictService(bookingRepo, timeOffRepo, a.Log)
	paymentGateway := service.NewPaymentGateway(a.Config.Payment.GatewayURL, a.Config.Payment.APIKey, a.Log)

	// Usecases
	authUsecase := usecase.NewAuthUsecase(a.DB, a.Log, userRepo, roleRepo, jwtService, a.RedisClient)
	availabilityUsecase := usecase.NewAvailabilityUsecase(a.Log, providerRepo, serviceRepo, availabilityRepo, conflictService, a.SlotHolds)
	bookingUsecase := usecase.NewBookingUsecase(a.Log, bookingRepo, providerRepo, serviceRepo, availabilityRepo, conflictService, a.SlotHolds, paymentGateway, notifier, auditService, decimal.NewFromFloat(a.Config.Booking.ServiceFeePercent))
	paymentUsecase := usecase.NewPaymentUsecase(a.Log, bookingRepo, a.SlotHolds, paymentGateway, notifier, auditService)
	rescheduleUsecase := usecase.NewRescheduleUsecase(a.Log, bookingRepo, rescheduleRepo, availabilityRepo, conflictService, notifier, auditService)
	serviceUsecase := usecase.NewServiceUsecase(a.Log, serviceRepo, providerRepo, auditService)
	scheduleUsecase := usecase.NewScheduleUsecase(a.Log, availabilityRepo, timeOffRepo, providerRepo, auditService)
	providerUsecase := usecase.NewProviderUsecase(a.Log, providerRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(a.Log, auditLogRepo)

	// Validator
	appValidator := validator.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authUsecase, appValidator, jwtService)
	providerHandler := handler.NewProviderHandler(providerUsecase, appValidator)
	serviceHandler := handler.NewServiceHandler(serviceUsecase, appValidator)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, availabilityUsecase, appValidator)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, rescheduleUsecase, appValidator)
	paymentHandler := handler.NewPaymentHandler(paymentUsecase, appValidator, a.Config.Payment.WebhookSecret)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	wsHandler := handler.NewWSHandler(a.Hub)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, a.RedisClient)
	corsMiddleware := middleware.NewCORSMiddleware(a.Config.App.CORSOrigin)

	appRouter := httpdelivery.NewRouter(
		authHandler,
		providerHandler,
		serviceHandler,
		scheduleHandler,
		bookingHandler,
		paymentHandler,
		auditLogHandler,
		wsHandler,
		authMiddleware,
		corsMiddleware,
	)

	// Background jobs
	a.JobRunner = jobs.NewRunner(a.Log,
		jobs.NewPaymentReminderJob(a.Log, bookingRepo, notifier, a.Config.Jobs.ReminderInterval),
		jobs.NewAutoCancelUnpaidJob(a.Log, bookingRepo, notifier, auditService, a.Config.Jobs.SweepInterval),
		jobs.NewAppointmentReminderJob(a.Log, bookingRepo, notifier, a.Config.Jobs.ReminderInterval),
		jobs.NewNoShowDetectionJob(a.Log, bookingRepo, providerRepo, notifier, auditService, a.Config.Jobs.SweepInterval),
		jobs.NewReviewReminderJob(a.Log, bookingRepo, notifier, a.Config.Jobs.ReminderInterval),
	)

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.Config.App.Port),
		Handler:      appRouter.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return nil
}

func (a *App) Run() error {
	a.JobRunner.Start()

	go func() {
		a.Log.Infof("server listening on %s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Log.Fatalf("server error: %v", err)
		}
	}()

	return a.waitForShutdown()
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Log.Info("shutting down server...")

	a.JobRunner.Stop()
	a.SlotHolds.Stop()
	a.Hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Close()
	a.Log.Info("server stopped")
	return nil
}

func (a *App) Close() {
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("close redis: %v", err)
		}
	}

	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("close database: %v", err)
			}
		}
	}
}
