// Package main provides the main entry point for the card application service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/appform-bd/cardapply/app/handlers"
	"github.com/appform-bd/cardapply/app/middleware"
	"github.com/appform-bd/cardapply/app/router"
	"github.com/appform-bd/cardapply/app/scheduler"
	"github.com/appform-bd/cardapply/app/services"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/appform-bd/cardapply/config"
	_ "github.com/appform-bd/cardapply/docs"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting card application service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a rotated file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		log.Printf("Failed to create log directory, keeping stdout: %v", err)
		return
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	default: // both
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// migrateDatabase keeps the schema aligned with the domain models
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CardApplication{},
		&models.ApplicationStepRecord{},
		&models.ApplicantSession{},
		&models.OTPVerification{},
		&models.CardProduct{},
		&models.StaffUser{},
		&models.AuditLog{},
	)
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService initializes the notification service
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	var smsProvider services.SMSProvider

	switch cfg.SMS.ProviderDomain {
	case "mock", "":
		smsProvider = services.NewMockSMSProvider()
	default:
		smsProvider = services.NewGatewaySMSProvider(services.NewSMSService(&cfg.SMS))
	}

	return services.NewNotificationService(smsProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := migrateDatabase(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, fmt.Errorf("redis cache is required for draft snapshots and OTP throttling")
	}

	cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
	stopFuncs = append(stopFuncs, cancel)

	// Initialize repositories
	applicationRepo := repository.NewCardApplicationRepository(db)
	stepRepo := repository.NewApplicationStepRepository(db)
	sessionRepo := repository.NewApplicantSessionRepository(db)
	otpRepo := repository.NewOTPVerificationRepository(db)
	productRepo := repository.NewCardProductRepository(db)
	staffRepo := repository.NewStaffUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	snapshotRepo := repository.NewDraftSnapshotRepository(rc, cfg.Wizard.SnapshotTTL)
	otpRateLimiter := repository.NewOTPRateLimiter(rc, cfg.Wizard.OTPMaxSends, cfg.Wizard.OTPSendWindow, cfg.Wizard.OTPResendCooldown, cfg.Wizard.OTPLockDuration)

	// Initialize services
	notificationService := initializeNotificationService(cfg)

	captchaService, err := services.NewCaptchaServiceRotate(cfg.Staff.CaptchaTTL, cfg.Staff.CaptchaPadding, cfg.Staff.CaptchaImageSize)
	if err != nil {
		return nil, err
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	stepValidator := businessflow.NewStepValidator()

	// Initialize flows
	sessionFlow := businessflow.NewSessionFlow(
		applicationRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		cfg.Security.SessionTimeout,
		db,
	)

	draftFlow := businessflow.NewDraftFlow(
		applicationRepo,
		stepRepo,
		sessionRepo,
		auditRepo,
		snapshotRepo,
		productRepo,
		stepValidator,
		db,
	)

	wizardFlow := businessflow.NewWizardFlow(
		applicationRepo,
		stepRepo,
		snapshotRepo,
		stepValidator,
		db,
	)

	otpFlow := businessflow.NewOTPFlow(
		applicationRepo,
		otpRepo,
		sessionRepo,
		auditRepo,
		otpRateLimiter,
		notificationService,
		cfg.Wizard.OTPExpiry,
		db,
	)

	submissionFlow := businessflow.NewSubmissionFlow(
		applicationRepo,
		stepRepo,
		auditRepo,
		snapshotRepo,
		stepValidator,
		notificationService,
		db,
	)

	cardProductFlow := businessflow.NewCardProductFlow(productRepo, rc, cfg.Cache.DefaultTTL)

	staffAuthFlow := businessflow.NewStaffAuthFlow(
		staffRepo,
		auditRepo,
		tokenService,
		captchaService,
		db,
	)

	reviewFlow := businessflow.NewReviewFlow(
		applicationRepo,
		stepRepo,
		auditRepo,
		stepValidator,
		notificationService,
		db,
	)

	// Seed reference data
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	if err := cardProductFlow.SeedDefaultProducts(bootCtx); err != nil {
		return nil, fmt.Errorf("failed to seed card products: %w", err)
	}
	if cfg.Staff.BootstrapUsername != "" && cfg.Staff.BootstrapPassword != "" {
		if err := staffAuthFlow.EnsureBootstrapSupervisor(bootCtx, cfg.Staff.BootstrapUsername, cfg.Staff.BootstrapPassword, cfg.Staff.BootstrapFullName); err != nil {
			return nil, fmt.Errorf("failed to ensure bootstrap supervisor: %w", err)
		}
	}

	// Initialize handlers
	handlerSet := router.Handlers{
		Session:     handlers.NewApplicationSessionHandler(sessionFlow, wizardFlow),
		Draft:       handlers.NewDraftHandler(draftFlow),
		Wizard:      handlers.NewWizardHandler(wizardFlow),
		OTP:         handlers.NewOTPHandler(otpFlow),
		Submission:  handlers.NewSubmissionHandler(submissionFlow),
		CardProduct: handlers.NewCardProductHandler(cardProductFlow),
		StaffAuth:   handlers.NewStaffAuthHandler(staffAuthFlow),
		Review:      handlers.NewReviewHandler(reviewFlow),
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessionFlow, staffAuthFlow)

	// Initialize router
	appRouter := router.NewFiberRouter(cfg, handlerSet, authMiddleware)

	// Start cleanup scheduler for expired sessions and stale drafts
	cleanup := scheduler.NewCleanupScheduler(
		applicationRepo,
		stepRepo,
		sessionRepo,
		snapshotRepo,
		auditRepo,
		db,
		cfg.Wizard,
	)
	stopFuncs = append(stopFuncs, cleanup.Start(context.Background()))

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
