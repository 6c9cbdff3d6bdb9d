package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/background"
	"github.com/adiwijaya/rukun/internal/cache"
	"github.com/adiwijaya/rukun/internal/config"
	"github.com/adiwijaya/rukun/internal/database"
	"github.com/adiwijaya/rukun/internal/handlers"
	middlewareCustom "github.com/adiwijaya/rukun/internal/middleware"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/adiwijaya/rukun/internal/repositories"
	"github.com/adiwijaya/rukun/internal/routes"
	"github.com/adiwijaya/rukun/internal/services"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkghttp "github.com/adiwijaya/rukun/pkg/http"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Redis for the ephemeral stores
	rdb, err := cache.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)

	// Ephemeral stores
	otpStore := cache.NewOTPStore(rdb)
	pendingStore := cache.NewPendingStore(rdb)
	resetStore := cache.NewResetStore(rdb)
	resendThrottle := cache.NewResendThrottle(rdb, cfg.OTP.ResendMax, cfg.OTP.ResendWindow)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(refreshRepo, logger, cfg.Auth.CleanupInterval)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.ResetTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   200,
		RandomDelayMs: 100,
	})

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(
		userRepo, refreshRepo, tokenManager, timingDelay, logger, auditLogger,
		cfg.Auth.MaxFailedLogins, cfg.Auth.LockoutDuration,
		cfg.Auth.RefreshTokenExpiry, cfg.Auth.AccessTokenExpiry,
	)
	registrationService := services.NewRegistrationService(
		userRepo, pendingStore, otpStore, resendThrottle, emailService,
		logger, auditLogger, cfg.OTP.TTL, cfg.OTP.PendingGrace,
	)
	resetService := services.NewResetService(
		userRepo, refreshRepo, otpStore, resetStore, resendThrottle,
		tokenManager, emailService, logger, auditLogger,
		cfg.OTP.TTL, cfg.Auth.ResetTokenExpiry,
	)
	adminService := services.NewAdminService(userRepo, roleRepo, logger, auditLogger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{}
	cookieConfig := auth.CookieConfig{Secure: cfg.Auth.SecureCookies}
	refreshMaxAge := int(cfg.Auth.RefreshTokenExpiry.Seconds())

	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieConfig, refreshMaxAge)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	resetHandler := handlers.NewResetHandler(resetService)
	adminHandler := handlers.NewAdminHandler(adminService)
	healthHandler := handlers.NewHealthHandler(db, rdb)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router,
		authHandler, registrationHandler, resetHandler, adminHandler, healthHandler,
		tokenManager, roleRepo,
	)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &models.User{
		Email:             adminEmail,
		PasswordHash:      hashedPassword,
		Name:              "Admin",
		Role:              models.RoleAdmin,
		Status:            models.StatusActive,
		EmailVerified:     true,
		PasswordChangedAt: &now,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
