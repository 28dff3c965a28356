package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/background"
	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/config"
	"github.com/bright-dela/alx-project-nexus/internal/database"
	"github.com/bright-dela/alx-project-nexus/internal/geo"
	"github.com/bright-dela/alx-project-nexus/internal/handlers"
	middlewareCustom "github.com/bright-dela/alx-project-nexus/internal/middleware"
	"github.com/bright-dela/alx-project-nexus/internal/repositories"
	"github.com/bright-dela/alx-project-nexus/internal/routes"
	"github.com/bright-dela/alx-project-nexus/internal/services"
	pkghttp "github.com/bright-dela/alx-project-nexus/pkg/http"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
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

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		database.SilenceMigrationLogs(logger)
		if err := db.Migrate(rootCtx); err != nil {
			return err
		}
	}

	// Cache backend for codes, counters, locks and the denylist
	store, closeStore, err := newCacheStore(rootCtx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var counter services.AttemptCounter = repositories.NewCacheAttemptCounter(store, cfg.Lockout.Duration)
	if cfg.Lockout.AtomicCounter {
		counter = repositories.NewAtomicAttemptCounter(store, cfg.Lockout.Duration)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	historyRepo := repositories.NewLoginHistoryRepository(db)
	claimRepo := repositories.NewSecurityClaimRepository(db)
	otpStore := repositories.NewOTPStore(store, cfg.OTP.TTL)
	lockStore := repositories.NewLockStore(store, cfg.Lockout.Duration)
	denylist := repositories.NewDenylistStore(store)

	// Outbound email
	transport, err := newMailTransport(rootCtx, cfg, logger)
	if err != nil {
		return err
	}
	emailService, err := services.NewEmailService(transport, services.EmailConfig{
		AppName: cfg.Email.AppName,
		OTPTTL:  cfg.OTP.TTL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	dispatcher := background.NewNotificationDispatcher(emailService, background.DispatcherConfig{
		Workers:        cfg.Notify.Workers,
		QueueSize:      cfg.Notify.QueueSize,
		MaxAttempts:    cfg.Notify.MaxAttempts,
		InitialBackoff: cfg.Notify.InitialBackoff,
		MaxBackoff:     cfg.Notify.MaxBackoff,
	}, logger)
	dispatcher.Start(rootCtx)

	// Initialize services
	auditLogger := pkglogger.NewAuditLogger(logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)
	geoClient := geo.NewClient(cfg.Geo.BaseURL, cfg.Geo.Timeout, logger)

	detector := services.NewAnomalyDetector(historyRepo, claimRepo, dispatcher, cfg.Geo.Window, logger, auditLogger)
	tracker := services.NewLoginTrackingService(
		historyRepo,
		claimRepo,
		userRepo,
		counter,
		lockStore,
		geoClient,
		detector,
		dispatcher,
		services.LoginTrackerConfig{MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts},
		logger,
		auditLogger,
	)
	otpService := services.NewOTPService(otpStore, logger)

	var verifiers []auth.IdentityVerifier
	if cfg.Google.ClientID != "" {
		verifiers = append(verifiers, auth.NewGoogleVerifier(cfg.Google.ClientID))
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	authService := services.NewAuthService(
		userRepo,
		otpService,
		tracker,
		tokenManager,
		denylist,
		dispatcher,
		verifiers,
		logger,
		auditLogger,
	)
	userService := services.NewUserService(userRepo, historyRepo, claimRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": db.HealthCheck,
		"cache":    store.Ping,
	})

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StripSlashes)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:   authHandler,
		UserHandler:   userHandler,
		HealthHandler: healthHandler,
		TokenManager:  tokenManager,
		Denylist:      denylist,
		Revocation:    auth.RevocationConfig{FailClosed: cfg.Auth.FailClosed},
		PublicLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.Server.RequestsPerMinute,
			IPConfig:          ipConfig,
		},
		UserLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: 5 * cfg.Server.RequestsPerMinute,
			IPConfig:          ipConfig,
		},
		Logger: logger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// in-flight requests may still have queued email, so stop the dispatcher last
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Warn("notification queue not fully drained",
			slog.Uint64("dropped", dispatcher.Dropped()),
			slog.Any("error", err))
	}

	return nil
}

// newCacheStore builds the configured cache backend. The returned func
// releases it on shutdown.
func newCacheStore(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.CounterStore, func(), error) {
	if cfg.Backend == "memory" {
		store := cache.NewMemoryStore(cfg.KeyPrefix)
		cleanup := background.NewCleanupManager(store, logger, cfg.SweepInterval)
		go cleanup.Start(ctx)

		logger.Warn("using in-process cache; lockouts and revocations are not shared between instances")
		return store, cleanup.Stop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis connection established", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))
	return cache.NewRedisStore(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
}

func newMailTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.MailTransport, error) {
	switch cfg.Email.Provider {
	case "ses":
		t, err := services.NewSESTransport(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES transport: %w", err)
		}
		return t, nil
	case "smtp":
		return services.NewSMTPTransport(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUsername,
			cfg.Email.SMTPPassword,
			cfg.Email.FromAddress,
		), nil
	default:
		logger.Warn("EMAIL_PROVIDER=log, emails are written to the log instead of being sent")
		return services.NewLogTransport(logger, cfg.Server.Env), nil
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
