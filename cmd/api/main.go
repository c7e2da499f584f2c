package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/thrivewell/wellness-platform/internal/analytics"
	"github.com/thrivewell/wellness-platform/internal/api/router"
	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/internal/auth"
	appconfig "github.com/thrivewell/wellness-platform/internal/config"
	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/notify"
	"github.com/thrivewell/wellness-platform/internal/observability/metrics"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting wellness-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	issuer, err := auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	sessions := auth.NewRedisSessionStore(redisClient)

	// Storage: Postgres when configured, in-memory otherwise. The in-memory
	// repositories are for local development only.
	var (
		apptRepo appointments.Repository
		empRepo  employees.Repository
		users    auth.UserStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		apptRepo = appointments.NewPostgresRepository(pool)
		empRepo = employees.NewPostgresRepository(pool)
		users = auth.NewPostgresUserStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		apptRepo = appointments.NewInMemoryRepository()
		empRepo = employees.NewInMemoryRepository()
		users = auth.NewInMemoryUserStore()
	}

	emailSender := buildEmailSender(ctx, cfg, logger)
	notifier := notify.NewService(emailSender, logger)

	reg := prometheus.NewRegistry()
	apptMetrics := metrics.NewAppointmentMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	authHandler := auth.NewHandler(users, issuer, sessions, logger)
	apptHandler := appointments.NewHandler(apptRepo, notifier, apptMetrics, logger)
	apptHandler.SetPageLimits(cfg.DefaultPerPage, cfg.MaxPerPage)
	empHandler := employees.NewHandler(empRepo, logger)
	empHandler.SetPageLimits(cfg.DefaultPerPage, cfg.MaxPerPage)
	analyticsHandler := analytics.NewHandler(analytics.NewService(apptRepo, empRepo), logger)
	notifyHandler := notify.NewNotificationHandler(emailSender, empRepo, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		AuthHandler:        authHandler,
		TokenIssuer:        issuer,
		Sessions:           sessions,
		AppointmentHandler: apptHandler,
		EmployeeHandler:    empHandler,
		AnalyticsHandler:   analyticsHandler,
		NotifyHandler:      notifyHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HTTPMetrics:        httpMetrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRatePerSecond: cfg.LoginRatePerSecond,
		LoginBurst:         cfg.LoginBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildEmailSender picks the notification transport from EMAIL_PROVIDER.
// Anything unconfigured falls back to the logging stub so notifications
// never block appointment flows.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY missing, using stub sender")
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("AWS config load failed, using stub sender", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
