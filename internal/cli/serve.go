package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"luminoso-backend/docs"
	"luminoso-backend/internal/config"
	"luminoso-backend/internal/database"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/handlers"
	"luminoso-backend/internal/logger"
	"luminoso-backend/internal/middleware"
	"luminoso-backend/internal/server"
	"luminoso-backend/internal/services"
	"luminoso-backend/internal/supabase"
	"luminoso-backend/internal/worker"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		skip, _ := cmd.Flags().GetBool("skip-migrations")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, !skip)
	},
}

func newMailer(cfg *config.Config) email.Sender {
	if cfg.EmailProvider == "smtp" {
		return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return email.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey)
}

func configureDocs(baseURL string) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.New(cfg.Environment, cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	configureDocs(cfg.BaseURL)

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.NewMigratorFromDB(db.DB(), log).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations completed successfully")
	}

	rest, err := supabase.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize supabase client: %w", err)
	}
	galleryBucket, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.GalleryBucket)
	if err != nil {
		return err
	}
	ordersBucket, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.OrdersBucket)
	if err != nil {
		return err
	}
	realtime := supabase.NewRealtimeClient()

	notifications := services.NewNotificationService(
		newMailer(cfg),
		rest,
		db,
		fcm.NewClient(cfg.FCMEndpoint, cfg.FCMServerKey),
		services.NotificationConfig{From: cfg.EmailFrom, To: cfg.EmailTo, PushIcon: cfg.PushIcon},
		log.WithField("component", "notifications"),
	)

	dispatcher := worker.NewDispatcher(db, notifications, worker.Config{
		Schedule:    cfg.OutboxSchedule,
		BatchSize:   cfg.OutboxBatchSize,
		MaxAttempts: cfg.OutboxMaxAttempts,
		BaseBackoff: cfg.OutboxBaseBackoff,
		MaxBackoff:  cfg.OutboxMaxBackoff,
	}, log.WithField("component", "outbox"))

	gallery := services.NewGalleryService(db, galleryBucket, realtime, log.WithField("component", "gallery"))
	orders := services.NewOrderService(db, ordersBucket, realtime, dispatcher, log.WithField("component", "orders"))
	pushSvc := services.NewPushService(db, realtime, log.WithField("component", "push"))
	auth := services.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminJWTSecret, cfg.AdminTokenTTL)

	limiter := middleware.NewRateLimiter(cfg.OrderRateLimit, cfg.OrderRateBurst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	router := server.NewRouter(cfg, server.Handlers{
		Health:    handlers.NewHealthHandler(db.DB()),
		Auth:      handlers.NewAuthHandler(auth, pushSvc),
		Gallery:   handlers.NewGalleryHandler(gallery),
		Orders:    handlers.NewOrdersHandler(orders),
		Push:      handlers.NewPushHandler(pushSvc),
		Events:    handlers.NewEventsHandler(realtime, 0),
		Functions: handlers.NewFunctionsHandler(notifications),
	}, limiter, log)

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}
	defer dispatcher.Stop()
	// Deliver anything left pending by a previous run.
	dispatcher.Kick()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return shutdownServer(shutdownCtx, srv, log)
}

func shutdownServer(ctx context.Context, srv *http.Server, log logrus.FieldLogger) error {
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		return err
	}
	log.Info("server stopped")
	return nil
}
