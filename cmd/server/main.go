package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/agency-hub/agency-hub/internal/api/http"
	"github.com/agency-hub/agency-hub/internal/application/approval"
	"github.com/agency-hub/agency-hub/internal/application/audit"
	"github.com/agency-hub/agency-hub/internal/application/auth"
	"github.com/agency-hub/agency-hub/internal/application/inbox"
	"github.com/agency-hub/agency-hub/internal/application/notification"
	"github.com/agency-hub/agency-hub/internal/application/project"
	"github.com/agency-hub/agency-hub/internal/application/task"
	"github.com/agency-hub/agency-hub/internal/application/user"
	"github.com/agency-hub/agency-hub/internal/application/workflow"
	"github.com/agency-hub/agency-hub/internal/config"
	"github.com/agency-hub/agency-hub/internal/infrastructure/postgres"
	"github.com/agency-hub/agency-hub/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	workflowRepo := postgres.NewWorkflowRepository(pool)
	approvalRepo := postgres.NewApprovalRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()

	// services
	auditSvc := audit.NewService(auditRepo, logger, loadHexKey(cfg.AuditSigningKey))
	notificationSvc := notification.NewService(notificationRepo, userRepo, sseHub, logger)
	userSvc := user.NewService(userRepo, logger)
	authSvc := auth.NewService(userRepo, sessionRepo, cfg.SessionTTL, logger)
	projectSvc := project.NewService(projectRepo, userRepo, auditSvc, logger)
	taskSvc := task.NewService(taskRepo, projectRepo, auditSvc, logger)
	workflowSvc := workflow.NewService(workflowRepo, auditSvc, logger)
	approvalSvc := approval.NewService(approvalRepo, taskRepo, projectRepo, userRepo, workflowSvc, auditSvc, notificationSvc, logger)
	inboxSvc := inbox.NewService(approvalRepo, taskRepo, logger)

	// API server
	apiServer := httpapi.NewServer(
		workflowSvc, taskSvc, projectSvc, approvalSvc, inboxSvc,
		notificationSvc, auditSvc, authSvc, userSvc,
		sseHub, cfg.SessionCookieName, cfg.SessionCookieSecure,
	)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = notificationSvc.ProcessPending(context.Background(), 50)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()
		for range ticker.C {
			sent, err := approvalSvc.SendPendingReminders(context.Background(), cfg.ReminderAge, cfg.ReminderBatchSize)
			if err != nil {
				logger.Error().Err(err).Msg("approval reminder sweep failed")
				continue
			}
			if sent > 0 {
				logger.Info().Int("sent", sent).Msg("approval reminders sent")
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = authSvc.SweepExpired(context.Background())
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}

func loadHexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}
