package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestaoprojetos/workflow-system/internal/api"
	"github.com/gestaoprojetos/workflow-system/internal/api/handler"
	"github.com/gestaoprojetos/workflow-system/internal/core/service"
	mongodb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/mongo"
	redisdb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/redis"
	"github.com/gestaoprojetos/workflow-system/internal/infrastructure/queue"
	"github.com/gestaoprojetos/workflow-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	accounts := mongodb.NewAccountRepository(db)
	roles := mongodb.NewRoleRepository(db)
	projects := mongodb.NewProjectRepository(db)
	stages := mongodb.NewStageRepository(db)
	submissions := mongodb.NewChecklistSubmissionRepository(db)
	deliverables := mongodb.NewDeliverableRepository(db)
	notifications := mongodb.NewNotificationRepository(db)
	tx := mongodb.NewTransactor(client)

	revoker := redisdb.NewTokenRevoker(rdb)
	dedup := redisdb.NewDedupChecker(rdb)
	unread := redisdb.NewUnreadChannel(rdb, logger.Component("unread"))

	// --- Notifications and the workflow event dispatcher ---
	feed := service.NewFallbackFeed(
		unread,
		service.NewPollingFeed(notifications, cfg.Notification.PollInterval, logger.Component("poll")),
		logger.Component("feed"),
	)
	notificationService := service.NewNotificationService(
		notifications, stages, projects, dedup, unread, feed, logger.Component("notifications"),
	)
	dispatcher := queue.NewDispatcher(cfg.Workflow.DispatchWorkers, notificationService, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Core services ---
	authService := service.NewAuthService(accounts, roles, revoker, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	services := api.Services{
		Auth:          authService,
		Directory:     service.NewDirectoryService(accounts, roles, logger.Component("directory")),
		Involvement:   service.NewInvolvementService(projects, stages, cfg.Workflow.HydrationLimit, logger.Component("involvement")),
		Stages:        service.NewStageService(stages, submissions, deliverables, logger.Component("stages")),
		Checklist:     service.NewChecklistService(stages, submissions, tx, dispatcher, cfg.Workflow.AttachmentMaxBytes, logger.Component("checklist")),
		Deliverables:  service.NewDeliverableService(stages, deliverables, tx, dispatcher, cfg.Workflow.AttachmentMaxBytes, logger.Component("deliverables")),
		Notifications: notificationService,
	}

	checks := map[string]handler.DependencyCheck{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	e := api.NewRouter(services, checks, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
