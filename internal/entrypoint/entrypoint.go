// Package entrypoint wires configuration, storage, background work and the
// HTTP router into a running server.
package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/classifications"
	"github.com/mrlokans/librarian/internal/database/publishers"
	"github.com/mrlokans/librarian/internal/database/users"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/importer"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Services groups the stores and domain services built over one database.
type Services struct {
	Catalog  *catalog.Service
	Audit    *audit.Service
	Auth     *auth.Service
	Authors  *authors.Repository
	Importer *importer.Importer
}

// NewServices builds the catalog, audit, auth and import services.
func NewServices(db *database.Database, cfg *config.Config, logger *zap.Logger) *Services {
	bookRepo := books.NewRepository(db.DB)
	authorRepo := authors.NewRepository(db.DB)
	publisherRepo := publishers.NewRepository(db.DB)
	classificationRepo := classifications.NewRepository(db.DB)

	return &Services{
		Catalog: catalog.NewService(bookRepo, authorRepo, publisherRepo, classificationRepo),
		Audit:   audit.NewService(auditRepo.NewRepository(db.DB), logger),
		Auth:    auth.NewService(users.NewRepository(db.DB), cfg.Auth),
		Authors: authorRepo,
		Importer: importer.New(
			importer.NewGutendexClient(cfg.Import.BaseURL),
			bookRepo, authorRepo, publisherRepo, classificationRepo,
			logger,
		),
	}
}

func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight tasks finish first
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func Run(cfg *config.Config, version string, logger *zap.Logger) error {
	logger.Info("starting librarian", zap.String("version", version))

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", zap.Error(err))
		}
	}()

	services := NewServices(db, cfg, logger)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql db for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth, logger)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}
	defer sessionManager.Close()

	csrfSecret, err := csrfSecretFrom(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}
	if cfg.Auth.SessionSecret == "" {
		logger.Warn("generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	if hasUsers, _ := services.Auth.HasUsers(); !hasUsers {
		logger.Info("no users found, visit /setup to create an administrator account")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var importScheduler *scheduler.ImportScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskConfig(cfg.Tasks), logger)
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewImportBooksQueue(services.Importer, services.Audit, logger),
			tasks.NewCleanupAuditEventsQueue(services.Audit, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if _, err := taskClient.Add(tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}).Save(); err != nil {
			logger.Warn("enqueue audit cleanup", zap.Error(err))
		}

		importScheduler = scheduler.NewImportScheduler(scheduler.Config{
			Enabled:  cfg.Import.Enabled,
			Schedule: cfg.Import.Schedule,
			Term:     cfg.Import.DefaultTerm,
			Limit:    cfg.Import.DefaultLimit,
		}, taskClient, logger)
		if err := importScheduler.Start(taskCtx); err != nil {
			logger.Error("start import scheduler", zap.Error(err))
		}
	} else if cfg.Import.Enabled {
		logger.Warn("scheduled import requires TASKS_ENABLED, schedule ignored")
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:        services.Catalog,
		Database:       db,
		Audit:          services.Audit,
		AuthService:    services.Auth,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Importer:       services.Importer,
		ImportConfig:   cfg.Import,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
		Logger:         logger,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router, stopRouter := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		stopRouter()
		if importScheduler != nil {
			importScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}

// csrfSecretFrom decodes a hex session secret, falls back to its raw bytes
// and generates a fresh one when none is configured.
func csrfSecretFrom(sessionSecret string) ([]byte, error) {
	if sessionSecret == "" {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		return hex.DecodeString(secret)
	}
	if decoded, err := hex.DecodeString(sessionSecret); err == nil {
		return decoded, nil
	}
	return []byte(sessionSecret), nil
}

// taskConfig overlays the configured pool settings on the task defaults.
func taskConfig(cfg config.Tasks) tasks.Config {
	return tasks.Config{
		Workers:         cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
	}.WithDefaults()
}
