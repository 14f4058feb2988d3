package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/collections/internal/audit"
	"github.com/mrlokans/collections/internal/config"
	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/database/associations"
	auditrepo "github.com/mrlokans/collections/internal/database/audit"
	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/database/companies"
	"github.com/mrlokans/collections/internal/database/transfers"
	http_controllers "github.com/mrlokans/collections/internal/http"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/scheduler"
	"github.com/mrlokans/collections/internal/tasks"
	"github.com/mrlokans/collections/internal/transfer"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired components shared by the server and CLI commands.
type App struct {
	DB           *database.Database
	Collections  *collections.Repository
	Associations *associations.Repository
	Companies    *companies.Repository
	Transfers    *transfers.Repository
	Tracker      *progress.Tracker
	Engine       *transfer.Engine
	Audit        *audit.Service
	AuditRepo    *auditrepo.Repository
	Logger       *log.Logger
}

// NewApp opens the database, makes sure the reserved collections exist and
// builds the transfer engine.
func NewApp(cfg *config.Config, logger *log.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if _, err := db.EnsureCollections(
		cfg.Collections.LikedName,
		cfg.Collections.MyListName,
		cfg.Collections.IgnoreName,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create reserved collections: %w", err)
	}

	collectionsRepo := collections.NewRepository(db.DB)
	tracker := progress.NewTracker(cfg.Progress.MaxEntries, cfg.Progress.TTL)
	auditRepo := auditrepo.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo, logger)

	engine := transfer.NewEngine(db.DB, collectionsRepo, tracker, transfer.Roles{
		Liked:  cfg.Collections.LikedName,
		MyList: cfg.Collections.MyListName,
		Ignore: cfg.Collections.IgnoreName,
	}, transfer.Options{
		MaxCompanyIDs: cfg.Transfers.MaxCompanyIDs,
		ItemAttempts:  cfg.Transfers.ItemAttempts,
		ItemBackoff:   cfg.Transfers.ItemBackoff,
	}, logger.WithPrefix("transfer"))
	engine.SetAuditor(auditService)

	return &App{
		DB:           db,
		Collections:  collectionsRepo,
		Associations: associations.NewRepository(db.DB),
		Companies:    companies.NewRepository(db.DB, cfg.Collections.LikedName),
		Transfers:    transfers.NewRepository(db.DB),
		Tracker:      tracker,
		Engine:       engine,
		Audit:        auditService,
		AuditRepo:    auditRepo,
		Logger:       logger,
	}, nil
}

// Close waits for pending audit writes and closes the database.
func (a *App) Close() error {
	a.Audit.Wait()
	return a.DB.Close()
}

// Serve runs srv until SIGINT or SIGTERM, then shuts it down gracefully.
func Serve(srv *http.Server, timeout time.Duration, logger *log.Logger, onShutdown ShutdownFunc) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Background work stops after the server stops accepting transfers.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Info("server exiting")
	return nil
}

// Run wires all components and serves the HTTP API until interrupted.
func Run(cfg *config.Config, version string, logger *log.Logger) error {
	logger.Info("starting collections service", "version", version)

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing database", "err", err)
		}
	}()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", "err", err)
			}
		}()

		taskClient.Register(
			tasks.NewTransferCompaniesQueue(app.Engine, logger.WithPrefix("tasks")),
			tasks.NewCleanupAuditEventsQueue(app.AuditRepo, logger.WithPrefix("tasks")),
		)

		go taskClient.Start(bgCtx)

		if cfg.Audit.RetentionDays > 0 && cfg.Audit.CleanupSchedule != "" {
			cleanup := scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, logger)
			if err := cleanup.Start(bgCtx); err != nil {
				logger.Warn("audit cleanup disabled", "err", err)
			}
		}
	} else {
		logger.Info("task queue disabled, transfers run inside requests")
	}

	if cfg.Transfers.ReaperEnabled {
		reaper := scheduler.NewTransferReaper(app.Transfers, app.Tracker, cfg.Transfers.StaleAfter, cfg.Transfers.ReaperSchedule, logger)
		if err := reaper.Start(bgCtx); err != nil {
			logger.Warn("transfer reaper disabled", "err", err)
		}
	}

	reserved := []string{cfg.Collections.LikedName, cfg.Collections.MyListName, cfg.Collections.IgnoreName}
	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:            app.DB,
		Collections:         app.Collections,
		Companies:           app.Companies,
		Associations:        app.Associations,
		ReservedCollections: reserved,
		Engine:              app.Engine,
		TransferRecords:     app.Transfers,
		Progress:            app.Tracker,
		TaskClient:          taskClient,
		Audit:               app.Audit,
		Logger:              logger.WithPrefix("http"),
		AllowedOrigins:      cfg.HTTP.AllowedOrigins,
		Version:             version,
	})

	srv := newServer(cfg, router)
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	return Serve(srv, timeout, logger, func(ctx context.Context) {
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
	})
}

func newServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
