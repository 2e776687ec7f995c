package app

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/handlers"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/provider"
	"github.com/ternarybob/colligo/internal/services/data"
	"github.com/ternarybob/colligo/internal/services/refresh"
	"github.com/ternarybob/colligo/internal/storage/badger"
	"github.com/ternarybob/colligo/internal/tasks"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Registry    *catalog.Registry
	Provider    *provider.Client
	TaskManager *tasks.Manager

	DataService    *data.Service
	RefreshService *refresh.Service
	Scheduler      *refresh.Scheduler

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	CollectionHandler *handlers.CollectionHandler
	RefreshHandler    *handlers.RefreshHandler
	SchedulerHandler  *handlers.SchedulerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	registry, err := catalog.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build collection catalog: %w", err)
	}
	app.Registry = registry

	app.Provider = provider.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		provider.WithLogger(logger),
		provider.WithTimeout(cfg.Provider.RequestTimeout),
		provider.WithRateLimit(cfg.Provider.RateLimit),
	)

	app.TaskManager = tasks.NewManager(logger)
	app.TaskManager.StartSweeper(cfg.TaskSweepInterval(), cfg.TaskTTL())

	app.DataService = data.NewService(storageManager.RecordStorage(), logger)
	app.RefreshService = refresh.NewService(registry, app.Provider, app.DataService, app.TaskManager, logger, cfg.Refresh.Concurrency)

	if cfg.Refresh.Enabled {
		if err := common.ValidateRefreshSchedule(cfg.Refresh.Schedule); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule: %w", err)
		}

		app.Scheduler = refresh.NewScheduler(app.RefreshService, cfg.Refresh.Collections, logger)
		if err := app.Scheduler.Start(cfg.Refresh.Schedule); err != nil {
			return nil, fmt.Errorf("failed to start refresh scheduler: %w", err)
		}
	}

	app.APIHandler = handlers.NewAPIHandler(cfg.Environment, registry, app.DataService, app.TaskManager, logger)
	app.CollectionHandler = handlers.NewCollectionHandler(registry, app.DataService, logger)
	app.RefreshHandler = handlers.NewRefreshHandler(registry, app.RefreshService, app.TaskManager, logger)
	app.SchedulerHandler = handlers.NewSchedulerHandler(app.Scheduler, logger)

	logger.Info().
		Int("collections", len(registry.List())).
		Str("domains", strings.Join(registry.Domains(), ",")).
		Msg("Application initialized")

	return app, nil
}

// Close shuts down application components in reverse dependency order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
		a.Logger.Info().Msg("Refresh scheduler stopped")
	}

	if a.TaskManager != nil {
		a.TaskManager.Stop()
		a.Logger.Info().Msg("Task sweeper stopped")
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
