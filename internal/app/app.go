package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"focusbridge/internal/bridge"
	"focusbridge/internal/config"
	"focusbridge/internal/database"
	"focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/labels"
	"focusbridge/internal/platform"
	"focusbridge/internal/platform/adb"
	"focusbridge/internal/repository"
	"focusbridge/internal/types"
)

const (
	storeStartupTimeout  = 10 * time.Second
	storeShutdownTimeout = 5 * time.Second
)

// App struct represents the shell-bound application
type App struct {
	ctx       context.Context
	config    *config.Config
	bridge    *bridge.UsageBridge
	dbService database.Service
	logger    logging.Logger

	mu    sync.RWMutex
	store repository.BlockedAppRepository
}

// NewApp creates the application over an explicit platform service.
// The store is opened in Startup.
func NewApp(cfg *config.Config, service platform.UsageService, logger logging.Logger) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewLeveledLogger(logging.ParseLevel(cfg.LogLevel))
	}

	opts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithForegroundWindow(cfg.ForegroundWindow),
	}
	if cfg.Labels.Enabled {
		opts = append(opts, bridge.WithLabelResolver(
			labels.NewPlayStoreResolver(cfg.Labels.BaseURL, cfg.Labels.Timeout, logger)))
	}

	return &App{
		ctx:       context.Background(),
		config:    cfg,
		bridge:    bridge.New(service, opts...),
		dbService: database.NewSQLiteService(logger),
		logger:    logger,
	}
}

// NewADBApp creates the application backed by a device reached through adb
func NewADBApp(cfg *config.Config) (*App, error) {
	logger := logging.NewLeveledLogger(logging.ParseLevel(cfg.LogLevel))

	service, err := adb.New(adb.Config{
		ADBPath:        cfg.ADB.Path,
		Serial:         cfg.ADB.Serial,
		PackageName:    cfg.PackageName,
		CommandTimeout: cfg.ADB.CommandTimeout,
	}, adb.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create adb service: %w", err)
	}

	return NewApp(cfg, service, logger), nil
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.initializeStore(ctx); err != nil {
		// Bridge operations keep working without persistence
		logging.LogError(a.logger, err, "startup", map[string]interface{}{
			"db_path": a.config.Store.Path,
		})
		a.logger.Warn("Continuing without blocked-app persistence")
		return
	}

	a.logger.Info("Application started", "environment", a.config.Environment)
}

// initializeStore connects, migrates and health-checks the blocked-app store
func (a *App) initializeStore(ctx context.Context) error {
	startupCtx, cancel := context.WithTimeout(ctx, storeStartupTimeout)
	defer cancel()

	dbConfig := database.ConfigFromStore(a.config.Store)
	if err := a.dbService.Connect(startupCtx, dbConfig); err != nil {
		return err
	}

	if err := a.dbService.Migrate(startupCtx); err != nil {
		a.dbService.Close()
		return err
	}

	if err := a.dbService.Health(startupCtx); err != nil {
		a.dbService.Close()
		return errors.NewStoreErrorWithContext("startup", err, errors.ClassifyError(err), map[string]string{
			"operation": "health_check",
		})
	}

	a.mu.Lock()
	a.store = repository.NewSQLiteRepository(a.dbService, a.logger)
	a.mu.Unlock()
	return nil
}

// DomReady is called after front-end resources have been loaded
func (a *App) DomReady(ctx context.Context) {}

// BeforeClose is called when the application is about to quit
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown is called at application termination
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	a.store = nil
	a.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logging.LogError(a.logger, errors.WrapDatabaseError("shutdown", err), "shutdown", nil)
			return
		}
	case <-time.After(storeShutdownTimeout):
		a.logger.Warn("Store close timed out", "timeout", storeShutdownTimeout.String())
		return
	}

	a.logger.Info("Application shutdown completed")
}

// HasUsageStatsPermission reports whether usage access is granted
func (a *App) HasUsageStatsPermission() (bool, error) {
	return a.bridge.HasUsagePermission(a.ctx)
}

// RequestUsageStatsPermission opens the usage-access settings screen
func (a *App) RequestUsageStatsPermission() {
	a.bridge.RequestUsagePermission(a.ctx)
}

// GetInstalledApps returns the user-installed applications
func (a *App) GetInstalledApps() ([]bridge.AppDescriptor, error) {
	return a.bridge.ListInstalledApps(a.ctx)
}

// IsAppRunning reports whether packageName is the foreground app
func (a *App) IsAppRunning(packageName string) (bool, error) {
	return a.bridge.IsAppInForeground(a.ctx, packageName)
}

// GetCurrentApp returns the foreground package, or nil when none was observed
func (a *App) GetCurrentApp() (*string, error) {
	pkg, ok, err := a.bridge.CurrentForegroundApp(a.ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &pkg, nil
}

// GetBlockedApps returns the persisted blocked-app selection
func (a *App) GetBlockedApps() ([]types.BlockedApp, error) {
	store, err := a.blockedStore("GetBlockedApps")
	if err != nil {
		return nil, err
	}
	return store.List(a.ctx)
}

// SetBlockedApps replaces the blocked-app selection
func (a *App) SetBlockedApps(packageNames []string) error {
	store, err := a.blockedStore("SetBlockedApps")
	if err != nil {
		return err
	}
	return store.Replace(a.ctx, packageNames)
}

// GetRunningBlockedApp returns the foreground app when it is blocked,
// or nil otherwise
func (a *App) GetRunningBlockedApp() (*string, error) {
	store, err := a.blockedStore("GetRunningBlockedApp")
	if err != nil {
		return nil, err
	}

	blocked, err := store.List(a.ctx)
	if err != nil {
		return nil, err
	}

	pkg, ok, err := a.bridge.BlockedAppInForeground(a.ctx, types.PackageNames(blocked))
	if err != nil || !ok {
		return nil, err
	}
	return &pkg, nil
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}

// FormatError shapes errors returned by bound methods before they reach the
// shell. Bridge failures marshal as {"code": TAG, "message": msg}; anything
// else is passed as its text.
func FormatError(err error) any {
	var bridgeErr *errors.BridgeError
	if stderrors.As(err, &bridgeErr) {
		return bridgeErr
	}
	return err.Error()
}

func (a *App) blockedStore(op string) (repository.BlockedAppRepository, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.store == nil {
		return nil, errors.HandleConnectionError(op, "blocked-app store unavailable")
	}
	return a.store, nil
}
