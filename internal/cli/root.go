// Package cli implements the focusbridge command line over the same bridge
// and blocked-app store the desktop shell uses.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focusbridge/internal/bridge"
	"focusbridge/internal/config"
	"focusbridge/internal/database"
	"focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/labels"
	"focusbridge/internal/platform"
	"focusbridge/internal/platform/adb"
	"focusbridge/internal/repository"
)

// ServiceFactory builds the platform service commands talk to
type ServiceFactory func(cfg *config.Config, logger logging.Logger) (platform.UsageService, error)

// ADBServiceFactory reaches the device through the adb binary
func ADBServiceFactory(cfg *config.Config, logger logging.Logger) (platform.UsageService, error) {
	return adb.New(adb.Config{
		ADBPath:        cfg.ADB.Path,
		Serial:         cfg.ADB.Serial,
		PackageName:    cfg.PackageName,
		CommandTimeout: cfg.ADB.CommandTimeout,
	}, adb.WithLogger(logger))
}

type rootOptions struct {
	environment string
	serial      string
	adbPath     string
	packageName string
	dbPath      string
	verbose     bool

	newService ServiceFactory
}

// NewRootCmd creates the command tree. newService is called once per
// command invocation.
func NewRootCmd(newService ServiceFactory) *cobra.Command {
	if newService == nil {
		newService = ADBServiceFactory
	}
	opts := &rootOptions{newService: newService}

	root := &cobra.Command{
		Use:   "focusbridge",
		Short: "Query usage access and the foreground app on an Android device",
		Long: `focusbridge reads usage-access state, installed apps and the current
foreground app from an Android device reached through adb, and manages the
list of apps blocked during focus sessions.

Examples:
  # Check whether usage access is granted
  focusbridge permission

  # Show the app currently in the foreground
  focusbridge current

  # Block two apps and check whether one of them is open
  focusbridge blocked set com.instagram.android com.twitter.android
  focusbridge blocked check`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SuggestionsMinimumDistance = 2

	flags := root.PersistentFlags()
	flags.StringVar(&opts.environment, "env", envOrDefault(config.EnvPrefix+"ENV", "production"), "configuration environment")
	flags.StringVarP(&opts.serial, "serial", "s", "", "device serial (default: the only attached device)")
	flags.StringVar(&opts.adbPath, "adb", "", "path to the adb binary")
	flags.StringVar(&opts.packageName, "package", "", "package whose usage access is checked")
	flags.StringVar(&opts.dbPath, "db", "", "blocked-app database path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newPermissionCmd(opts),
		newRequestPermissionCmd(opts),
		newAppsCmd(opts),
		newCurrentCmd(opts),
		newForegroundCmd(opts),
		newBlockedCmd(opts),
	)
	return root
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	root := NewRootCmd(ADBServiceFactory)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		return 1
	}
	return 0
}

// FormatError renders tagged bridge failures as "TAG: message"
func FormatError(err error) string {
	var bridgeErr *errors.BridgeError
	if stderrors.As(err, &bridgeErr) {
		return fmt.Sprintf("%s: %s", bridgeErr.Tag, bridgeErr.Message)
	}
	return fmt.Sprintf("Error: %v", err)
}

// session carries what a single command invocation needs
type session struct {
	cfg    *config.Config
	logger logging.Logger
	bridge *bridge.UsageBridge
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.environment)
	if err != nil {
		return nil, err
	}
	if o.serial != "" {
		cfg.ADB.Serial = o.serial
	}
	if o.adbPath != "" {
		cfg.ADB.Path = o.adbPath
	}
	if o.packageName != "" {
		cfg.PackageName = o.packageName
	}
	if o.dbPath != "" {
		cfg.Store.Path = o.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) newSession() (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	level := logging.LevelWarn
	if o.verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLeveledLogger(level)

	service, err := o.newService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create platform service: %w", err)
	}

	bridgeOpts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithForegroundWindow(cfg.ForegroundWindow),
	}
	if cfg.Labels.Enabled {
		bridgeOpts = append(bridgeOpts, bridge.WithLabelResolver(
			labels.NewPlayStoreResolver(cfg.Labels.BaseURL, cfg.Labels.Timeout, logger)))
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		bridge: bridge.New(service, bridgeOpts...),
	}, nil
}

// openStore connects and migrates the blocked-app store. The returned
// function closes it.
func (s *session) openStore(ctx context.Context) (repository.BlockedAppRepository, func(), error) {
	db := database.NewSQLiteService(s.logger)
	if err := db.Connect(ctx, database.ConfigFromStore(s.cfg.Store)); err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeStore := func() {
		if err := db.Close(); err != nil {
			logging.LogError(s.logger, err, "CloseStore", nil)
		}
	}
	return repository.NewSQLiteRepository(db, s.logger), closeStore, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
