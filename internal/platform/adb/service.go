// Package adb implements platform.UsageService against an Android device
// reached through the adb command-line tool.
package adb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/platform"
)

const (
	usageStatsOp          = "GET_USAGE_STATS"
	usageAccessSettings   = "android.settings.USAGE_ACCESS_SETTINGS"
	flagActivityNewTask   = "0x10000000"
	defaultCommandTimeout = 10 * time.Second
)

// Config configures the ADB-backed service
type Config struct {
	ADBPath        string
	Serial         string // empty targets the only attached device
	PackageName    string // identity whose usage-access grant is checked
	CommandTimeout time.Duration
}

// Service implements platform.UsageService by shelling into a device
type Service struct {
	adbPath     string
	serial      string
	packageName string
	timeout     time.Duration
	runner      Runner
	logger      logging.Logger
}

var _ platform.UsageService = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// WithRunner replaces the process runner
func WithRunner(runner Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithLogger sets the logger; nil keeps the default
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an ADB-backed service
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.ADBPath == "" {
		return nil, errors.New("adb path is required")
	}
	if cfg.PackageName == "" {
		return nil, errors.New("package name is required")
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}

	s := &Service{
		adbPath:     cfg.ADBPath,
		serial:      cfg.Serial,
		packageName: cfg.PackageName,
		timeout:     cfg.CommandTimeout,
		runner:      ExecRunner{},
		logger:      logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UsagePermissionMode implements platform.UsageService
func (s *Service) UsagePermissionMode(ctx context.Context) (platform.PermissionMode, error) {
	out, err := s.shell(ctx, "appops", "get", s.packageName, usageStatsOp)
	if err != nil {
		return "", err
	}
	mode, err := parseAppOpsMode(out, usageStatsOp)
	if err != nil {
		return "", errors.Wrapf(err, "appops get %s", s.packageName)
	}
	return mode, nil
}

// OpenUsageAccessSettings implements platform.UsageService
func (s *Service) OpenUsageAccessSettings(ctx context.Context) error {
	out, err := s.shell(ctx, "am", "start", "-a", usageAccessSettings, "-f", flagActivityNewTask)
	if err != nil {
		return err
	}
	return errors.Wrap(checkAMStart(out), "am start")
}

// InstalledApplications implements platform.UsageService. pm does not
// expose labels, so Label is always empty.
func (s *Service) InstalledApplications(ctx context.Context) ([]platform.ApplicationInfo, error) {
	all, err := s.shell(ctx, "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	system, err := s.shell(ctx, "pm", "list", "packages", "-s")
	if err != nil {
		return nil, err
	}

	allPkgs, err := parsePackageList(all)
	if err != nil {
		return nil, err
	}
	systemPkgs, err := parsePackageList(system)
	if err != nil {
		return nil, err
	}

	isSystem := make(map[string]bool, len(systemPkgs))
	for _, pkg := range systemPkgs {
		isSystem[pkg] = true
	}

	apps := make([]platform.ApplicationInfo, 0, len(allPkgs))
	for _, pkg := range allPkgs {
		apps = append(apps, platform.ApplicationInfo{
			PackageName: pkg,
			IsSystem:    isSystem[pkg],
		})
	}
	return apps, nil
}

// QueryUsageStats implements platform.UsageService. Like a daily-interval
// query on the device, it returns every record of the daily bucket that
// overlaps [begin, end], not only records last used inside the interval.
// Only the device's current user is considered.
func (s *Service) QueryUsageStats(ctx context.Context, begin, end time.Time) ([]platform.UsageRecord, error) {
	start := time.Now()

	offset, err := s.shell(ctx, "date", "+%z")
	if err != nil {
		return nil, err
	}
	loc, err := parseDeviceOffset(offset)
	if err != nil {
		return nil, err
	}

	current, err := s.shell(ctx, "am", "get-current-user")
	if err != nil {
		return nil, err
	}
	userID, err := parseCurrentUser(current)
	if err != nil {
		return nil, err
	}

	dump, err := s.shell(ctx, "dumpsys", "usagestats")
	if err != nil {
		return nil, err
	}
	records, err := parseDailyUsageStats(dump, loc, userID)
	if err != nil {
		return nil, err
	}

	logging.LogOperation(s.logger, "QueryUsageStats", time.Since(start), map[string]interface{}{
		"serial":  s.serial,
		"user":    userID,
		"begin":   begin.UnixMilli(),
		"end":     end.UnixMilli(),
		"records": len(records),
	})
	return records, nil
}

// shell runs `adb [-s serial] shell <args>` bounded by the command timeout
func (s *Service) shell(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	full := make([]string, 0, len(args)+3)
	if s.serial != "" {
		full = append(full, "-s", s.serial)
	}
	full = append(full, "shell")
	full = append(full, args...)

	out, err := s.runner.Run(ctx, s.adbPath, full...)
	if err != nil {
		s.logger.Debug("adb command failed", "command", strings.Join(args, " "), "serial", s.serial, "error", err.Error())
		return "", err
	}
	return string(out), nil
}
