// Package bridge exposes the usage-access, app enumeration and foreground
// queries to the application shell. Every call goes straight to the
// platform service; nothing is cached between calls.
package bridge

import (
	"context"
	"time"

	"focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/platform"
)

// DefaultForegroundWindow is the trailing window queried to infer the
// foreground app. The inference is approximate: it reports the app the
// platform most recently saw used, not an "active app" API.
const DefaultForegroundWindow = 5 * time.Second

// LabelResolver looks up display names for packages the platform left
// unlabeled. Packages it cannot name are absent from the result.
type LabelResolver interface {
	ResolveAll(ctx context.Context, packageNames []string) map[string]string
}

// AppDescriptor is an installed, non-system application as seen by the shell
type AppDescriptor struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
}

// UsageBridge translates platform queries into shell results
type UsageBridge struct {
	service platform.UsageService
	logger  logging.Logger
	now     func() time.Time
	window  time.Duration
	labels  LabelResolver
}

// Option configures a UsageBridge
type Option func(*UsageBridge)

// WithLogger sets the logger; nil keeps the default
func WithLogger(logger logging.Logger) Option {
	return func(b *UsageBridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(b *UsageBridge) {
		if now != nil {
			b.now = now
		}
	}
}

// WithForegroundWindow overrides DefaultForegroundWindow; non-positive values are ignored
func WithForegroundWindow(window time.Duration) Option {
	return func(b *UsageBridge) {
		if window > 0 {
			b.window = window
		}
	}
}

// WithLabelResolver sets the fallback display name lookup
func WithLabelResolver(resolver LabelResolver) Option {
	return func(b *UsageBridge) {
		b.labels = resolver
	}
}

// New creates a bridge over the given platform service
func New(service platform.UsageService, opts ...Option) *UsageBridge {
	b := &UsageBridge{
		service: service,
		logger:  logging.NewDefaultLogger(),
		now:     time.Now,
		window:  DefaultForegroundWindow,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HasUsagePermission reports whether the usage-stats op is allowed for
// the configured package identity
func (b *UsageBridge) HasUsagePermission(ctx context.Context) (bool, error) {
	mode, err := b.service.UsagePermissionMode(ctx)
	if err != nil {
		return false, b.fail(errors.TagPermissionCheck, "HasUsagePermission", err, nil)
	}
	return mode.Granted(), nil
}

// RequestUsagePermission opens the platform's usage-access settings screen.
// Failures are logged and never reported to the caller.
func (b *UsageBridge) RequestUsagePermission(ctx context.Context) {
	if err := b.service.OpenUsageAccessSettings(ctx); err != nil {
		b.logger.Warn("Failed to open usage access settings", "operation", "RequestUsagePermission", "error", err.Error())
	}
}

// ListInstalledApps returns the installed applications that are not
// system components, in platform enumeration order
func (b *UsageBridge) ListInstalledApps(ctx context.Context) ([]AppDescriptor, error) {
	start := b.now()

	installed, err := b.service.InstalledApplications(ctx)
	if err != nil {
		return nil, b.fail(errors.TagGetApps, "ListInstalledApps", err, nil)
	}

	apps := make([]AppDescriptor, 0, len(installed))
	var unlabeled []string
	for _, info := range installed {
		if info.IsSystem {
			continue
		}
		if info.Label == "" {
			unlabeled = append(unlabeled, info.PackageName)
		}
		apps = append(apps, AppDescriptor{
			PackageName: info.PackageName,
			AppName:     info.Label,
		})
	}

	var resolved map[string]string
	if b.labels != nil && len(unlabeled) > 0 {
		resolved = b.labels.ResolveAll(ctx, unlabeled)
	}
	for i := range apps {
		if apps[i].AppName == "" {
			apps[i].AppName = resolved[apps[i].PackageName]
		}
		if apps[i].AppName == "" {
			apps[i].AppName = apps[i].PackageName
		}
	}

	logging.LogOperation(b.logger, "ListInstalledApps", b.now().Sub(start), map[string]interface{}{
		"installed": len(installed),
		"listed":    len(apps),
	})
	return apps, nil
}

// IsAppInForeground reports whether packageName is the most recently used
// app in the trailing window. An empty window yields false.
func (b *UsageBridge) IsAppInForeground(ctx context.Context, packageName string) (bool, error) {
	top, ok, err := b.foreground(ctx)
	if err != nil {
		return false, b.fail(errors.TagCheckApp, "IsAppInForeground", err, map[string]string{
			"package": packageName,
		})
	}
	return ok && top == packageName, nil
}

// CurrentForegroundApp returns the most recently used app in the trailing
// window; ok is false when the platform reported nothing
func (b *UsageBridge) CurrentForegroundApp(ctx context.Context) (string, bool, error) {
	top, ok, err := b.foreground(ctx)
	if err != nil {
		return "", false, b.fail(errors.TagGetCurrentApp, "CurrentForegroundApp", err, nil)
	}
	return top, ok, nil
}

// BlockedAppInForeground returns the foreground app when it is one of
// blocked. An empty list answers without querying the platform.
func (b *UsageBridge) BlockedAppInForeground(ctx context.Context, blocked []string) (string, bool, error) {
	if len(blocked) == 0 {
		return "", false, nil
	}

	top, ok, err := b.foreground(ctx)
	if err != nil {
		return "", false, b.fail(errors.TagGetCurrentApp, "BlockedAppInForeground", err, nil)
	}
	if !ok {
		return "", false, nil
	}
	for _, pkg := range blocked {
		if pkg == top {
			return top, true, nil
		}
	}
	return "", false, nil
}

// foreground queries the trailing window and resolves the top record
func (b *UsageBridge) foreground(ctx context.Context) (string, bool, error) {
	end := b.now()
	begin := end.Add(-b.window)

	records, err := b.service.QueryUsageStats(ctx, begin, end)
	if err != nil {
		return "", false, err
	}

	top, ok := ResolveForeground(records)
	if !ok {
		return "", false, nil
	}
	return top.PackageName, true, nil
}

func (b *UsageBridge) fail(tag errors.Tag, op string, err error, context map[string]string) error {
	bridgeErr := errors.NewBridgeErrorWithContext(tag, op, err, context)
	logging.LogError(b.logger, bridgeErr, op, nil)
	return bridgeErr
}
