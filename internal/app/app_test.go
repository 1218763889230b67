package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusbridge/internal/config"
	dberrors "focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/platform"
	"focusbridge/internal/platform/fake"
	"focusbridge/internal/types"
)

func newTestApp(t *testing.T, cfg *config.Config) (*App, *fake.Service) {
	t.Helper()
	if cfg == nil {
		cfg = config.ConfigForEnvironment("test")
	}
	service := fake.NewService()
	a := NewApp(cfg, service, logging.NewLeveledLogger(logging.LevelError))
	a.Startup(context.Background())
	t.Cleanup(func() { a.Shutdown(context.Background()) })
	return a, service
}

func nowRecord(pkg string, offset time.Duration) platform.UsageRecord {
	return platform.UsageRecord{PackageName: pkg, LastTimeUsed: time.Now().Add(-offset).UnixMilli()}
}

func TestApp_BridgeOperations(t *testing.T) {
	a, service := newTestApp(t, nil)

	service.SetPermissionMode(platform.ModeAllowed)
	granted, err := a.HasUsageStatsPermission()
	require.NoError(t, err)
	assert.True(t, granted)

	a.RequestUsageStatsPermission()
	assert.Equal(t, 1, service.SettingsOpened())

	service.SetApplications(
		platform.ApplicationInfo{PackageName: "com.android.settings", Label: "Settings", IsSystem: true},
		platform.ApplicationInfo{PackageName: "com.instagram.android", Label: "Instagram"},
	)
	apps, err := a.GetInstalledApps()
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Instagram", apps[0].AppName)

	service.SetUsageRecords(nowRecord("com.a", 3*time.Second), nowRecord("com.b", time.Second))
	current, err := a.GetCurrentApp()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "com.b", *current)

	running, err := a.IsAppRunning("com.b")
	require.NoError(t, err)
	assert.True(t, running)
}

func TestApp_GetCurrentApp_NoneObserved(t *testing.T) {
	a, _ := newTestApp(t, nil)

	current, err := a.GetCurrentApp()
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestApp_GetCurrentApp_TaggedFailure(t *testing.T) {
	a, service := newTestApp(t, nil)
	service.SetFailures(nil, nil, nil, errors.New("usage stats unavailable"))

	_, err := a.GetCurrentApp()
	require.Error(t, err)
	tag, ok := dberrors.TagOf(err)
	require.True(t, ok)
	assert.Equal(t, dberrors.TagGetCurrentApp, tag)
}

func TestFormatError_BridgeFailureReachesShellAsTaggedObject(t *testing.T) {
	a, service := newTestApp(t, nil)
	service.SetFailures(nil, nil, nil, errors.New("usage stats unavailable"))

	_, err := a.IsAppRunning("com.x")
	require.Error(t, err)

	payload, err := json.Marshal(FormatError(err))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"CHECK_APP_ERROR","message":"usage stats unavailable"}`, string(payload))
}

func TestFormatError_OtherErrorsPassAsText(t *testing.T) {
	cfg := config.ConfigForEnvironment("test")
	cfg.Store.Path = filepath.Join(t.TempDir(), "missing", "dir", "focus.db")
	a, _ := newTestApp(t, cfg)

	_, err := a.GetBlockedApps()
	require.Error(t, err)
	assert.Equal(t, err.Error(), FormatError(err))
}

func TestApp_BlockedApps(t *testing.T) {
	a, service := newTestApp(t, nil)

	require.NoError(t, a.SetBlockedApps([]string{"com.twitter.android", "com.instagram.android"}))
	blocked, err := a.GetBlockedApps()
	require.NoError(t, err)
	assert.Equal(t, []string{"com.instagram.android", "com.twitter.android"}, types.PackageNames(blocked))

	service.SetUsageRecords(nowRecord("com.twitter.android", time.Second))
	running, err := a.GetRunningBlockedApp()
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, "com.twitter.android", *running)

	service.SetUsageRecords(nowRecord("com.example.notes", time.Second))
	running, err = a.GetRunningBlockedApp()
	require.NoError(t, err)
	assert.Nil(t, running)
}

func TestApp_EmptyBlockListSkipsUsageQuery(t *testing.T) {
	a, service := newTestApp(t, nil)

	running, err := a.GetRunningBlockedApp()
	require.NoError(t, err)
	assert.Nil(t, running)

	_, _, calls := service.LastQuery()
	assert.Zero(t, calls)
}

func TestApp_StoreFailureDegradesGracefully(t *testing.T) {
	cfg := config.ConfigForEnvironment("test")
	cfg.Store.Path = filepath.Join(t.TempDir(), "missing", "dir", "focus.db")
	a, service := newTestApp(t, cfg)

	_, err := a.GetBlockedApps()
	assert.True(t, dberrors.IsConnection(err))
	assert.True(t, dberrors.IsConnection(a.SetBlockedApps([]string{"com.a"})))

	service.SetPermissionMode(platform.ModeIgnored)
	granted, err := a.HasUsageStatsPermission()
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestApp_ShutdownReleasesStore(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.Shutdown(context.Background())

	_, err := a.GetBlockedApps()
	assert.True(t, dberrors.IsConnection(err))
}

func TestNewADBApp_ValidatesConfig(t *testing.T) {
	cfg := config.ConfigForEnvironment("test")
	cfg.ADB.Path = ""

	_, err := NewADBApp(cfg)
	assert.Error(t, err)

	cfg.ADB.Path = "adb"
	a, err := NewADBApp(cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.GetLogger())
}
