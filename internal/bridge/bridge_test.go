package bridge

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/platform"
	"focusbridge/internal/platform/fake"
	"focusbridge/internal/testutils"
)

type stubResolver struct {
	labels map[string]string
	calls  [][]string
}

func (s *stubResolver) ResolveAll(ctx context.Context, packageNames []string) map[string]string {
	s.calls = append(s.calls, packageNames)
	out := make(map[string]string)
	for _, pkg := range packageNames {
		if label, ok := s.labels[pkg]; ok {
			out[pkg] = label
		}
	}
	return out
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestBridge(t *testing.T, opts ...Option) (*UsageBridge, *fake.Service, *testutils.RecordingLogger) {
	t.Helper()
	service := fake.NewService()
	logger := &testutils.RecordingLogger{}
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(service, opts...), service, logger
}

func abcRecords() []platform.UsageRecord {
	return []platform.UsageRecord{
		{PackageName: "A", LastTimeUsed: 100},
		{PackageName: "B", LastTimeUsed: 200},
		{PackageName: "C", LastTimeUsed: 150},
	}
}

func TestHasUsagePermission_ReflectsPlatformMode(t *testing.T) {
	b, service, _ := newTestBridge(t)
	ctx := context.Background()

	granted, err := b.HasUsagePermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted, "default mode is not a grant")

	service.SetPermissionMode(platform.ModeAllowed)
	granted, err = b.HasUsagePermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)

	// revoking between calls is visible immediately
	service.SetPermissionMode(platform.ModeIgnored)
	granted, err = b.HasUsagePermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasUsagePermission_Failure(t *testing.T) {
	b, service, logger := newTestBridge(t)
	service.SetFailures(stderrors.New("appops service unavailable"), nil, nil, nil)

	_, err := b.HasUsagePermission(context.Background())
	require.Error(t, err)

	var bridgeErr *errors.BridgeError
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, errors.TagPermissionCheck, bridgeErr.Tag)
	assert.Equal(t, "appops service unavailable", bridgeErr.Message)
	assert.Len(t, logger.Entries("error"), 1)
}

func TestRequestUsagePermission_SwallowsFailures(t *testing.T) {
	b, service, logger := newTestBridge(t)
	ctx := context.Background()

	b.RequestUsagePermission(ctx)
	assert.Equal(t, 1, service.SettingsOpened())
	assert.Empty(t, logger.Entries("warn"))

	service.SetFailures(nil, stderrors.New("activity not found"), nil, nil)
	b.RequestUsagePermission(ctx)
	assert.Equal(t, 2, service.SettingsOpened())
	assert.Len(t, logger.Entries("warn"), 1)
}

func TestListInstalledApps_ExcludesSystemApps(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetApplications(
		platform.ApplicationInfo{PackageName: "com.android.settings", Label: "Settings", IsSystem: true},
		platform.ApplicationInfo{PackageName: "com.instagram.android", Label: "Instagram"},
		platform.ApplicationInfo{PackageName: "com.android.systemui", IsSystem: true},
		platform.ApplicationInfo{PackageName: "org.example.reader", Label: "Reader"},
	)

	apps, err := b.ListInstalledApps(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []AppDescriptor{
		{PackageName: "com.instagram.android", AppName: "Instagram"},
		{PackageName: "org.example.reader", AppName: "Reader"},
	}, apps)
}

func TestListInstalledApps_DisplayNameFallbacks(t *testing.T) {
	resolver := &stubResolver{labels: map[string]string{"com.twitter.android": "X"}}
	b, service, _ := newTestBridge(t, WithLabelResolver(resolver))
	service.SetApplications(
		platform.ApplicationInfo{PackageName: "com.twitter.android"},
		platform.ApplicationInfo{PackageName: "org.unknown.app"},
		platform.ApplicationInfo{PackageName: "com.labelled", Label: "Labelled"},
		platform.ApplicationInfo{PackageName: "com.android.phone", IsSystem: true},
	)

	apps, err := b.ListInstalledApps(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)

	assert.Equal(t, "X", apps[0].AppName)
	assert.Equal(t, "org.unknown.app", apps[1].AppName)
	assert.Equal(t, "Labelled", apps[2].AppName)

	// unlabeled apps are looked up together in one call
	assert.Equal(t, [][]string{{"com.twitter.android", "org.unknown.app"}}, resolver.calls)
}

func TestListInstalledApps_NoLookupWhenAllLabelled(t *testing.T) {
	resolver := &stubResolver{}
	b, service, _ := newTestBridge(t, WithLabelResolver(resolver))
	service.SetApplications(platform.ApplicationInfo{PackageName: "com.labelled", Label: "Labelled"})

	_, err := b.ListInstalledApps(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resolver.calls)
}

func TestListInstalledApps_EmptyIsNotNil(t *testing.T) {
	b, _, _ := newTestBridge(t)

	apps, err := b.ListInstalledApps(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestListInstalledApps_Failure(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetFailures(nil, nil, stderrors.New("package manager died"), nil)

	apps, err := b.ListInstalledApps(context.Background())
	assert.Nil(t, apps)
	tag, ok := errors.TagOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.TagGetApps, tag)
}

func TestCurrentForegroundApp_PicksLatestRecord(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetUsageRecords(abcRecords()...)

	pkg, ok, err := b.CurrentForegroundApp(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "B", pkg)
}

func TestCurrentForegroundApp_QueriesTrailingWindow(t *testing.T) {
	b, service, _ := newTestBridge(t)

	_, _, err := b.CurrentForegroundApp(context.Background())
	require.NoError(t, err)

	begin, end, calls := service.LastQuery()
	assert.Equal(t, 1, calls)
	assert.Equal(t, fixedNow, end)
	assert.Equal(t, fixedNow.Add(-5*time.Second), begin)
}

func TestCurrentForegroundApp_CustomWindow(t *testing.T) {
	b, service, _ := newTestBridge(t, WithForegroundWindow(30*time.Second), WithForegroundWindow(0))

	_, _, err := b.CurrentForegroundApp(context.Background())
	require.NoError(t, err)

	begin, end, _ := service.LastQuery()
	assert.Equal(t, 30*time.Second, end.Sub(begin))
}

func TestCurrentForegroundApp_EmptyWindow(t *testing.T) {
	b, _, _ := newTestBridge(t)

	pkg, ok, err := b.CurrentForegroundApp(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pkg)
}

func TestCurrentForegroundApp_Failure(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetFailures(nil, nil, nil, stderrors.New("usagestats unavailable"))

	_, _, err := b.CurrentForegroundApp(context.Background())
	tag, ok := errors.TagOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.TagGetCurrentApp, tag)
}

func TestIsAppInForeground(t *testing.T) {
	b, service, _ := newTestBridge(t)
	ctx := context.Background()
	service.SetUsageRecords(abcRecords()...)

	inForeground, err := b.IsAppInForeground(ctx, "B")
	require.NoError(t, err)
	assert.True(t, inForeground)

	inForeground, err = b.IsAppInForeground(ctx, "A")
	require.NoError(t, err)
	assert.False(t, inForeground)
}

func TestIsAppInForeground_AgreesWithCurrentForegroundApp(t *testing.T) {
	b, service, _ := newTestBridge(t)
	ctx := context.Background()
	service.SetUsageRecords(abcRecords()...)

	current, ok, err := b.CurrentForegroundApp(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	for _, pkg := range []string{"A", "B", "C", "D"} {
		inForeground, err := b.IsAppInForeground(ctx, pkg)
		require.NoError(t, err)
		assert.Equal(t, pkg == current, inForeground, pkg)
	}
}

func TestIsAppInForeground_EmptyWindow(t *testing.T) {
	b, _, _ := newTestBridge(t)

	for _, pkg := range []string{"", "A", "com.instagram.android"} {
		inForeground, err := b.IsAppInForeground(context.Background(), pkg)
		require.NoError(t, err)
		assert.False(t, inForeground)
	}
}

func TestIsAppInForeground_Failure(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetFailures(nil, nil, nil, stderrors.New("boom"))

	inForeground, err := b.IsAppInForeground(context.Background(), "A")
	assert.False(t, inForeground)

	var bridgeErr *errors.BridgeError
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, errors.TagCheckApp, bridgeErr.Tag)
	assert.Equal(t, "A", bridgeErr.Context["package"])
}

func TestBlockedAppInForeground(t *testing.T) {
	b, service, _ := newTestBridge(t)
	ctx := context.Background()
	service.SetUsageRecords(abcRecords()...)

	pkg, ok, err := b.BlockedAppInForeground(ctx, []string{"C", "B"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "B", pkg)

	pkg, ok, err = b.BlockedAppInForeground(ctx, []string{"A", "C"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pkg)
}

func TestBlockedAppInForeground_EmptyListSkipsQuery(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetFailures(nil, nil, nil, stderrors.New("should not be called"))

	_, ok, err := b.BlockedAppInForeground(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, calls := service.LastQuery()
	assert.Zero(t, calls)
}

func TestBridge_ConcurrentCalls(t *testing.T) {
	b, service, _ := newTestBridge(t)
	service.SetUsageRecords(abcRecords()...)
	service.SetPermissionMode(platform.ModeAllowed)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pkg, _, err := b.CurrentForegroundApp(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "B", pkg)
			granted, err := b.HasUsagePermission(context.Background())
			assert.NoError(t, err)
			assert.True(t, granted)
		}()
	}
	wg.Wait()
}
