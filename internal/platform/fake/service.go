// Package fake provides an in-memory platform.UsageService.
package fake

import (
	"context"
	"sync"
	"time"

	"focusbridge/internal/platform"
)

// Service is a scriptable UsageService. All setters are safe to call while
// other goroutines use the service.
type Service struct {
	mu           sync.RWMutex
	mode         platform.PermissionMode
	apps         []platform.ApplicationInfo
	records      []platform.UsageRecord
	permErr      error
	settingsErr  error
	appsErr      error
	usageErr     error
	settingsOpen int
	lastBegin    time.Time
	lastEnd      time.Time
	usageCalls   int
}

// NewService creates a fake with the permission in its default mode
func NewService() *Service {
	return &Service{mode: platform.ModeDefault}
}

// SetPermissionMode changes the mode the next permission check sees
func (s *Service) SetPermissionMode(mode platform.PermissionMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetApplications replaces the installed application list
func (s *Service) SetApplications(apps ...platform.ApplicationInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = append([]platform.ApplicationInfo(nil), apps...)
}

// SetUsageRecords replaces the usage records returned by QueryUsageStats
func (s *Service) SetUsageRecords(records ...platform.UsageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]platform.UsageRecord(nil), records...)
}

// SetFailures configures the errors each call returns; nil clears a failure
func (s *Service) SetFailures(perm, settings, apps, usage error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permErr = perm
	s.settingsErr = settings
	s.appsErr = apps
	s.usageErr = usage
}

// SettingsOpened returns how many times the settings screen was requested
func (s *Service) SettingsOpened() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settingsOpen
}

// LastQuery returns the interval of the most recent usage query and the
// number of queries made so far
func (s *Service) LastQuery() (begin, end time.Time, calls int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBegin, s.lastEnd, s.usageCalls
}

// UsagePermissionMode implements platform.UsageService
func (s *Service) UsagePermissionMode(ctx context.Context) (platform.PermissionMode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.permErr != nil {
		return "", s.permErr
	}
	return s.mode, nil
}

// OpenUsageAccessSettings implements platform.UsageService
func (s *Service) OpenUsageAccessSettings(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsOpen++
	return s.settingsErr
}

// InstalledApplications implements platform.UsageService
func (s *Service) InstalledApplications(ctx context.Context) ([]platform.ApplicationInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.appsErr != nil {
		return nil, s.appsErr
	}
	return append([]platform.ApplicationInfo(nil), s.apps...), nil
}

// QueryUsageStats implements platform.UsageService
func (s *Service) QueryUsageStats(ctx context.Context, begin, end time.Time) ([]platform.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBegin = begin
	s.lastEnd = end
	s.usageCalls++
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	return append([]platform.UsageRecord(nil), s.records...), nil
}
