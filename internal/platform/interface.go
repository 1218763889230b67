package platform

import (
	"context"
	"time"
)

// UsageService defines the platform services the bridge reads from.
// Implementations talk to the device; the bridge never caches their answers.
type UsageService interface {
	// UsagePermissionMode reports the usage-stats op mode granted to the
	// calling package identity.
	UsagePermissionMode(ctx context.Context) (PermissionMode, error)

	// OpenUsageAccessSettings navigates to the usage-access settings screen.
	OpenUsageAccessSettings(ctx context.Context) error

	// InstalledApplications enumerates installed packages, system ones included.
	InstalledApplications(ctx context.Context) ([]ApplicationInfo, error)

	// QueryUsageStats returns the usage records the platform holds for the
	// interval [begin, end].
	QueryUsageStats(ctx context.Context, begin, end time.Time) ([]UsageRecord, error)
}

// ApplicationInfo contains information about an installed package
type ApplicationInfo struct {
	PackageName string `json:"packageName"`
	Label       string `json:"label"`
	IsSystem    bool   `json:"isSystem"`
}

// UsageRecord is a single per-package usage entry
type UsageRecord struct {
	PackageName  string `json:"packageName"`
	LastTimeUsed int64  `json:"lastTimeUsed"` // epoch milliseconds
}

// LastUsed returns LastTimeUsed as a time.Time
func (r UsageRecord) LastUsed() time.Time {
	return time.UnixMilli(r.LastTimeUsed)
}
