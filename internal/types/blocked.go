package types

import "time"

// BlockedApp is a package the user chose to block during focus sessions
type BlockedApp struct {
	PackageName string    `json:"packageName"`
	AddedAt     time.Time `json:"addedAt"`
}

// PackageNames returns the identifiers of apps in order
func PackageNames(apps []BlockedApp) []string {
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		names = append(names, app.PackageName)
	}
	return names
}
