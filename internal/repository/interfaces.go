package repository

import (
	"context"

	"focusbridge/internal/types"
)

// BlockedAppRepository persists the user's blocked-app selection
type BlockedAppRepository interface {
	// List returns blocked apps ordered by package name
	List(ctx context.Context) ([]types.BlockedApp, error)

	// Replace atomically swaps the whole selection; duplicates collapse
	Replace(ctx context.Context, packageNames []string) error

	Add(ctx context.Context, packageName string) error
	Remove(ctx context.Context, packageName string) error
	Contains(ctx context.Context, packageName string) (bool, error)
}
