package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"focusbridge/internal/database"
	"focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
	"focusbridge/internal/types"
)

// SQLiteRepository implements BlockedAppRepository over a database.Service
type SQLiteRepository struct {
	db     database.Service
	logger logging.Logger
	now    func() time.Time
}

var _ BlockedAppRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository backed by the given service
func NewSQLiteRepository(db database.Service, logger logging.Logger) *SQLiteRepository {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// List implements BlockedAppRepository
func (r *SQLiteRepository) List(ctx context.Context) ([]types.BlockedApp, error) {
	db, err := r.conn("List")
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT package_name, added_at FROM blocked_apps ORDER BY package_name")
	if err != nil {
		return nil, r.wrap("List", err, nil)
	}
	defer rows.Close()

	apps := []types.BlockedApp{}
	for rows.Next() {
		var (
			app     types.BlockedApp
			addedAt int64
		)
		if err := rows.Scan(&app.PackageName, &addedAt); err != nil {
			return nil, r.wrap("List", err, map[string]string{"phase": "scan"})
		}
		app.AddedAt = time.UnixMilli(addedAt)
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("List", err, map[string]string{"phase": "iterate"})
	}
	return apps, nil
}

// Replace implements BlockedAppRepository. Apps kept across the swap
// retain their original AddedAt.
func (r *SQLiteRepository) Replace(ctx context.Context, packageNames []string) error {
	names, err := normalize("Replace", packageNames)
	if err != nil {
		return err
	}

	db, err := r.conn("Replace")
	if err != nil {
		return err
	}

	start := r.now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "begin"})
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS keep_apps (package_name TEXT PRIMARY KEY)"); err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "stage"})
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM keep_apps"); err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "stage"})
	}

	addedAt := r.now().UnixMilli()
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, "INSERT INTO keep_apps (package_name) VALUES (?)", name); err != nil {
			return r.wrap("Replace", err, map[string]string{"phase": "stage", "package": name})
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO blocked_apps (package_name, added_at) VALUES (?, ?) ON CONFLICT(package_name) DO NOTHING",
			name, addedAt); err != nil {
			return r.wrap("Replace", err, map[string]string{"phase": "insert", "package": name})
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM blocked_apps WHERE package_name NOT IN (SELECT package_name FROM keep_apps)"); err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "prune"})
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM keep_apps"); err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "stage"})
	}

	if err := tx.Commit(); err != nil {
		return r.wrap("Replace", err, map[string]string{"phase": "commit"})
	}

	logging.LogOperation(r.logger, "ReplaceBlockedApps", r.now().Sub(start), map[string]interface{}{
		"count": len(names),
	})
	return nil
}

// Add implements BlockedAppRepository; adding an existing app is a no-op
func (r *SQLiteRepository) Add(ctx context.Context, packageName string) error {
	names, err := normalize("Add", []string{packageName})
	if err != nil {
		return err
	}
	db, err := r.conn("Add")
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO blocked_apps (package_name, added_at) VALUES (?, ?) ON CONFLICT(package_name) DO NOTHING",
		names[0], r.now().UnixMilli())
	if err != nil {
		return r.wrap("Add", err, map[string]string{"package": names[0]})
	}
	return nil
}

// Remove implements BlockedAppRepository; removing an unknown app reports not found
func (r *SQLiteRepository) Remove(ctx context.Context, packageName string) error {
	db, err := r.conn("Remove")
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM blocked_apps WHERE package_name = ?", strings.TrimSpace(packageName))
	if err != nil {
		return r.wrap("Remove", err, map[string]string{"package": packageName})
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.wrap("Remove", err, map[string]string{"package": packageName})
	}
	if affected == 0 {
		return errors.NewStoreErrorWithContext("Remove", sql.ErrNoRows, errors.ErrCodeNotFound, map[string]string{
			"package": packageName,
		})
	}
	return nil
}

// Contains implements BlockedAppRepository
func (r *SQLiteRepository) Contains(ctx context.Context, packageName string) (bool, error) {
	db, err := r.conn("Contains")
	if err != nil {
		return false, err
	}

	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM blocked_apps WHERE package_name = ?", strings.TrimSpace(packageName)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, r.wrap("Contains", err, map[string]string{"package": packageName})
	}
	return true, nil
}

func (r *SQLiteRepository) conn(op string) (*sql.DB, error) {
	if r.db == nil || r.db.DB() == nil {
		return nil, errors.HandleConnectionError(op, "database not connected")
	}
	return r.db.DB(), nil
}

func (r *SQLiteRepository) wrap(op string, err error, context map[string]string) error {
	wrapped := errors.WrapDatabaseErrorWithContext(op, err, context)
	logging.LogError(r.logger, wrapped, op, nil)
	return wrapped
}

// normalize trims identifiers, rejects empty ones and drops duplicates
// while keeping first-seen order
func normalize(op string, packageNames []string) ([]string, error) {
	seen := make(map[string]bool, len(packageNames))
	names := make([]string, 0, len(packageNames))
	for _, raw := range packageNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, errors.HandleValidationError(op, "package_name", raw, "package name must not be empty")
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
