package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	dberrors "focusbridge/internal/infrastructure/errors"
	"focusbridge/internal/infrastructure/logging"
)

// SQLiteService implements Service for SQLite.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, use DB, Close.
type SQLiteService struct {
	mu              sync.RWMutex
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{
		logger: logger,
	}
}

// Connect opens the database, replacing any existing connection
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err.Error())
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}
	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	s.db = db
	s.config = config
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}
	s.db = nil
	s.migrationRunner = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate runs the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	s.mu.RLock()
	runner := s.migrationRunner
	connected := s.db != nil
	s.mu.RUnlock()

	if !connected {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}

	if err := runner.ValidateMigrations(); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "validation",
		})
	}
	if err := runner.RunMigrations(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}
	return nil
}

// Health checks the database connection
func (s *SQLiteService) Health(ctx context.Context) error {
	db := s.DB()
	if db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{
			"phase": "query",
		})
	}
	if result != 1 {
		return dberrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}
	return nil
}

// DB returns the underlying connection, nil when not connected
func (s *SQLiteService) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	s.mu.RLock()
	runner := s.migrationRunner
	s.mu.RUnlock()

	if runner == nil {
		return 0, dberrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapDatabaseError("GetMigrationVersion", err)
	}
	return version, nil
}

// configureConnectionPool sizes the pool for SQLite: a single connection
// unless WAL allows concurrent readers
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.IsInMemory() || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}

	maxConns := config.MaxConnections
	if maxConns <= 0 || maxConns > 4 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
}
