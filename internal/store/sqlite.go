package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Pragmas are passed through the DSN so every pooled connection gets them,
// not just the one that happened to run a PRAGMA statement.
const dsnPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteStore implements the Store interface using a local SQLite database.
// It is safe for concurrent use; SQLite serializes writers and the busy
// timeout absorbs short lock contention between the UI and the worker.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("opening sqlite db: %w", err))
	}

	s := &SQLiteStore{db: db, logger: logger.Named("store")}
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + dsnPragmas
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Init brings the schema up to date. It is idempotent: running it against an
// already-initialized database changes nothing.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if err := s.runMigrations(ctx); err != nil {
		return storageErr("init", err)
	}
	return nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order, each in its own transaction.
func (s *SQLiteStore) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)",
	); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion := 0
	if err := s.db.GetContext(ctx, &currentVersion,
		"SELECT COALESCE(MAX(version), 0) FROM schema_version",
	); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration v%d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		if !m.tolerant {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		s.logger.Debug("tolerated migration failure",
			zap.Int("version", m.version), zap.Error(err))
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version) VALUES (?)", m.version,
	); err != nil {
		return fmt.Errorf("recording migration v%d: %w", m.version, err)
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
