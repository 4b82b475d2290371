package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPostgres = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// ErrNotFound is returned by Open when the database file does not exist
// and CreateIfAbsent is false.
var ErrNotFound = errors.New("database not found")

// Options selects the database to open.
type Options struct {
	Driver string
	// DSN is a file path for the SQLite drivers and a connection string for pgx.
	DSN            string
	CreateIfAbsent bool
}

// DB wraps a database connection with the dialect needed to build
// statements for it.
type DB struct {
	*sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the database described by opts. It does not create the
// schema; see Migrate.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*DB, error) {
	dialect, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch opts.Driver {
	case DriverSQLite3, DriverSQLite:
		if !opts.CreateIfAbsent {
			if _, err := os.Stat(opts.DSN); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, opts.DSN)
			}
		}
		dsn = sqliteDSN(opts.Driver, opts.DSN)
	default:
		dsn = opts.DSN
	}

	sqlDB, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect.sqlite {
		// One writer at a time; also keeps an open batch from deadlocking
		// against a second pooled connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database opened", "driver", opts.Driver)
	return &DB{DB: sqlDB, dialect: dialect, logger: logger}, nil
}

func sqliteDSN(driver, path string) string {
	if driver == DriverSQLite {
		return fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	return fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", path)
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Rebind rewrites ? placeholders for the connection's dialect.
func (db *DB) Rebind(query string) string {
	return db.dialect.Rebind(query)
}

// TableExists reports whether table exists in the current schema.
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, db.Rebind(db.dialect.tableExistsQuery), table).Scan(&n); err != nil {
		return false, fmt.Errorf("look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// CountRows returns the number of rows in table. The name is not escaped
// and must come from a fixed set.
func (db *DB) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// HasData reports whether table exists and holds at least one row.
func (db *DB) HasData(ctx context.Context, table string) bool {
	ok, err := db.TableExists(ctx, table)
	if err != nil || !ok {
		return false
	}
	n, err := db.CountRows(ctx, table)
	return err == nil && n > 0
}
