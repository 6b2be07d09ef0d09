package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to a postgres or sqlite database and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	if dialect == DialectSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	db, err := sql.Open(dialect.driverName(), dialect.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	switch dialect {
	case DialectSQLite:
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	default:
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(20)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
