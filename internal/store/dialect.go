package store

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour of a database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func ParseDialect(raw string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(raw))) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", raw)
}

func (d Dialect) driverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) dsn(raw string) string {
	if d != DialectSQLite || strings.Contains(raw, "?") {
		return raw
	}
	return raw + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// bind rewrites ? placeholders to $n for postgres.
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) migrationsTable() string {
	if d == DialectSQLite {
		return `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	return `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
}
