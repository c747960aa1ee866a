package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/filex"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names a supported database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Open opens and pings a database. lockTimeout bounds how long a statement
// waits for a lock held by another writer before the driver reports a
// retryable error.
func Open(ctx context.Context, d Dialect, dsn string, lockTimeout time.Duration) (*sql.DB, error) {
	switch d {
	case DialectSQLite:
		if path := sqliteFilePath(dsn); path != "" {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, fmt.Errorf("db open error: %w", err)
			}
		}
		dsn = SQLiteDSN(dsn, lockTimeout)
	case DialectPostgres:
		dsn = PostgresDSN(dsn, lockTimeout)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// SQLiteDSN turns a file path or file: URI into a modernc DSN with a busy
// timeout, enforced foreign keys, WAL journaling and BEGIN IMMEDIATE
// transactions. Options already present in dsn are left alone.
func SQLiteDSN(dsn string, lockTimeout time.Duration) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", lockTimeout.Milliseconds()))
	}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "journal_mode") {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}

	return appendParams(dsn, params)
}

// sqliteFilePath returns the file behind a SQLite DSN, or "" for in-memory
// databases.
func sqliteFilePath(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}

// PostgresDSN adds a lock_timeout runtime parameter to a URL or keyword/value
// connection string unless one is already set.
func PostgresDSN(dsn string, lockTimeout time.Duration) string {
	if strings.Contains(dsn, "lock_timeout") {
		return dsn
	}
	param := fmt.Sprintf("lock_timeout=%d", lockTimeout.Milliseconds())

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return appendParams(dsn, []string{param})
	}
	return strings.TrimSpace(dsn + " " + param)
}

func appendParams(dsn string, params []string) string {
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
