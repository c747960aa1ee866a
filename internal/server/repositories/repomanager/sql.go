package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/websites"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends database/sql repositories. The same SQL runs
// on both dialects; only the migration set differs.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	if _, err := gooseDialect(dialect); err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

// Websites returns a websites.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Websites(db dbx.DBTX) websites.Repository {
	return websites.NewSQLRepository(db)
}

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations brings the schema up to date with the embedded migrations
// for the manager's dialect. It is idempotent.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := m.setupGoose(); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, string(m.dialect)); err != nil {
		return err
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func (m *SQLRepositoryManager) SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := m.setupGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

func (m *SQLRepositoryManager) setupGoose() error {
	d, err := gooseDialect(m.dialect)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect(d)
}

func gooseDialect(d dbx.Dialect) (string, error) {
	switch d {
	case dbx.DialectSQLite:
		return "sqlite3", nil
	case dbx.DialectPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}
