// Package repomanager vends repository implementations for the configured
// database dialect and applies the embedded schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/websites"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	SchemaVersion(context.Context, *sql.DB) (int64, error)
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Websites(db dbx.DBTX) websites.Repository
}
