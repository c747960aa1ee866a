// Package sessions declares the server-side repository contract for login
// sessions. Rows are keyed by the SHA-256 of the opaque session token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking sessions.
type Repository interface {
	// Create stores a new session row.
	Create(ctx context.Context, s *models.Session) error

	// Find looks up a session by token hash. A missing row yields
	// common.ErrorNotFound. Expiry is not checked here.
	Find(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes every session that expired at or before now and
	// returns how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
