// Package websites stores the bookmarks each user keeps.
package websites

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, w *models.Website) (*models.Website, error)

	// ListByOwner returns the user's websites in creation order.
	ListByOwner(ctx context.Context, userID int64) ([]*models.Website, error)

	// GetByID yields common.ErrorNotFound when no row has that id.
	GetByID(ctx context.Context, id int64) (*models.Website, error)

	// Delete removes the website only if it belongs to userID and reports
	// whether a row was removed.
	Delete(ctx context.Context, id, userID int64) (bool, error)
}
