// Package users declares and implements the credential store: the users
// table keyed by a unique username.
package users

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and sets its store-assigned ID. A taken username
	// yields common.ErrorUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
