package services

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
)

// Authenticator resolves a session token to its user. *UserService
// implements it.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// WebsiteService manages the websites of the user behind a session token.
// Every operation resolves the caller first; ids of other users' websites
// are never returned or removed.
type WebsiteService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	auth          Authenticator
	logger        logging.Logger
	retryAttempts int
}

func NewWebsiteService(db *sql.DB, m repomanager.RepositoryManager, auth Authenticator, cfg *config.Config, logger logging.Logger) *WebsiteService {
	return &WebsiteService{
		db:            db,
		repomanager:   m,
		auth:          auth,
		logger:        logger.With("module", "websites"),
		retryAttempts: cfg.StoreRetryAttempts,
	}
}

// Add stores a website for the caller. Only surrounding whitespace is
// trimmed from name and rawURL; the URL must be absolute http(s) with a host.
func (s *WebsiteService) Add(ctx context.Context, token, name, rawURL string) (*models.Website, error) {
	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)

	if name == "" {
		return nil, common.NewValidationError(common.FieldWebsiteName, common.ErrorMissingField)
	}
	if rawURL == "" {
		return nil, common.NewValidationError(common.FieldWebsiteURL, common.ErrorMissingField)
	}
	if !ValidWebsiteURL(rawURL) {
		return nil, common.NewValidationError(common.FieldWebsiteURL, common.ErrorInvalidURL)
	}

	var w *models.Website
	err = dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		w, err = s.repomanager.Websites(s.db).Create(ctx, &models.Website{UserID: user.ID, Name: name, URL: rawURL})
		return err
	})
	if err != nil {
		return nil, storeError("create website", err)
	}

	s.logger.Info(ctx, "website added", "user_id", user.ID, "website_id", w.ID)
	return w, nil
}

// ListOwned returns the caller's websites in creation order.
func (s *WebsiteService) ListOwned(ctx context.Context, token string) ([]*models.Website, error) {
	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	var list []*models.Website
	err = dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		list, err = s.repomanager.Websites(s.db).ListByOwner(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, storeError("list websites", err)
	}
	return list, nil
}

// DeleteOwned removes website id if the caller owns it. A missing id is not
// an error; a website owned by someone else yields common.ErrorForbidden and
// stays untouched.
func (s *WebsiteService) DeleteOwned(ctx context.Context, token string, id int64) error {
	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		return err
	}

	err = dbx.RunInTx(ctx, s.db, s.retryAttempts, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Websites(tx)

		w, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		if w.UserID != user.ID {
			return common.ErrorForbidden
		}

		_, err = repo.Delete(ctx, id, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorForbidden) {
			s.logger.Warn(ctx, "delete of foreign website refused", "user_id", user.ID, "website_id", id)
			return common.ErrorForbidden
		}
		return storeError("delete website", err)
	}
	return nil
}

// ValidWebsiteURL reports whether raw is an absolute http or https URL
// with a host.
func ValidWebsiteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Hostname() != ""
}
