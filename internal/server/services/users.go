// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout and resolving the
// user behind a session token.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
)

// sessionTokenBytes is the entropy of a session token before hex encoding.
const sessionTokenBytes = 32

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	VerifyDummy(password string)
}

// UserService provides authentication-related operations:
//   - Register: create users with a salted argon2id password hash
//   - Login: verify credentials and open a server-side session
//   - Logout: revoke a session
//   - CurrentUser: resolve a session token to its user
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	hasher          PasswordHasher
	logger          logging.Logger
	sessionValidity time.Duration
	retryAttempts   int
	now             func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		hasher:          hasher,
		logger:          logger.With("module", "users"),
		sessionValidity: cfg.SessionValidityDuration,
		retryAttempts:   cfg.StoreRetryAttempts,
		now:             time.Now,
	}
}

// Register validates the form values, hashes the password and stores a new
// user. The username is stored exactly as given; a whitespace-only value
// counts as missing. A taken username yields common.ErrorUsernameTaken.
func (s *UserService) Register(ctx context.Context, username, password, confirmPassword string) (*models.User, error) {
	if err := requireFields(
		common.FieldUsername, username,
		common.FieldPassword, password,
		common.FieldConfirmPassword, confirmPassword,
	); err != nil {
		return nil, err
	}
	if password != confirmPassword {
		return nil, common.NewValidationError(common.FieldConfirmPassword, common.ErrorPasswordMismatch)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	var user *models.User
	err = dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		user, err = s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, PasswordHash: hash})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorUsernameTaken) {
			return nil, common.ErrorUsernameTaken
		}
		return nil, storeError("create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	return user, nil
}

// Login checks the credentials and opens a session. It returns the opaque
// session token (only its hash is stored) and the session row. Unknown
// users and wrong passwords both yield common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.Session, error) {
	if err := requireFields(common.FieldUsername, username, common.FieldPassword, password); err != nil {
		return "", nil, err
	}

	var user *models.User
	err := dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		user, err = s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return "", nil, common.ErrorInvalidCredentials
		}
		return "", nil, storeError("find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("%w: verify password for user %d: %v", common.ErrorInternal, user.ID, err)
	}
	if !ok {
		return "", nil, common.ErrorInvalidCredentials
	}

	token, err := common.MakeRandHexString(sessionTokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("%w: session token: %v", common.ErrorInternal, err)
	}

	now := s.now()
	session := &models.Session{
		TokenHash: HashSessionToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionValidity),
		CreatedAt: now,
	}

	err = dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		return s.repomanager.Sessions(s.db).Create(ctx, session)
	})
	if err != nil {
		return "", nil, storeError("create session", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return token, session, nil
}

// Logout revokes the session. Unknown or empty tokens are not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		return s.repomanager.Sessions(s.db).Delete(ctx, HashSessionToken(token))
	})
	if err != nil {
		return storeError("delete session", err)
	}
	return nil
}

// CurrentUser resolves token to its user. Empty, unknown and expired tokens,
// as well as sessions whose user is gone, yield common.ErrorUnauthorized.
func (s *UserService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	tokenHash := HashSessionToken(token)
	sessions := s.repomanager.Sessions(s.db)

	var session *models.Session
	err := dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		session, err = sessions.Find(ctx, tokenHash)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeError("find session", err)
	}

	if session.Expired(s.now()) {
		if err := sessions.Delete(ctx, tokenHash); err != nil {
			s.logger.Warn(ctx, "failed to drop expired session", "user_id", session.UserID, "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	var user *models.User
	err = dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		user, err = s.repomanager.Users(s.db).GetUserByID(ctx, session.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeError("find user", err)
	}

	return user, nil
}

// PurgeExpiredSessions deletes every expired session row.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	err := dbx.WithRetry(ctx, s.retryAttempts, func(ctx context.Context) error {
		var err error
		n, err = s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, storeError("purge sessions", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}

// HashSessionToken is the key under which a session token is stored.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// requireFields takes name/value pairs and reports the first value that is
// empty after trimming whitespace.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return common.NewValidationError(pairs[i], common.ErrorMissingField)
		}
	}
	return nil
}

// storeError keeps common.ErrorStoreBusy visible to callers and turns every
// other storage failure into common.ErrorInternal.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorStoreBusy) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
