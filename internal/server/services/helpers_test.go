package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	sessionsrepo "github.com/dmitrijs2005/sitekeeper/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/sitekeeper/internal/server/repositories/users"
	websitesrepo "github.com/dmitrijs2005/sitekeeper/internal/server/repositories/websites"
)

var cheapParams = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		SessionValidityDuration: time.Hour,
		StoreLockTimeout:        time.Second,
		StoreRetryAttempts:      2,
	}
}

// --- in-memory fakes ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrorUsernameTaken
		}
	}
	f.nextID++
	cp := *u
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	u.ID = cp.ID
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), f.err
}

type fakeSessionsRepo struct {
	mu      sync.Mutex
	rows    map[string]*models.Session
	deleted []string
	err     error
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]*models.Session{}}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *s
	f.rows[s.TokenHash] = &cp
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, tokenHash string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.rows[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, tokenHash)
	delete(f.rows, tokenHash)
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for k, s := range f.rows {
		if s.Expired(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

type fakeWebsitesRepo struct {
	mu     sync.Mutex
	rows   []*models.Website
	nextID int64
	err    error
}

func (f *fakeWebsitesRepo) Create(ctx context.Context, w *models.Website) (*models.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	cp := *w
	cp.ID = f.nextID
	f.rows = append(f.rows, &cp)
	w.ID = cp.ID
	return w, nil
}

func (f *fakeWebsitesRepo) ListByOwner(ctx context.Context, userID int64) ([]*models.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Website, 0)
	for _, w := range f.rows {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWebsitesRepo) GetByID(ctx context.Context, id int64) (*models.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, w := range f.rows {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeWebsitesRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i, w := range f.rows {
		if w.ID == id && w.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	w *fakeWebsitesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), s: newFakeSessionsRepo(), w: &fakeWebsitesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) SchemaVersion(context.Context, *sql.DB) (int64, error) { return 1, nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository          { return m.s }
func (m *fakeRepoManager) Websites(db dbx.DBTX) websitesrepo.Repository          { return m.w }

// fakeAuth resolves tokens from a fixed map.
type fakeAuth struct {
	users map[string]*models.User
	err   error
}

func (f *fakeAuth) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}
