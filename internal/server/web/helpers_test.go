package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/dmitrijs2005/sitekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsers struct {
	mu sync.Mutex

	sessions    map[string]*models.User
	registerErr error
	loginErr    error
	currentErr  error
	logoutErr   error

	registered []string
	loggedOut  []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{sessions: make(map[string]*models.User)}
}

func (f *fakeUsers) Register(ctx context.Context, username, password, confirm string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, username)
	return &models.User{ID: int64(len(f.registered)), UserName: username}, nil
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (string, *models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	token := "tok-" + username
	f.sessions[token] = &models.User{ID: 7, UserName: username}
	return token, &models.Session{UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeUsers) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.loggedOut = append(f.loggedOut, token)
	delete(f.sessions, token)
	return nil
}

func (f *fakeUsers) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	u, ok := f.sessions[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

type fakeWebsites struct {
	mu sync.Mutex

	byToken   map[string][]*models.Website
	addErr    error
	listErr   error
	deleteErr error

	deleted []int64
}

func newFakeWebsites() *fakeWebsites {
	return &fakeWebsites{byToken: make(map[string][]*models.Website)}
}

func (f *fakeWebsites) Add(ctx context.Context, token, name, rawURL string) (*models.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	w := &models.Website{ID: int64(len(f.byToken[token]) + 1), Name: name, URL: rawURL}
	f.byToken[token] = append(f.byToken[token], w)
	return w, nil
}

func (f *fakeWebsites) ListOwned(ctx context.Context, token string) ([]*models.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]*models.Website{}, f.byToken[token]...), nil
}

func (f *fakeWebsites) DeleteOwned(ctx context.Context, token string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testEnv struct {
	users    *fakeUsers
	websites *fakeWebsites
	pinger   *fakePinger
	metrics  *metrics.Metrics
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	env := &testEnv{
		users:    newFakeUsers(),
		websites: newFakeWebsites(),
		pinger:   &fakePinger{},
		metrics:  metrics.New(),
	}
	srv := NewHTTPServer(Options{Address: "127.0.0.1:0", SecretKey: testSecret}, testLogger(),
		env.users, env.websites, env.pinger, renderer, env.metrics)
	env.handler = srv.Handler()
	return env
}

// loginAs registers a live session for username and returns its cookie.
func (e *testEnv) loginAs(t *testing.T, username string) (string, *http.Cookie) {
	t.Helper()
	token := "tok-" + username
	e.users.mu.Lock()
	e.users.sessions[token] = &models.User{ID: 7, UserName: username}
	e.users.mu.Unlock()

	signed, err := auth.GenerateToken(token, []byte(testSecret), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token, &http.Cookie{Name: common.SessionCookieName, Value: signed}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(newFormRequest(path, form), cookies...)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}
