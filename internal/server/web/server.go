// Package web serves the sitekeeper HTML pages: registration, login and the
// per-user website dashboard.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// UserService is the part of services.UserService used by the handlers.
type UserService interface {
	Register(ctx context.Context, username, password, confirmPassword string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// WebsiteService is the part of services.WebsiteService used by the handlers.
type WebsiteService interface {
	Add(ctx context.Context, token, name, rawURL string) (*models.Website, error)
	ListOwned(ctx context.Context, token string) ([]*models.Website, error)
	DeleteOwned(ctx context.Context, token string, id int64) error
}

// Pinger reports store health; *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the settings NewHTTPServer needs from the server config.
type Options struct {
	Address      string
	SecretKey    string
	CookieSecure bool
}

type HTTPServer struct {
	address      string
	users        UserService
	websites     WebsiteService
	db           Pinger
	renderer     Renderer
	metrics      *metrics.Metrics
	logger       logging.Logger
	jwtSecret    []byte
	cookieSecure bool
}

func NewHTTPServer(opts Options, l logging.Logger, us UserService, ws WebsiteService, db Pinger, r Renderer, m *metrics.Metrics) *HTTPServer {
	return &HTTPServer{
		address:      opts.Address,
		users:        us,
		websites:     ws,
		db:           db,
		renderer:     r,
		metrics:      m,
		logger:       l.With("module", "http_server"),
		jwtSecret:    []byte(opts.SecretKey),
		cookieSecure: opts.CookieSecure,
	}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
