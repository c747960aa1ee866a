// Package server initializes and runs the sitekeeper web application.
// It opens the store, brings the schema up to date before serving, wires the
// services into the HTTP server and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/dmitrijs2005/sitekeeper/internal/server/web"
)

const (
	logMaxSizeMB  = 100
	logMaxBackups = 5

	defaultSecretKey = "secretKey"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	server    *web.HTTPServer
}

// NewApp opens the store, runs pending migrations and builds the HTTP
// server. The caller must Close the returned App.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser, err := logging.New(logging.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  logMaxSizeMB,
		MaxBackups: logMaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if c.SecretKey == defaultSecretKey {
		logger.Warn(ctx, "using the default secret key, set -s or secret_key for production")
	}

	dialect, err := dbx.ParseDialect(c.DatabaseDriver)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	db, err := dbx.Open(ctx, dialect, c.DatabaseDSN, c.StoreLockTimeout)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, logCloser: logCloser, db: db}

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("schema init error: %w", err)
	}

	version, err := rm.SchemaVersion(ctx, db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("schema version error: %w", err)
	}
	logger.Info(ctx, "schema ready", "driver", string(dialect), "version", version)

	us := services.NewUserService(db, rm, cryptox.NewHasher(cryptox.DefaultParams), c, logger)
	ws := services.NewWebsiteService(db, rm, us, c, logger)

	renderer, err := web.NewTemplateRenderer()
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.server = web.NewHTTPServer(web.Options{
		Address:      c.EndpointAddrHTTP,
		SecretKey:    c.SecretKey,
		CookieSecure: c.CookieSecure,
	}, logger, us, ws, db, renderer, metrics.New())

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return runErr
}

// Close releases the store and the log file.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
	}
	return errors.Join(errs...)
}
