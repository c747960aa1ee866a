// Package cli implements sitectl, the operator tool for a sitekeeper store.
//
// sitectl reads the same configuration as the server (defaults, JSON file,
// flags) and runs one command against the configured database:
//
//	sitectl [flags] migrate
//	sitectl [flags] user add <username>
//	sitectl [flags] sessions purge
//	sitectl [flags] status
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `Usage: sitectl [flags] <command>

Commands:
  migrate              apply pending schema migrations
  user add <username>  create a user; the password is prompted for
  sessions purge       delete expired sessions
  status               print schema version and user count

Flags are the server flags (-driver, -d, -c, -w, -retries, -l, ...).
`

var commands = []string{"migrate", "user", "sessions", "status", "help"}

type App struct {
	config       *config.Config
	logger       logging.Logger
	reader       *bufio.Reader
	out          io.Writer
	hasherParams cryptox.Params

	dialect dbx.Dialect
	db      *sql.DB
	rm      repomanager.RepositoryManager
}

// SplitArgs separates the leading configuration flags from the command and
// its arguments. The command is the first argument naming a known command.
func SplitArgs(args []string) (flags, command []string) {
	for i, a := range args {
		if slices.Contains(commands, a) {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dialect, err := dbx.ParseDialect(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	return &App{
		config:       c,
		logger:       logger.With("module", "sitectl"),
		reader:       bufio.NewReader(in),
		out:          out,
		hasherParams: cryptox.DefaultParams,
		dialect:      dialect,
	}, nil
}

// Run executes one command. The store is opened on demand and closed
// before Run returns.
func (a *App) Run(ctx context.Context, command []string) error {
	if len(command) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}
	defer a.close()

	switch command[0] {
	case "help":
		fmt.Fprint(a.out, usage)
		return nil
	case "migrate":
		return a.migrate(ctx)
	case "user":
		if len(command) < 2 || command[1] != "add" {
			return fmt.Errorf("%w: sitectl user add <username>", ErrUsage)
		}
		var username string
		if len(command) > 2 {
			username = command[2]
		}
		return a.addUser(ctx, username)
	case "sessions":
		if len(command) < 2 || command[1] != "purge" {
			return fmt.Errorf("%w: sitectl sessions purge", ErrUsage)
		}
		return a.purgeSessions(ctx)
	case "status":
		return a.status(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command[0])
	}
}

func (a *App) open(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	db, err := dbx.Open(ctx, a.dialect, a.config.DatabaseDSN, a.config.StoreLockTimeout)
	if err != nil {
		return err
	}

	rm, err := repomanager.NewSQLRepositoryManager(a.dialect)
	if err != nil {
		_ = db.Close()
		return err
	}

	a.db, a.rm = db, rm
	return nil
}

// openMigrated opens the store and brings the schema up to date.
func (a *App) openMigrated(ctx context.Context) error {
	if err := a.open(ctx); err != nil {
		return err
	}
	return a.rm.RunMigrations(ctx, a.db)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "close store", "error", err)
		}
		a.db = nil
	}
}

func (a *App) userService() *services.UserService {
	return services.NewUserService(a.db, a.rm, cryptox.NewHasher(a.hasherParams), a.config, a.logger)
}

// readSecret reads a password without echo from a terminal, or as a plain
// line when input is piped.
func (a *App) readSecret(prompt string) (string, error) {
	if !isTerminal(stdinFd()) {
		return GetSimpleText(a.reader, prompt, a.out)
	}

	pw, err := GetPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
