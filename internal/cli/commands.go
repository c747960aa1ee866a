package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
)

func (a *App) migrate(ctx context.Context) error {
	if err := a.openMigrated(ctx); err != nil {
		return err
	}

	version, err := a.rm.SchemaVersion(ctx, a.db)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "schema is at version %d\n", version)
	return nil
}

func (a *App) addUser(ctx context.Context, username string) error {
	if err := a.openMigrated(ctx); err != nil {
		return err
	}

	var err error
	if username == "" {
		if username, err = GetSimpleText(a.reader, "Enter user name", a.out); err != nil {
			return err
		}
	}

	password, err := a.readSecret("Enter password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Confirm password")
	if err != nil {
		return err
	}

	user, err := a.userService().Register(ctx, username, password, confirm)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return fmt.Errorf("%s: %w", ve.Field, ve.Err)
		case errors.Is(err, common.ErrorUsernameTaken):
			return fmt.Errorf("user %q: %w", username, err)
		default:
			return err
		}
	}

	fmt.Fprintf(a.out, "created user %q with id %d\n", user.UserName, user.ID)
	return nil
}

func (a *App) purgeSessions(ctx context.Context) error {
	if err := a.openMigrated(ctx); err != nil {
		return err
	}

	n, err := a.userService().PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "purged %d expired sessions\n", n)
	return nil
}

// status reports without migrating, so it also works against a store
// that is behind.
func (a *App) status(ctx context.Context) error {
	if err := a.open(ctx); err != nil {
		return err
	}

	version, err := a.rm.SchemaVersion(ctx, a.db)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "driver: %s\nschema version: %d\n", a.dialect, version)
	if version == 0 {
		fmt.Fprintln(a.out, "users: n/a (run sitectl migrate)")
		return nil
	}

	n, err := a.rm.Users(a.db).Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "users: %d\n", n)
	return nil
}
