package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-driver", "-d", "-s", "-t", "-w", "-retries", "-l", "-logfile", "-secure-cookie",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string         HTTP bind address (e.g., ":8080")
//	-driver string    database driver: sqlite or postgres
//	-d string         database DSN (sqlite file path or postgres URL)
//	-s string         session cookie HMAC secret key
//	-t int            session validity, minutes
//	-w int            store lock timeout, milliseconds
//	-retries int      retries on store lock contention
//	-l string         log level
//	-logfile string   log file (rotated); stdout when empty
//	-secure-cookie    mark the session cookie Secure
//
// Unknown arguments are dropped with flagx.FilterArgs first, so -c/-config
// and positional arguments do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	lockTimeout := fs.Int("w", int(config.StoreLockTimeout.Milliseconds()), "store lock timeout (in milliseconds)")

	fs.IntVar(&config.StoreRetryAttempts, "retries", config.StoreRetryAttempts, "retries on store lock contention")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "logfile", config.LogFile, "log file")
	fs.BoolVar(&config.CookieSecure, "secure-cookie", config.CookieSecure, "set Secure on session cookie")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only convert durations that were given, so finer values from JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
		case "w":
			config.StoreLockTimeout = time.Duration(*lockTimeout) * time.Millisecond
		}
	})

	return nil
}
