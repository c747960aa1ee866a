// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the sitekeeper server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the web interface.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (file path) or "postgres" (pgx DSN).
//   - SecretKey: HMAC secret for signing session cookies (HS256). Do not use test defaults in prod.
//   - SessionValidityDuration: how long a login stays valid.
//   - StoreLockTimeout / StoreRetryAttempts: bounded wait and retries on store lock contention.
//   - LogLevel / LogFile: slog level and optional rotated log file.
//   - CookieSecure: set the Secure attribute on the session cookie.
type Config struct {
	EndpointAddrHTTP        string
	DatabaseDriver          string
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	StoreLockTimeout        time.Duration
	StoreRetryAttempts      int
	LogLevel                string
	LogFile                 string
	CookieSecure            bool
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "sitekeeper.db"
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 24 * time.Hour
	c.StoreLockTimeout = 5 * time.Second
	c.StoreRetryAttempts = 3
	c.LogLevel = "info"
	c.LogFile = ""
	c.CookieSecure = false
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
// args are the process arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
