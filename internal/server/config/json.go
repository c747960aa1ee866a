package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
	"github.com/dmitrijs2005/sitekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from a zero value, so a partial file only overrides what
// it names. Durations use timex.Duration ("24h" or nanoseconds).
type JsonConfig struct {
	EndpointAddrHTTP        *string         `json:"endpoint_addr_http"`
	DatabaseDriver          *string         `json:"database_driver"`
	DatabaseDSN             *string         `json:"database_dsn"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	StoreLockTimeout        *timex.Duration `json:"store_lock_timeout"`
	StoreRetryAttempts      *int            `json:"store_retry_attempts"`
	LogLevel                *string         `json:"log_level"`
	LogFile                 *string         `json:"log_file"`
	CookieSecure            *bool           `json:"cookie_secure"`
}

// parseJson overlays values from the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)

	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.StoreLockTimeout != nil {
		config.StoreLockTimeout = c.StoreLockTimeout.Duration
	}
	if c.StoreRetryAttempts != nil {
		config.StoreRetryAttempts = *c.StoreRetryAttempts
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
