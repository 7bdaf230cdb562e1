// Package config loads runtime settings from the environment.
//
// Values come from COLLAB_* variables, optionally seeded from a .env file.
// Command-line flags override whatever is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	// DBPath is the SQLite database file. Defaults to the XDG data dir.
	DBPath string `env:"COLLAB_DB_PATH"`

	// Addr is the listen address of the HTTP server.
	Addr string `env:"COLLAB_ADDR" envDefault:"127.0.0.1:8080"`

	// TokenSecret signs bearer tokens. Required by serve and token.
	TokenSecret string `env:"COLLAB_TOKEN_SECRET"`

	// TokenIssuer is the iss claim of issued tokens.
	TokenIssuer string `env:"COLLAB_TOKEN_ISSUER" envDefault:"collabevents"`

	// TokenTTL bounds token lifetime. Zero issues non-expiring tokens.
	TokenTTL time.Duration `env:"COLLAB_TOKEN_TTL" envDefault:"24h"`

	// RollbackConflictCheck rejects rollbacks that would overlap another
	// event of the owner.
	RollbackConflictCheck bool `env:"COLLAB_ROLLBACK_CONFLICT_CHECK" envDefault:"false"`

	// NotificationRetention is how long read notifications are kept.
	NotificationRetention time.Duration `env:"COLLAB_NOTIFICATION_RETENTION" envDefault:"720h"`

	// PurgeSchedule is the cron spec of the notification purge job.
	PurgeSchedule string `env:"COLLAB_PURGE_SCHEDULE" envDefault:"@hourly"`

	// AllowedOrigins lists WebSocket origins accepted besides same-host.
	AllowedOrigins []string `env:"COLLAB_ALLOWED_ORIGINS" envSeparator:","`
}

// DefaultDBPath returns the database location under the XDG data directory.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "collabevents", "events.db")
}

// Load reads the environment. If dotenv is non-empty that file is loaded
// first; a missing file is not an error. Variables already present in the
// environment win over the file.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.NotificationRetention < 0 {
		return Config{}, fmt.Errorf("COLLAB_NOTIFICATION_RETENTION must not be negative")
	}
	return cfg, nil
}

// RequireSecret reports an error when no token secret is configured.
func (c Config) RequireSecret() error {
	if c.TokenSecret == "" {
		return errors.New("COLLAB_TOKEN_SECRET is required")
	}
	return nil
}
