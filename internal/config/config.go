// internal/config/config.go
//
// Process configuration.
//
// Values come from the environment; in development a .env file in the
// working directory is loaded first (existing variables win).
//
// Environment variables:
//   PORT=5175                        HTTP listen port
//   LOG_LEVEL=info                   zerolog level
//   CLIENT_ORIGIN=http://localhost:5173
//   SESSION_SECRET=...               token signing secret
//   SESSION_TTL=24h                  token lifetime and idle session cutoff
//   COOKIE_NAME=flag_session
//   FLAGS_CATALOG_FILE=/path/to/countries.txt   optional catalog override
//   GAME_SEED=0                      fixed seed for every new session (0 = random)
//   DAILY_SALT=local_dev_salt        mixes into the daily deal seed
//   PRODUCTION=false                 Secure, SameSite=None cookies

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	Port          string        `env:"PORT"               envDefault:"5175"`
	LogLevel      string        `env:"LOG_LEVEL"          envDefault:"info"`
	ClientOrigin  string        `env:"CLIENT_ORIGIN"      envDefault:"http://localhost:5173"`
	SessionSecret string        `env:"SESSION_SECRET"     envDefault:"dev_secret_change_me"`
	SessionTTL    time.Duration `env:"SESSION_TTL"        envDefault:"24h"`
	CookieName    string        `env:"COOKIE_NAME"        envDefault:"flag_session"`
	CatalogFile   string        `env:"FLAGS_CATALOG_FILE"`
	Seed          int64         `env:"GAME_SEED"          envDefault:"0"`
	DailySalt     string        `env:"DAILY_SALT"         envDefault:"local_dev_salt"`
	Production    bool          `env:"PRODUCTION"         envDefault:"false"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment into a Config without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("parse env: SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}
