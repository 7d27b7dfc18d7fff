/*
Package config loads server configuration from the environment.

PURPOSE:
  All runtime knobs come from environment variables (12-factor style); a
  local .env file is honored when APP_ENV=local. Defaults are chosen so the
  server runs out of the box with the SQLite store.

VARIABLES:
  HTTP_HOST, HTTP_PORT          Listen address (default 0.0.0.0:8080)
  LOGGER_LEVEL, LOGGER_AS_JSON  zap level and encoding (default info, console)
  STORE_BACKEND                 memory | sqlite | mongo (default sqlite)
  SQLITE_PATH                   SQLite file (default toolcrib.db, ":memory:" ok)
  MONGO_DSN, MONGO_DATABASE     Mongo connection (required for mongo backend)
  CATALOG_SIZE                  Demo tool catalog size (default 40)

SEE ALSO:
  - cmd/server/main.go: Consumer
*/
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

type Config struct {
	Server  Server
	Logger  Logger
	Store   Store
	Catalog Catalog
}

type Server struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"HTTP_PORT" envDefault:"8080"`
}

func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Logger struct {
	Level  string `env:"LOGGER_LEVEL" envDefault:"info"`
	AsJSON bool   `env:"LOGGER_AS_JSON" envDefault:"false"`
}

type Store struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"toolcrib.db"`
	MongoDSN   string `env:"MONGO_DSN"`
	MongoDB    string `env:"MONGO_DATABASE" envDefault:"toolcrib"`
}

type Catalog struct {
	Size int `env:"CATALOG_SIZE" envDefault:"40"`
}

// Load parses the environment (plus an optional .env when APP_ENV=local)
// into a Config.
func Load(paths ...string) (*Config, error) {
	const op = "config.Load"

	if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch cfg.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendMongo:
		if cfg.Store.MongoDSN == "" {
			return nil, fmt.Errorf("%s: MONGO_DSN is required for the mongo backend", op)
		}
	default:
		return nil, fmt.Errorf("%s: unknown STORE_BACKEND %q", op, cfg.Store.Backend)
	}

	return &cfg, nil
}
