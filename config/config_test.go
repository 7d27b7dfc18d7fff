package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/procure-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "toolcrib.db", cfg.Store.SQLitePath)
	assert.Equal(t, 40, cfg.Catalog.Size)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("CATALOG_SIZE", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.Catalog.Size)
}

func TestLoad_MongoRequiresDSN(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGO_DSN", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_DSN")

	t.Setenv("MONGO_DSN", "mongodb://localhost:27017")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMongo, cfg.Store.Backend)
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	t.Setenv("STORE_BACKEND", "dynamo")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}
