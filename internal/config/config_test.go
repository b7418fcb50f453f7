package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGameServerDefaults(t *testing.T) {
	cfg, err := LoadGameServer("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, 2, cfg.ChainEventMaxDepth)
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, 20, cfg.LogPageSize)
	assert.InDelta(t, 0.85, cfg.ResistanceCap, 1e-9)
	assert.InDelta(t, 0.50, cfg.ParryCap, 1e-9)
	assert.Equal(t, "postgres://duskhall:@127.0.0.1:5432/duskhall?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}

func TestLoadGameServerMissingFileIsFine(t *testing.T) {
	cfg, err := LoadGameServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultGameServer(), cfg)
}

func TestLoadGameServerYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
tick_interval_sec: 0.5
redis:
  addr: cache:6379
`), 0o600))

	cfg, err := LoadGameServer(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	// untouched keys keep defaults
	assert.Equal(t, 2, cfg.ChainEventMaxDepth)
}

func TestLoadGameServerEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SESSION_TTL_SEC", "120")
	t.Setenv("DB_HOST", "pg.internal")

	cfg, err := LoadGameServer(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "pg.internal", cfg.Database.Host)
}

func TestLoadGameServerBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [broken\n"), 0o600))

	_, err := LoadGameServer(path)
	assert.Error(t, err)
}
