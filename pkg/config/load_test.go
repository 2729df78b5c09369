package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper(filepath.Join(t.TempDir(), "missing.yaml")))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinship.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: badger
badger:
  path: /var/lib/kinship
log:
  level: debug
  json: true
`), 0o600))
	t.Setenv("KINSHIP_SERVER_ADDR", ":9090")
	t.Setenv("KINSHIP_EXPAND_ALL_CONCURRENCY", "8")

	cfg, err := Load(NewViper(path))
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/var/lib/kinship", cfg.Badger.Path)
	assert.True(t, cfg.Badger.SyncWrites, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.ExpandAllConcurrency)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinship.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: sqlite\n"), 0o600))

	_, err := Load(NewViper(path))
	assert.ErrorContains(t, err, "unknown backend")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinship.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated\n"), 0o600))

	_, err := Load(NewViper(path))
	assert.ErrorContains(t, err, "read config")
}
