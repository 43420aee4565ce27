package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, ".cardflow/flows", cfg.Store.Dir)
	assert.True(t, cfg.Metrics)
	assert.Zero(t, cfg.Store.TTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
store:
  driver: redis
  ttl: 10m
`), 0644))

	t.Setenv("CARDFLOW_STORE_PREFIX", "test:")
	t.Setenv("CARDFLOW_METRICS", "false")
	t.Setenv("CARDFLOW_DISTRIBUTED_LOCK", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Store.TTL)
	assert.Equal(t, "test:", cfg.Store.Prefix)
	assert.Equal(t, ".cardflow/flows", cfg.Store.Dir, "unset keys keep their defaults")
	assert.False(t, cfg.Metrics)
	assert.True(t, cfg.Store.Lock)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("store:\n  driver: sqlite\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("CARDFLOW_STORE", "postgres")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecode_UnknownKey(t *testing.T) {
	raw := defaults()
	raw["colour"] = "blue"
	_, err := Decode(raw)
	assert.Error(t, err)
}
