package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/config"
)

// isolate points HOME at an empty directory so no user config is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("WORKFORCE_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./data/workforce.db", cfg.Store.Path)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, "2020-09-17", cfg.Provider.APIVersion)
	assert.Equal(t, 15*time.Second, cfg.Provider.Timeout)
	assert.Empty(t, cfg.Provider.AccessToken)
	assert.Equal(t, 8, cfg.Engine.Concurrency)
	assert.False(t, cfg.Engine.RequireIndividualMatch)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9090"

[provider]
timeout = "3s"
access_token = "from-file"

[engine]
concurrency = 2
require_individual_match = true
`), 0o600))
	t.Setenv("WORKFORCE_CONFIG", path)
	t.Setenv("WORKFORCE_PROVIDER_ACCESS_TOKEN", "from-env")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "from-env", cfg.Provider.AccessToken, "env wins over file")
	assert.Equal(t, 2, cfg.Engine.Concurrency)
	assert.True(t, cfg.Engine.RequireIndividualMatch)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("WORKFORCE_CONFIG", filepath.Join(dir, "nope.toml"))

	_, err := config.Load()

	assert.Error(t, err)
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	isolate(t)
	t.Setenv("WORKFORCE_ENGINE_CONCURRENCY", "0")

	_, err := config.Load()

	assert.Error(t, err)
}
