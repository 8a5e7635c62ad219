package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Contains(t, cfg.CalendarURL, "%d")
}

func TestLoad_FileAndEnv(t *testing.T) {
	// GIVEN: a YAML file and an environment override
	// WHEN: the config loads
	// THEN: the environment wins over the file

	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "arrears.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
db_path: /var/lib/arrears.db
http_server:
  address: ":9090"
  timeout: 5s
sources:
  fetch_timeout: 3s
`), 0o600))
	t.Setenv("ARREARS_HTTP_ADDRESS", ":7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.EnvProd, cfg.Env)
	assert.Equal(t, "/var/lib/arrears.db", cfg.DBPath)
	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ARREARS_ENV=dev\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ARREARS_ENV") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.EnvDev, cfg.Env)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := config.Load("/does/not/exist.yaml")
	assert.Error(t, err)

	t.Setenv("ARREARS_ENV", "staging")
	_, err = config.Load("")
	assert.Error(t, err)
}
