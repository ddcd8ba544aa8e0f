package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
repository:
  driver: memory
media:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.Session.SelfUnmuteAllowed())
	assert.True(t, cfg.Session.AutoMute())
	assert.Equal(t, 2*time.Hour, cfg.Media.TTL)
	assert.Equal(t, 16, cfg.Realtime.QueueSize)
	assert.Equal(t, 3*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 3, cfg.Poller.MaxNotFound)
	assert.Equal(t, "http://localhost:8080", cfg.Poller.BaseURL)
}

func TestLoadReadsSections(t *testing.T) {
	path := writeConfig(t, `
env: prod
http:
  address: ":9090"
database:
  dsn: postgres://localhost/liveclass
  max_open_conns: 5
session:
  allow_self_unmute: false
  auto_mute_new_students: false
media:
  secret: s3cret
  ttl: 30m
poller:
  interval: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Repository.Driver)
	assert.Equal(t, "postgres://localhost/liveclass", cfg.Database.DSN)
	assert.Equal(t, 5, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Session.SelfUnmuteAllowed())
	assert.False(t, cfg.Session.AutoMute())
	assert.Equal(t, 30*time.Minute, cfg.Media.TTL)
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "http://localhost:9090", cfg.Poller.BaseURL)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "media:\n  secret: s3cret\n"))
	assert.ErrorContains(t, err, "database dsn is empty")

	_, err = Load(writeConfig(t, "repository:\n  driver: memory\n"))
	assert.ErrorContains(t, err, "media secret is empty")

	_, err = Load(writeConfig(t, "repository:\n  driver: redis\nmedia:\n  secret: x\n"))
	assert.ErrorContains(t, err, "unknown repository driver")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadClientSkipsServerSections(t *testing.T) {
	path := writeConfig(t, `
poller:
  base_url: http://coordinator:8080
`)

	_, err := Load(path)
	require.Error(t, err, "a server needs a dsn and a media secret")

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "http://coordinator:8080", cfg.Poller.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Poller.Interval)

	_, err = LoadClient(writeConfig(t, "poller:\n  base_url: ftp://coordinator\n"))
	assert.Error(t, err)
}

func TestFetchConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config/local.yaml", fetchConfigPath(""))

	t.Setenv("CONFIG_PATH", "/etc/liveclass.yaml")
	assert.Equal(t, "/etc/liveclass.yaml", fetchConfigPath(""))
	assert.Equal(t, "custom.yaml", fetchConfigPath("custom.yaml"))
}
