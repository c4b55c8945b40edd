package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Debug)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, []string{"http", "https"}, cfg.HTTPClient.AllowedSchemes)
	assert.True(t, cfg.Devtools.WatchConfig)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.LoadConfig(""))

	cfg := m.GetConfig()
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamio.yaml")
	content := `
debug: true
server:
  port: 9000
database:
  type: sqlite
  data_dir: /tmp/streamio-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m := NewManager()
	require.NoError(t, m.LoadConfig(path))

	cfg := m.GetConfig()
	assert.True(t, cfg.Debug)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/streamio-test", cfg.Database.DataDir)
	// Untouched values keep defaults
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("STREAMIO_PORT", "9100")
	t.Setenv("STREAMIO_DEBUG", "true")

	m := NewManager()
	require.NoError(t, m.LoadConfig(path))

	cfg := m.GetConfig()
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestEnvDurationAndSliceParsing(t *testing.T) {
	t.Setenv("STREAMIO_HTTP_TIMEOUT", "45s")
	t.Setenv("STREAMIO_MEDIA_DIRS", "/music, /podcasts")

	m := NewManager()
	require.NoError(t, m.LoadConfig(""))

	cfg := m.GetConfig()
	assert.Equal(t, 45*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, []string{"/music", "/podcasts"}, cfg.Playback.MediaDirs)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Type = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.HTTPClient.AllowedSchemes = []string{"ftp"}
	assert.Error(t, cfg.Validate())
}

func TestDerivedDatabasePath(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.LoadConfig(""))

	cfg := m.GetConfig()
	assert.Equal(t, filepath.Join(cfg.Database.DataDir, "streamio.db"), cfg.Database.DatabasePath)
}

func TestWatcherNotifiedOnReload(t *testing.T) {
	m := NewManager()

	notified := make(chan struct{}, 1)
	m.AddWatcher(func(oldConfig, newConfig *Config) {
		notified <- struct{}{}
	})

	require.NoError(t, m.LoadConfig(""))

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("config watcher was not notified")
	}
}
