package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, env := range []string{"MYSQL_HOST", "MYSQL_USER", "MYSQL_PASS", "MYSQL_DB", "DOWNLOAD_DIR"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolateHome(t)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Downloads"), config.Download.OutputDir)
	assert.Equal(t, filepath.Join(home, ".ytdl-desk", "history.db"), config.Database.SQLitePath)
	assert.Equal(t, filepath.Join(home, ".ytdl-desk", "logs"), config.Logging.LogsDir)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, config.Download.PollInterval)
	assert.Equal(t, "mem://downloads/doc_id", config.Mirror.CollectionURL)
	assert.Equal(t, 8765, config.Server.Port)
}

func TestLoadConfig_LegacyEnvironment(t *testing.T) {
	isolateHome(t)
	downloads := t.TempDir()

	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_USER", "yt")
	t.Setenv("MYSQL_PASS", "secret")
	t.Setenv("MYSQL_DB", "history")
	t.Setenv("DOWNLOAD_DIR", downloads)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, "yt", config.Database.User)
	assert.Equal(t, "secret", config.Database.Password)
	assert.Equal(t, "history", config.Database.Name)
	assert.Equal(t, downloads, config.Download.OutputDir)
}

func TestLoadConfig_PrefixedEnvironment(t *testing.T) {
	isolateHome(t)

	t.Setenv("YTDLDESK_DATABASE_DRIVER", "mysql")
	t.Setenv("YTDLDESK_DOWNLOAD_POLL_INTERVAL", "250ms")
	t.Setenv("YTDLDESK_MIRROR_ENABLED", "false")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "mysql", config.Database.Driver)
	assert.Equal(t, 250*time.Millisecond, config.Download.PollInterval)
	assert.False(t, config.Mirror.Enabled)
}

func TestLoadConfig_File(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
download:
  output_dir: /srv/media
  history_limit: 25
database:
  driver: mysql
  host: mysql.local
  name: downloads
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "/srv/media", config.Download.OutputDir)
	assert.Equal(t, 25, config.Download.HistoryLimit)
	assert.Equal(t, "mysql", config.Database.Driver)
	assert.Equal(t, "mysql.local", config.Database.Host)
	assert.Equal(t, 64*1024, config.Download.ChunkSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"unknown driver", "database:\n  driver: postgres\n"},
		{"mirror without url", "mirror:\n  enabled: true\n  collection_url: \"\"\n"},
		{"zero history", "download:\n  history_limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	isolateHome(t)

	config, err := LoadConfig("")
	require.NoError(t, err)
	config.Server.Port = 9100
	config.Download.PollInterval = 200 * time.Millisecond
	config.Database.Driver = "mysql"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)
	assert.Equal(t, 200*time.Millisecond, loaded.Download.PollInterval)
	assert.Equal(t, "mysql", loaded.Database.Driver)
	assert.Equal(t, config.Download.OutputDir, loaded.Download.OutputDir)
}
