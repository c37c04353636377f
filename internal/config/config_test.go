package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8000", cfg.APIBase)
	assert.Equal(t, "mocha", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "trackview.db", filepath.Base(cfg.DBPath))
	assert.Zero(t, cfg.RequestTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().APIBase, cfg.APIBase)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
api_base: https://market.example.com
token: secret
theme: latte
request_timeout: 15s
download_dir: /tmp/shots
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://market.example.com", cfg.APIBase)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "latte", cfg.Theme)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/shots", cfg.DownloadDir)
	assert.Equal(t, Default().LogLevel, cfg.LogLevel, "unset keys keep defaults")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"bad yaml", "api_base: [oops"},
		{"bad scheme", "api_base: ftp://example.com"},
		{"empty base", "api_base: \"\""},
		{"bad theme", "theme: solarized"},
		{"negative timeout", "request_timeout: -1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "trackview", "config.yaml"), DefaultPath())
}
