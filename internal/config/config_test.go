package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodiview/kodiview/internal/kodi"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"192.168.1.50:8080", "http://192.168.1.50:8080"},
		{"http://kodi.local:8080/", "http://kodi.local:8080"},
		{"https://kodi.example.org", "https://kodi.example.org"},
		{"  kodi.local:8080  ", "http://kodi.local:8080"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeHost(tt.raw), "raw %q", tt.raw)
	}
}

func TestDevicesFromEnvNumbered(t *testing.T) {
	t.Setenv("KODI_HOST_1", "192.168.1.50:8080")
	t.Setenv("KODI_USERNAME_1", "kodi")
	t.Setenv("KODI_PASSWORD_1", "secret")
	t.Setenv("KODI_HOST_2", "192.168.1.51:8080")

	devices := devicesFromEnv()
	require.Len(t, devices, 2)
	assert.Equal(t, kodi.DeviceConfig{
		ID: 1, Host: "http://192.168.1.50:8080", Username: "kodi", Password: "secret",
	}, devices[0])
	assert.Equal(t, 2, devices[1].ID)
	assert.Empty(t, devices[1].Username)
}

func TestDevicesFromEnvLegacySingleDevice(t *testing.T) {
	t.Setenv("KODI_HOST", "kodi.local:8080")
	t.Setenv("KODI_USERNAME", "kodi")

	devices := devicesFromEnv()
	require.Len(t, devices, 1)
	assert.Equal(t, 1, devices[0].ID)
	assert.Equal(t, "http://kodi.local:8080", devices[0].Host)
}

func TestDevicesFromEnvStopsAtGap(t *testing.T) {
	t.Setenv("KODI_HOST_1", "a:8080")
	t.Setenv("KODI_HOST_3", "c:8080")

	devices := devicesFromEnv()
	require.Len(t, devices, 1)
	assert.Equal(t, "http://a:8080", devices[0].Host)
}

func TestMergeDevicesEnvOverridesFile(t *testing.T) {
	config := DefaultConfig()
	config.Devices = []kodi.DeviceConfig{
		{ID: 1, Host: "file-one:8080"},
		{ID: 2, Host: "file-two:8080"},
	}

	mergeDevices(config, []kodi.DeviceConfig{
		{ID: 2, Host: "http://env-two:8080", Username: "kodi"},
		{ID: 3, Host: "http://env-three:8080"},
	})

	require.Len(t, config.Devices, 3)
	assert.Equal(t, "http://file-one:8080", config.Devices[0].Host)
	assert.Equal(t, "http://env-two:8080", config.Devices[1].Host)
	assert.Equal(t, "kodi", config.Devices[1].Username)
	assert.Equal(t, 3, config.Devices[2].ID)
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kodiview.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
devices:
  - id: 1
    host: kodi.local:8080
    username: kodi
    password: secret
`), 0644))

	t.Setenv("KODIVIEW_PORT", "7070")
	t.Setenv("KODIVIEW_DATA_DIR", dir)

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	cfg := cm.GetConfig()
	assert.Equal(t, 7070, cfg.Server.Port, "environment beats the file")
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "http://kodi.local:8080", cfg.Devices[0].Host)
	assert.Equal(t, filepath.Join(dir, "kodiview.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dir, "preferences.json"), cfg.Preferences.Path)
}

func TestValidateConfigRejectsBadDevices(t *testing.T) {
	tests := []struct {
		name    string
		devices []kodi.DeviceConfig
	}{
		{"zero id", []kodi.DeviceConfig{{ID: 0, Host: "http://a"}}},
		{"empty host", []kodi.DeviceConfig{{ID: 1}}},
		{"duplicate id", []kodi.DeviceConfig{{ID: 1, Host: "http://a"}, {ID: 1, Host: "http://b"}}},
	}

	cm := NewConfigManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Devices = tt.devices
			assert.Error(t, cm.validateConfig(config))
		})
	}
}
