package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	cfg, err := loadConfig("config.example.yml")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.LogLevel)
	assert.True(t, cfg.RuntimeCollector)
	assert.Equal(t, "metricsync", cfg.CollectorTags["service"])

	reporters, ok := cfg.Plugin["reporter"].(map[string]any)
	require.True(t, ok)
	prom, ok := reporters["prometheus"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://pushgateway:9091", prom["url"])
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.LogLevel)
	assert.True(t, cfg.Log.ConsoleAppender)
	assert.True(t, cfg.RuntimeCollector)
	assert.Empty(t, cfg.Plugin)
}

func TestLoadConfigEnvShortcuts(t *testing.T) {
	t.Setenv("METRICSYNC_PUSH_URL", "http://gw:9091")
	t.Setenv("METRICSYNC_LISTEN_ADDR", ":9464")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	prom := cfg.Plugin["reporter"].(map[string]any)["prometheus"].(map[string]any)
	assert.Equal(t, "http://gw:9091", prom["url"])
	assert.Equal(t, ":9464", prom["httpListenAddr"])
	assert.Equal(t, true, prom["enableHealthCheck"])
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  consoleAppender: false\n"), 0o644))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}
