package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100*time.Millisecond, cfg.Heartbeat())
	assert.Equal(t, []string{"X", "Y", "Z"}, cfg.AxisList())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
tool_table = "/home/cnc/linuxcnc/tool.tbl"
axes = "xyza"
metric = false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/cnc/linuxcnc/tool.tbl", cfg.ToolTable)
	assert.Equal(t, []string{"X", "Y", "Z", "A"}, cfg.AxisList())
	assert.False(t, cfg.Metric)
	assert.Equal(t, Default().Database, cfg.Database)
	assert.Equal(t, 100, cfg.HeartbeatMS)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"syntax.toml":    "axes = ",
		"axis.toml":      `axes = "XQ"`,
		"heartbeat.toml": "heartbeat_ms = 0",
		"database.toml":  `database = ""`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.ToolTable = "tool.tbl"
	cfg.LogLevel = "debug"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
