package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.MaxBufferSize)
	assert.True(t, cfg.Snippets.Watch)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.toml")
	data := `
[snippets]
dirs = ["/tmp/snippets"]
watch = false
debounce_ms = 100

[engine]
max_buffer_size = 25
settle_delay_ms = 10
paste_delay_ms = 20

[logging]
level = "debug"
format = "json"
output = "stderr"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/tmp/snippets"}, cfg.Snippets.Dirs)
	assert.False(t, cfg.Snippets.Watch)
	assert.Equal(t, 25, cfg.Engine.MaxBufferSize)
	assert.Equal(t, 10, cfg.Engine.SettleDelayMs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.yaml")
	data := `
snippets:
  dirs: ["/tmp/y"]
engine:
  max_buffer_size: 30
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/y"}, cfg.Snippets.Dirs)
	assert.Equal(t, 30, cfg.Engine.MaxBufferSize)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.json")
	data := `{"engine": {"max_buffer_size": 40}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Engine.MaxBufferSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nmax_buffer_size = -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_buffer_size")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXPANDD_LOG_LEVEL", "debug")
	t.Setenv("EXPANDD_MAX_BUFFER_SIZE", "77")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 77, cfg.Engine.MaxBufferSize)
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.History.Enabled = true
	cfg.History.Path = ""
	require.Error(t, cfg.Validate())
}
