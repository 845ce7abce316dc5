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
	path := filepath.Join(t.TempDir(), "streamer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaultsWhenPathEmpty(t *testing.T) {
	t.Setenv("STREAMER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Streaming.RenderRadius)
	assert.Equal(t, 8, cfg.Streaming.CleanupRadius)
	assert.False(t, cfg.Pressure.CleanupOverrideValue().Set)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  seed: 42
streaming:
  render_radius: 3
  cleanup_radius: 10
pressure:
  low_threshold: 1000
  high_threshold: 2000
  interval: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 16, cfg.World.CellSize, "незаданные поля берутся из Default")
	assert.Equal(t, 3, cfg.Streaming.RenderRadius)
	assert.Equal(t, 500*time.Millisecond, cfg.Pressure.Interval)
}

func TestZeroCleanupOverrideIsHonored(t *testing.T) {
	path := writeConfig(t, `
pressure:
  cleanup_override: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	o := cfg.Pressure.CleanupOverrideValue()
	assert.True(t, o.Set, "ноль – заданное значение")
	assert.Equal(t, 0, o.Or(8))
}

func TestRadiusOverrideOr(t *testing.T) {
	assert.Equal(t, 8, NoOverride().Or(8))
	assert.Equal(t, 0, Override(0).Or(8))
	assert.Equal(t, 3, Override(3).Or(8))
	assert.Equal(t, "unset", NoOverride().String())
}

func TestValidateRejectsCleanupBelowRender(t *testing.T) {
	cfg := Default()
	cfg.Streaming.RenderRadius = 5
	cfg.Streaming.CleanupRadius = 4
	assert.Error(t, cfg.Validate())

	path := writeConfig(t, `
streaming:
  render_radius: 5
  cleanup_radius: 4
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateThresholds(t *testing.T) {
	cfg := Default()
	cfg.Pressure.LowThreshold = 100
	cfg.Pressure.HighThreshold = 100
	assert.Error(t, cfg.Validate())
}
