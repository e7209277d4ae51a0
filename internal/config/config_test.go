// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 1280, cfg.StreamWidth)
	assert.Equal(t, 720, cfg.StreamHeight)
	assert.Equal(t, 15, cfg.InferenceRateHz)
	assert.Equal(t, "scripted", cfg.ModelMode)
	assert.False(t, cfg.UseHardware)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STREAM_RES", "640x480")
	t.Setenv("USE_HARDWARE", "true")
	t.Setenv("INFERENCE_RATE_HZ", "30")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://pet.example")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 640, cfg.StreamWidth)
	assert.Equal(t, 480, cfg.StreamHeight)
	assert.True(t, cfg.UseHardware)
	assert.Equal(t, 30, cfg.InferenceRateHz)
	assert.Equal(t, []string{"http://localhost:3000", "https://pet.example"}, cfg.CORSOrigins)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("STREAM_RES", "garbage")
	t.Setenv("INFERENCE_RATE_HZ", "0")

	cfg := Load()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 1280, cfg.StreamWidth)
	// rate is floored at 1 to keep pacing well defined
	assert.Equal(t, 1, cfg.InferenceRateHz)
}

func TestConfigFileSeedsDefaultsEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petpal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6001\nmodel_mode: scripted\nstream_res: 320x240\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "6002")

	cfg := Load()

	// env overrides file, file overrides defaults
	assert.Equal(t, 6002, cfg.Port)
	assert.Equal(t, 320, cfg.StreamWidth)
	assert.Equal(t, 240, cfg.StreamHeight)
}

func TestParseBoolForms(t *testing.T) {
	t.Setenv("USE_HARDWARE", "yes")
	assert.True(t, ParseBool("USE_HARDWARE", false))

	t.Setenv("USE_HARDWARE", "0")
	assert.False(t, ParseBool("USE_HARDWARE", true))

	t.Setenv("USE_HARDWARE", "maybe")
	assert.True(t, ParseBool("USE_HARDWARE", true))
}
