package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

var allVars = []string{
	EnvWindowTitle, EnvWindowWidth, EnvWindowHeight, EnvMinImageCount,
	EnvDebug, EnvUnlimitedFrameRate, EnvFramesPerSecond, EnvClearColor,
	EnvShowDemoWindow, EnvLogLevel,
}

// withEnv runs f with every VKDEMO_ variable cleared and vars applied,
// restoring the environment afterwards.
func withEnv(vars map[string]string, f func()) {
	envy.Temp(func() {
		for _, k := range allVars {
			envy.Set(k, "")
		}
		for k, v := range vars {
			envy.Set(k, v)
		}
		f()
	})
}

func TestDefaults(t *testing.T) {
	withEnv(nil, func() {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, "Triangle App", cfg.Window.Title)
		assert.EqualValues(t, 1200, cfg.Window.Width)
		assert.EqualValues(t, 800, cfg.Window.Height)
		assert.EqualValues(t, 2, cfg.Renderer.MinImageCount)
		assert.False(t, cfg.Renderer.Debug)
		assert.True(t, cfg.GUI.ShowDemoWindow)
	})
}

func TestFromEnv(t *testing.T) {
	withEnv(map[string]string{
		EnvWindowTitle:        "Other",
		EnvWindowWidth:        "640",
		EnvWindowHeight:       "480",
		EnvMinImageCount:      "3",
		EnvDebug:              "true",
		EnvUnlimitedFrameRate: "1",
		EnvFramesPerSecond:    "0",
		EnvClearColor:         "0, 0, 0, 1",
		EnvShowDemoWindow:     "false",
		EnvLogLevel:           "debug",
	}, func() {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "Other", cfg.Window.Title)
		assert.EqualValues(t, 640, cfg.Window.Width)
		assert.EqualValues(t, 480, cfg.Window.Height)
		assert.EqualValues(t, 3, cfg.Renderer.MinImageCount)
		assert.True(t, cfg.Renderer.Debug)
		assert.True(t, cfg.Renderer.UnlimitedFrameRate)
		assert.Equal(t, lin.Vec4{0, 0, 0, 1}, cfg.Renderer.ClearColor)
		assert.Equal(t, 0, cfg.Time.FramesPerSecond)
		assert.False(t, cfg.GUI.ShowDemoWindow)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]string{
		EnvWindowWidth:     "wide",
		EnvWindowHeight:    "-1",
		EnvMinImageCount:   "0",
		EnvDebug:           "maybe",
		EnvFramesPerSecond: "-5",
		EnvClearColor:      "1,1,1",
		EnvLogLevel:        "chatty",
	}
	for key, value := range cases {
		withEnv(map[string]string{key: value}, func() {
			_, err := FromEnv()
			assert.Error(t, err, "%s=%s", key, value)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("0.45,0.55,0.60,1.00")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.45, 0.55, 0.60, 1}, c[:], 1e-6)

	_, err = ParseColor("0.5,0.5,0.5,2")
	assert.Error(t, err)
	_, err = ParseColor("red,0,0,1")
	assert.Error(t, err)
}

func TestFrameDelay(t *testing.T) {
	assert.Equal(t, time.Second/60, TimeConfiguration{FramesPerSecond: 60}.FrameDelay())
	assert.Equal(t, time.Duration(0), TimeConfiguration{}.FrameDelay())
}

func TestLoadSeedsFromFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "demo.env")
	require.NoError(t, os.WriteFile(name, []byte(
		EnvWindowTitle+"=From File\n"+EnvWindowWidth+"=800\n"), 0o600))

	withEnv(nil, func() {
		envy.Set(EnvWindowWidth, "1024")

		cfg, err := Load(name, filepath.Join(dir, "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "From File", cfg.Window.Title)
		assert.EqualValues(t, 1024, cfg.Window.Width, "environment wins over the file")
	})
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, SetupLogging("warn"))
	assert.Error(t, SetupLogging("loud"))
}
