// Package config reads the demo settings from the environment, optionally
// seeded from .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	lin "github.com/xlab/linmath"
)

const (
	EnvWindowTitle        = "VKDEMO_WINDOW_TITLE"
	EnvWindowWidth        = "VKDEMO_WINDOW_WIDTH"
	EnvWindowHeight       = "VKDEMO_WINDOW_HEIGHT"
	EnvMinImageCount      = "VKDEMO_MIN_IMAGE_COUNT"
	EnvDebug              = "VKDEMO_DEBUG"
	EnvUnlimitedFrameRate = "VKDEMO_UNLIMITED_FRAME_RATE"
	EnvFramesPerSecond    = "VKDEMO_FRAMES_PER_SECOND"
	EnvClearColor         = "VKDEMO_CLEAR_COLOR"
	EnvShowDemoWindow     = "VKDEMO_SHOW_DEMO_WINDOW"
	EnvLogLevel           = "VKDEMO_LOG_LEVEL"
)

// Configuration is the complete demo setup.
type Configuration struct {
	Window   WindowConfiguration
	Renderer RendererConfiguration
	Time     TimeConfiguration
	GUI      GUIConfiguration
	LogLevel string
}

type WindowConfiguration struct {
	Title  string
	Width  int32
	Height int32
}

// RendererConfiguration is used to configure the Vulkan side
type RendererConfiguration struct {
	MinImageCount uint32
	// Debug turns on the validation layer and the debug report callback.
	Debug bool
	// UnlimitedFrameRate prefers MAILBOX and IMMEDIATE over FIFO.
	UnlimitedFrameRate bool
	ClearColor         lin.Vec4
}

// TimeConfiguration is used to configure frame pacing
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// FrameDelay is the ticker period for the main loop, 0 when unpaced.
func (t TimeConfiguration) FrameDelay() time.Duration {
	if t.FramesPerSecond <= 0 {
		return 0
	}
	return time.Second / time.Duration(t.FramesPerSecond)
}

type GUIConfiguration struct {
	ShowDemoWindow bool
}

func Default() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:  "Triangle App",
			Width:  1200,
			Height: 800,
		},
		Renderer: RendererConfiguration{
			MinImageCount: 2,
			ClearColor:    lin.Vec4{0.45, 0.55, 0.60, 1.00},
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		GUI: GUIConfiguration{
			ShowDemoWindow: true,
		},
		LogLevel: "info",
	}
}

// Load seeds the environment from the given .env files and builds the
// configuration from it. Missing files are skipped and variables that already
// hold a non-empty value win over the files.
func Load(files ...string) (Configuration, error) {
	for _, name := range files {
		if err := seed(name); err != nil {
			return Configuration{}, err
		}
	}
	return FromEnv()
}

func seed(name string) error {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return nil
	}
	values, err := godotenv.Read(name)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", name, err)
	}
	for k, v := range values {
		if _, ok := lookup(k); ok {
			continue
		}
		envy.Set(k, v)
	}
	log.WithField("file", name).Debugln("config: environment seeded")
	return nil
}

// FromEnv builds the configuration from the current environment, falling
// back to Default for unset variables.
func FromEnv() (Configuration, error) {
	cfg := Default()
	var err error

	cfg.Window.Title = stringVar(EnvWindowTitle, cfg.Window.Title)
	if cfg.Window.Width, err = int32Var(EnvWindowWidth, cfg.Window.Width); err != nil {
		return cfg, err
	}
	if cfg.Window.Height, err = int32Var(EnvWindowHeight, cfg.Window.Height); err != nil {
		return cfg, err
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return cfg, fmt.Errorf("config: window size %dx%d must be positive",
			cfg.Window.Width, cfg.Window.Height)
	}

	minImages, err := int32Var(EnvMinImageCount, int32(cfg.Renderer.MinImageCount))
	if err != nil {
		return cfg, err
	}
	if minImages < 1 {
		return cfg, fmt.Errorf("config: %s must be at least 1, got %d", EnvMinImageCount, minImages)
	}
	cfg.Renderer.MinImageCount = uint32(minImages)
	if cfg.Renderer.Debug, err = boolVar(EnvDebug, cfg.Renderer.Debug); err != nil {
		return cfg, err
	}
	if cfg.Renderer.UnlimitedFrameRate, err = boolVar(EnvUnlimitedFrameRate, cfg.Renderer.UnlimitedFrameRate); err != nil {
		return cfg, err
	}
	if raw, ok := lookup(EnvClearColor); ok {
		if cfg.Renderer.ClearColor, err = ParseColor(raw); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", EnvClearColor, err)
		}
	}

	fps, err := int32Var(EnvFramesPerSecond, int32(cfg.Time.FramesPerSecond))
	if err != nil {
		return cfg, err
	}
	if fps < 0 {
		return cfg, fmt.Errorf("config: %s must not be negative, got %d", EnvFramesPerSecond, fps)
	}
	cfg.Time.FramesPerSecond = int(fps)

	if cfg.GUI.ShowDemoWindow, err = boolVar(EnvShowDemoWindow, cfg.GUI.ShowDemoWindow); err != nil {
		return cfg, err
	}

	cfg.LogLevel = stringVar(EnvLogLevel, cfg.LogLevel)
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
	}
	return cfg, nil
}

// ParseColor reads "r,g,b,a" with every component in [0, 1].
func ParseColor(s string) (lin.Vec4, error) {
	var c lin.Vec4
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return c, fmt.Errorf("colour %q needs 4 components, got %d", s, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return c, fmt.Errorf("colour %q: %w", s, err)
		}
		if v < 0 || v > 1 {
			return c, fmt.Errorf("colour %q: component %d out of range", s, i)
		}
		c[i] = float32(v)
	}
	return c, nil
}

// SetupLogging configures logrus the same way for every binary.
func SetupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(lvl)
	return nil
}

func lookup(key string) (string, bool) {
	v, err := envy.MustGet(key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// stringVar treats an empty variable as unset, unlike envy.Get.
func stringVar(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

func int32Var(key string, def int32) (int32, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return int32(v), nil
}

func boolVar(key string, def bool) (bool, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}
