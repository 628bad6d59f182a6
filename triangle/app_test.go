package triangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vulkan-go/imgui-demos/config"
	"github.com/vulkan-go/imgui-demos/vulkanwindow"
	lin "github.com/xlab/linmath"
)

func keyEvent(eventType uint32, sym sdl.Keycode) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{
		Type:   eventType,
		Keysym: sdl.Keysym{Sym: sym},
	}
}

func TestHandleEvent(t *testing.T) {
	a := &App{}
	assert := assert.New(t)

	assert.True(a.HandleEvent(&sdl.QuitEvent{Type: sdl.QUIT}))
	assert.True(a.HandleEvent(keyEvent(sdl.KEYDOWN, sdl.K_ESCAPE)))
	assert.False(a.HandleEvent(keyEvent(sdl.KEYUP, sdl.K_ESCAPE)), "only the key press quits")
	assert.False(a.HandleEvent(keyEvent(sdl.KEYDOWN, sdl.K_SPACE)))
	assert.False(a.HandleEvent(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION}))
}

func TestHandleEventWindowClose(t *testing.T) {
	a := &App{}
	assert.True(t, a.HandleEvent(&sdl.WindowEvent{
		Type:  sdl.WINDOWEVENT,
		Event: sdl.WINDOWEVENT_CLOSE,
	}), "without a window the id is 0")
	assert.False(t, a.HandleEvent(&sdl.WindowEvent{
		Type:     sdl.WINDOWEVENT,
		Event:    sdl.WINDOWEVENT_CLOSE,
		WindowID: 7,
	}), "close of another window is ignored")
	assert.False(t, a.HandleEvent(&sdl.WindowEvent{
		Type:  sdl.WINDOWEVENT,
		Event: sdl.WINDOWEVENT_RESIZED,
	}))
}

func TestApplyClearColor(t *testing.T) {
	var cfg config.Configuration
	cfg.Renderer.ClearColor = lin.Vec4{0.4, 0.6, 0.8, 0.5}
	a := &App{
		cfg: cfg,
		win: &vulkanwindow.Window{},
	}
	a.applyClearColor()
	assert.InDeltaSlice(t, []float32{0.2, 0.3, 0.4, 0.5}, a.win.ClearValue[:], 1e-6)

	a.cfg.Renderer.ClearColor = lin.Vec4{1, 0, 0, 1}
	a.applyClearColor()
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, a.win.ClearValue[:], 1e-6,
		"a config change shows up on the next frame")
}
