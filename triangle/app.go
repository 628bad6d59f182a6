// Package triangle is the SDL2 + Vulkan demo application: it owns the SDL
// window, the Vulkan context and swapchain, and optionally the ImGui renderer.
package triangle

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vulkan-go/imgui-demos/config"
	"github.com/vulkan-go/imgui-demos/imguisdl"
	"github.com/vulkan-go/imgui-demos/imguivk"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	"github.com/vulkan-go/imgui-demos/vulkanwindow"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

type App struct {
	cfg    config.Configuration
	window *sdl.Window
	ctx    *vulkanctx.Context
	win    *vulkanwindow.Window

	gui      *imguisdl.GUI
	renderer *imguivk.Renderer
	drawData imguivk.DrawData

	rebuild bool
}

// New opens the window and brings up Vulkan on it. With withGUI set the
// ImGui context and its Vulkan renderer are created as well. SDL and the Vulkan loader must already
// be initialised.
func New(cfg config.Configuration, withGUI bool) (*App, error) {
	a := &App{cfg: cfg}
	var unwind vulkanctx.Unwind
	defer unwind.Unwind()

	window, err := sdl.CreateWindow(cfg.Window.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		cfg.Window.Width, cfg.Window.Height,
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		return nil, fmt.Errorf("sdl.CreateWindow failed with %s", err)
	}
	a.window = window
	unwind.Add(func() {
		window.Destroy()
	})

	ctxCfg := vulkanctx.DefaultConfig(cfg.Window.Title)
	ctxCfg.Debug = cfg.Renderer.Debug
	a.ctx, err = vulkanctx.New(ctxCfg, window.VulkanGetInstanceExtensions())
	if err != nil {
		return nil, err
	}
	unwind.Add(func() {
		a.ctx.Destroy()
	})

	surfPtr, err := window.VulkanCreateSurface(a.ctx.Instance)
	if err != nil {
		return nil, fmt.Errorf("sdl.VulkanCreateSurface failed with %s", err)
	}
	surface := vk.SurfaceFromPointer(surfPtr)

	w, h := window.VulkanGetDrawableSize()
	a.win, err = vulkanwindow.Setup(a.ctx, surface, uint32(w), uint32(h), vulkanwindow.Options{
		MinImageCount:      cfg.Renderer.MinImageCount,
		UnlimitedFrameRate: cfg.Renderer.UnlimitedFrameRate,
	})
	if err != nil {
		vk.DestroySurface(a.ctx.Instance, surface, nil)
		return nil, err
	}
	unwind.Add(func() {
		a.win.Destroy(a.ctx)
	})
	a.applyClearColor()

	if withGUI {
		if err := a.setupGUI(); err != nil {
			return nil, err
		}
	}

	unwind.Discard()
	return a, nil
}

// HandleEvent forwards event to the GUI and reports whether it asks the
// application to quit.
func (a *App) HandleEvent(event sdl.Event) (quit bool) {
	if a.gui != nil {
		a.gui.ProcessEvent(event)
	}
	switch t := event.(type) {
	case *sdl.QuitEvent:
		return true
	case *sdl.WindowEvent:
		if t.Event == sdl.WINDOWEVENT_CLOSE && t.WindowID == a.windowID() {
			return true
		}
	case *sdl.KeyboardEvent:
		if t.Type == sdl.KEYDOWN && t.Keysym.Sym == sdl.K_ESCAPE {
			return true
		}
	}
	return false
}

// Frame rebuilds the swapchain when needed, lays out the GUI and renders
// and presents one frame. Nothing is drawn while the window is minimized.
func (a *App) Frame() error {
	if a.rebuild {
		w, h := a.window.VulkanGetDrawableSize()
		if w > 0 && h > 0 {
			err := a.win.CreateOrResize(a.ctx, uint32(w), uint32(h), a.cfg.Renderer.MinImageCount)
			if err != nil {
				return err
			}
			a.win.FrameIndex = 0
			a.rebuild = false
		}
	}

	a.applyClearColor()
	var record vulkanwindow.RecordFunc
	if a.gui != nil {
		a.gui.NewFrame()
		a.gui.Build()
		a.drawData = a.gui.Render(a.framebufferScale())
		record = a.recordGUI
	}

	if a.minimized() {
		return nil
	}
	a.rebuild = a.win.FrameRender(a.ctx, record)
	a.rebuild = a.win.FramePresent(a.ctx, a.rebuild)
	return nil
}

func (a *App) setupGUI() error {
	gui, err := imguisdl.New(a.window, a.cfg.GUI.ShowDemoWindow)
	if err != nil {
		return err
	}
	pix, fw, fh := gui.FontAtlas()
	renderer, err := imguivk.New(a.ctx, a.win.RenderPass, gui.VertexLayout())
	if err != nil {
		gui.Destroy()
		return err
	}
	id, err := renderer.CreateFontTexture(a.ctx, pix, fw, fh)
	if err != nil {
		renderer.Destroy()
		gui.Destroy()
		return err
	}
	gui.SetFontTextureID(id)
	a.gui, a.renderer = gui, renderer
	return nil
}

// recordGUI draws the last rendered GUI frame inside the window's render
// pass. Bad draw data drops the GUI for that frame only.
func (a *App) recordGUI(cmd vk.CommandBuffer, frameIndex uint32) {
	err := a.renderer.Record(cmd, frameIndex, &a.drawData, a.win.Width, a.win.Height)
	if err != nil {
		log.WithError(err).Warnln("triangle: GUI draw skipped")
	}
}

// applyClearColor pushes the configured clear colour to the swapchain. It
// runs at the top of every frame so the GUI sees the colour of this frame.
func (a *App) applyClearColor() {
	a.win.SetClearColor(a.cfg.Renderer.ClearColor)
}

// Destroy tears everything down in reverse creation order.
func (a *App) Destroy() {
	if a.ctx != nil {
		a.ctx.WaitIdle()
	}
	if a.renderer != nil {
		a.renderer.Destroy()
		a.renderer = nil
	}
	if a.gui != nil {
		a.gui.Destroy()
		a.gui = nil
	}
	if a.win != nil {
		a.win.Destroy(a.ctx)
		a.win = nil
	}
	if a.ctx != nil {
		a.ctx.Destroy()
		a.ctx = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
}

// SwapchainSize is the current backbuffer size in pixels.
func (a *App) SwapchainSize() (uint32, uint32) {
	return a.win.Width, a.win.Height
}

func (a *App) framebufferScale() lin.Vec2 {
	w, h := a.window.GetSize()
	fw, fh := a.window.VulkanGetDrawableSize()
	if w <= 0 || h <= 0 {
		return lin.Vec2{1, 1}
	}
	return lin.Vec2{float32(fw) / float32(w), float32(fh) / float32(h)}
}

func (a *App) minimized() bool {
	if a.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return true
	}
	w, h := a.window.GetSize()
	return w <= 0 || h <= 0
}

func (a *App) windowID() uint32 {
	if a.window == nil {
		return 0
	}
	id, err := a.window.GetID()
	if err != nil {
		return 0
	}
	return id
}
