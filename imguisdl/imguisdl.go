// Package imguisdl drives Dear ImGui from SDL2 input and hands the rendered
// draw lists over as imguivk draw data.
package imguisdl

import (
	"bytes"
	"fmt"
	"math"
	"unsafe"

	"github.com/inkyblackness/imgui-go/v4"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vulkan-go/imgui-demos/imguivk"
	lin "github.com/xlab/linmath"
)

type fontAtlas struct {
	pix           []byte
	width, height int
}

type GUI struct {
	context *imgui.Context
	io      imgui.IO
	window  *sdl.Window

	font        fontAtlas
	time        uint64
	buttonsDown [3]bool
	showDemo    bool
}

// New creates the ImGui context for window with keyboard navigation, the
// dark style and an SDL scancode key map.
func New(window *sdl.Window, showDemo bool) (*GUI, error) {
	context := imgui.CreateContext(nil)
	io := imgui.CurrentIO()
	io.SetConfigFlags(imgui.ConfigFlagsNavEnableKeyboard)
	imgui.StyleColorsDark()

	g := &GUI{
		context:  context,
		io:       io,
		window:   window,
		showDemo: showDemo,
	}
	g.setKeyMapping()

	atlas := io.Fonts()
	img := atlas.TextureDataRGBA32()
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		context.Destroy()
		return nil, fmt.Errorf("imgui: empty font atlas")
	}
	n := img.Width * img.Height * 4
	g.font = fontAtlas{
		pix:    append([]byte(nil), castBytes(img.Pixels, n)...),
		width:  img.Width,
		height: img.Height,
	}
	log.WithFields(log.Fields{
		"width":  img.Width,
		"height": img.Height,
	}).Debugln("imgui: font atlas built")
	return g, nil
}

// FontAtlas returns the RGBA font atlas pixels for upload.
func (g *GUI) FontAtlas() (pix []byte, width, height int) {
	return g.font.pix, g.font.width, g.font.height
}

// SetFontTextureID tags the font atlas with the id the renderer gave it.
// The CPU copy of the pixels is dropped.
func (g *GUI) SetFontTextureID(id uintptr) {
	g.io.Fonts().SetTextureID(imgui.TextureID(id))
	g.font.pix = nil
}

func (g *GUI) Destroy() {
	if g.context != nil {
		g.context.Destroy()
		g.context = nil
	}
}

// ProcessEvent feeds one SDL event to ImGui.
func (g *GUI) ProcessEvent(event sdl.Event) {
	switch t := event.(type) {
	case *sdl.MouseWheelEvent:
		var dx, dy float32
		if t.X > 0 {
			dx++
		} else if t.X < 0 {
			dx--
		}
		if t.Y > 0 {
			dy++
		} else if t.Y < 0 {
			dy--
		}
		g.io.AddMouseWheelDelta(dx, dy)
	case *sdl.MouseButtonEvent:
		if t.Type != sdl.MOUSEBUTTONDOWN {
			return
		}
		switch t.Button {
		case sdl.BUTTON_LEFT:
			g.buttonsDown[0] = true
		case sdl.BUTTON_RIGHT:
			g.buttonsDown[1] = true
		case sdl.BUTTON_MIDDLE:
			g.buttonsDown[2] = true
		}
	case *sdl.TextInputEvent:
		text := t.Text[:]
		if i := bytes.IndexByte(text, 0); i >= 0 {
			text = text[:i]
		}
		g.io.AddInputCharacters(string(text))
	case *sdl.KeyboardEvent:
		if t.Type == sdl.KEYDOWN {
			g.io.KeyPress(int(t.Keysym.Scancode))
		} else if t.Type == sdl.KEYUP {
			g.io.KeyRelease(int(t.Keysym.Scancode))
		}
		g.updateKeyModifiers()
	}
}

// NewFrame updates display size, timing and mouse state, then starts a
// new ImGui frame.
func (g *GUI) NewFrame() {
	w, h := g.window.GetSize()
	g.io.SetDisplaySize(imgui.Vec2{X: float32(w), Y: float32(h)})

	frequency := sdl.GetPerformanceFrequency()
	now := sdl.GetPerformanceCounter()
	if g.time > 0 {
		g.io.SetDeltaTime(float32(now-g.time) / float32(frequency))
	} else {
		g.io.SetDeltaTime(1.0 / 60.0)
	}
	g.time = now

	x, y, state := sdl.GetMouseState()
	if g.window.GetFlags()&sdl.WINDOW_INPUT_FOCUS != 0 {
		g.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	} else {
		g.io.SetMousePosition(imgui.Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32})
	}
	for i, button := range []uint32{sdl.BUTTON_LEFT, sdl.BUTTON_RIGHT, sdl.BUTTON_MIDDLE} {
		g.io.SetMouseButtonDown(i, g.buttonsDown[i] || state&sdl.Button(button) != 0)
		g.buttonsDown[i] = false
	}

	imgui.NewFrame()
}

// Build lays out the demo window, when enabled, and the sample window.
func (g *GUI) Build() {
	if g.showDemo {
		imgui.ShowDemoWindow(&g.showDemo)
	}

	imgui.Begin("Sample window")
	imgui.Text("Hello, World!")
	imgui.End()
}

// VertexLayout is the layout of the vertices Render hands out.
func (g *GUI) VertexLayout() imguivk.VertexLayout {
	return vertexLayout()
}

func vertexLayout() imguivk.VertexLayout {
	size, posOffset, uvOffset, colOffset := imgui.VertexBufferLayout()
	return imguivk.VertexLayout{
		Size:      size,
		PosOffset: posOffset,
		UVOffset:  uvOffset,
		ColOffset: colOffset,
	}
}

// Render finishes the frame and converts the draw lists. fbScale maps
// window coordinates to framebuffer pixels.
func (g *GUI) Render(fbScale lin.Vec2) imguivk.DrawData {
	imgui.Render()
	return convertDrawData(imgui.RenderedDrawData(), fbScale)
}

// convertDrawData copies the draw lists out of ImGui. Commands carrying a
// user callback become render state resets; the callbacks never run.
func convertDrawData(drawData imgui.DrawData, fbScale lin.Vec2) imguivk.DrawData {
	out := imguivk.DrawData{
		FramebufferScale: fbScale,
		Layout:           vertexLayout(),
		IndexSize:        imgui.IndexBufferLayout(),
	}
	if !drawData.Valid() {
		return out
	}
	pos, displaySize := drawData.DisplayPos(), drawData.DisplaySize()
	out.DisplayPos = lin.Vec2{pos.X, pos.Y}
	out.DisplaySize = lin.Vec2{displaySize.X, displaySize.Y}

	for _, list := range drawData.CommandLists() {
		vertexData, vertexSize := list.VertexBuffer()
		indexData, indexSize := list.IndexBuffer()
		dl := imguivk.DrawList{
			VertexData: append([]byte(nil), castBytes(vertexData, vertexSize)...),
			IndexData:  append([]byte(nil), castBytes(indexData, indexSize)...),
		}
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				dl.Commands = append(dl.Commands, imguivk.Command{ResetRenderState: true})
				continue
			}
			r := cmd.ClipRect()
			dl.Commands = append(dl.Commands, imguivk.Command{
				ElemCount:    cmd.ElementCount(),
				IndexOffset:  cmd.IndexOffset(),
				VertexOffset: cmd.VertexOffset(),
				ClipRect:     lin.Vec4{r.X, r.Y, r.Z, r.W},
				TextureID:    uintptr(cmd.TextureID()),
			})
		}
		out.Lists = append(out.Lists, dl)
	}
	return out
}

func (g *GUI) updateKeyModifiers() {
	g.io.KeyShift(int(sdl.SCANCODE_LSHIFT), int(sdl.SCANCODE_RSHIFT))
	g.io.KeyCtrl(int(sdl.SCANCODE_LCTRL), int(sdl.SCANCODE_RCTRL))
	g.io.KeyAlt(int(sdl.SCANCODE_LALT), int(sdl.SCANCODE_RALT))
	g.io.KeySuper(int(sdl.SCANCODE_LGUI), int(sdl.SCANCODE_RGUI))
}

func (g *GUI) setKeyMapping() {
	keys := map[int]int{
		imgui.KeyTab:        int(sdl.SCANCODE_TAB),
		imgui.KeyLeftArrow:  int(sdl.SCANCODE_LEFT),
		imgui.KeyRightArrow: int(sdl.SCANCODE_RIGHT),
		imgui.KeyUpArrow:    int(sdl.SCANCODE_UP),
		imgui.KeyDownArrow:  int(sdl.SCANCODE_DOWN),
		imgui.KeyPageUp:     int(sdl.SCANCODE_PAGEUP),
		imgui.KeyPageDown:   int(sdl.SCANCODE_PAGEDOWN),
		imgui.KeyHome:       int(sdl.SCANCODE_HOME),
		imgui.KeyEnd:        int(sdl.SCANCODE_END),
		imgui.KeyInsert:     int(sdl.SCANCODE_INSERT),
		imgui.KeyDelete:     int(sdl.SCANCODE_DELETE),
		imgui.KeyBackspace:  int(sdl.SCANCODE_BACKSPACE),
		imgui.KeySpace:      int(sdl.SCANCODE_SPACE),
		imgui.KeyEnter:      int(sdl.SCANCODE_RETURN),
		imgui.KeyEscape:     int(sdl.SCANCODE_ESCAPE),
		imgui.KeyA:          int(sdl.SCANCODE_A),
		imgui.KeyC:          int(sdl.SCANCODE_C),
		imgui.KeyV:          int(sdl.SCANCODE_V),
		imgui.KeyX:          int(sdl.SCANCODE_X),
		imgui.KeyY:          int(sdl.SCANCODE_Y),
		imgui.KeyZ:          int(sdl.SCANCODE_Z),
	}
	for imguiKey, nativeKey := range keys {
		g.io.KeyMap(imguiKey, nativeKey)
	}
}

func castBytes(ptr unsafe.Pointer, size int) []byte {
	if ptr == nil || size <= 0 {
		return nil
	}
	const m = 0x7fffffff
	return (*[m]byte)(ptr)[:size:size]
}
