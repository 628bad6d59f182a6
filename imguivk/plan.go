package imguivk

import (
	"math"

	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// drawCall is one recorded step. A reset call re-binds pipeline state and
// draws nothing.
type drawCall struct {
	reset        bool
	scissor      vk.Rect2D
	indexCount   uint32
	firstIndex   uint32
	vertexOffset int32
	textureID    uintptr
}

// pushConstants maps display coordinates to clip space: scale then translate.
func pushConstants(d *DrawData) [4]float32 {
	var pc [4]float32
	if d.DisplaySize[0] <= 0 || d.DisplaySize[1] <= 0 {
		return pc
	}
	pc[0] = 2 / d.DisplaySize[0]
	pc[1] = 2 / d.DisplaySize[1]
	pc[2] = -1 - d.DisplayPos[0]*pc[0]
	pc[3] = -1 - d.DisplayPos[1]*pc[1]
	return pc
}

// projectClip converts a display-space clip rect to framebuffer pixels,
// clamped to the framebuffer. ok is false for an empty result.
func projectClip(clip lin.Vec4, pos, scale lin.Vec2, fbWidth, fbHeight uint32) (vk.Rect2D, bool) {
	x1 := (clip[0] - pos[0]) * scale[0]
	y1 := (clip[1] - pos[1]) * scale[1]
	x2 := (clip[2] - pos[0]) * scale[0]
	y2 := (clip[3] - pos[1]) * scale[1]

	x1 = float32(math.Max(float64(x1), 0))
	y1 = float32(math.Max(float64(y1), 0))
	x2 = float32(math.Min(float64(x2), float64(fbWidth)))
	y2 = float32(math.Min(float64(y2), float64(fbHeight)))
	if x2 <= x1 || y2 <= y1 {
		return vk.Rect2D{}, false
	}
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(x1), Y: int32(y1)},
		Extent: vk.Extent2D{Width: uint32(x2 - x1), Height: uint32(y2 - y1)},
	}, true
}

// planDrawCalls turns d into draw calls against one vertex buffer and one
// index buffer holding every list back to back.
func planDrawCalls(d *DrawData, fbWidth, fbHeight uint32) []drawCall {
	scale := d.FramebufferScale
	if scale[0] == 0 || scale[1] == 0 {
		scale = lin.Vec2{1, 1}
	}
	var calls []drawCall
	var globalIdx, globalVtx int
	for _, list := range d.Lists {
		for _, cmd := range list.Commands {
			if cmd.ResetRenderState {
				calls = append(calls, drawCall{reset: true})
				continue
			}
			if cmd.ElemCount == 0 {
				continue
			}
			scissor, ok := projectClip(cmd.ClipRect, d.DisplayPos, scale, fbWidth, fbHeight)
			if !ok {
				continue
			}
			calls = append(calls, drawCall{
				scissor:      scissor,
				indexCount:   uint32(cmd.ElemCount),
				firstIndex:   uint32(cmd.IndexOffset + globalIdx),
				vertexOffset: int32(cmd.VertexOffset + globalVtx),
				textureID:    cmd.TextureID,
			})
		}
		globalIdx += len(list.IndexData) / d.IndexSize
		globalVtx += len(list.VertexData) / d.Layout.Size
	}
	return calls
}
