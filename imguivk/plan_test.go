package imguivk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

func TestPushConstants(t *testing.T) {
	d := &DrawData{
		DisplayPos:  lin.Vec2{10, 20},
		DisplaySize: lin.Vec2{200, 100},
	}
	pc := pushConstants(d)
	assert.InDeltaSlice(t, []float32{0.01, 0.02, -1.1, -1.4}, pc[:], 1e-6)

	// The display corners land on the clip space corners.
	assert.InDelta(t, -1, 10*pc[0]+pc[2], 1e-6)
	assert.InDelta(t, 1, 210*pc[0]+pc[2], 1e-6)
	assert.InDelta(t, 1, 120*pc[1]+pc[3], 1e-6)

	assert.Equal(t, [4]float32{}, pushConstants(&DrawData{}))
}

func TestProjectClip(t *testing.T) {
	assert := assert.New(t)

	r, ok := projectClip(lin.Vec4{10, 10, 50, 30}, lin.Vec2{}, lin.Vec2{2, 2}, 200, 200)
	require.True(t, ok)
	assert.Equal(vk.Rect2D{
		Offset: vk.Offset2D{X: 20, Y: 20},
		Extent: vk.Extent2D{Width: 80, Height: 40},
	}, r)

	r, ok = projectClip(lin.Vec4{-10, -10, 500, 500}, lin.Vec2{}, lin.Vec2{1, 1}, 100, 80)
	require.True(t, ok)
	assert.Equal(vk.Rect2D{Extent: vk.Extent2D{Width: 100, Height: 80}}, r, "clamped to the framebuffer")

	r, ok = projectClip(lin.Vec4{110, 10, 130, 30}, lin.Vec2{100, 0}, lin.Vec2{1, 1}, 100, 80)
	require.True(t, ok)
	assert.EqualValues(10, r.Offset.X, "display position is subtracted")

	_, ok = projectClip(lin.Vec4{150, 10, 170, 30}, lin.Vec2{}, lin.Vec2{1, 1}, 100, 80)
	assert.False(ok, "fully outside")
	_, ok = projectClip(lin.Vec4{10, 10, 10, 30}, lin.Vec2{}, lin.Vec2{1, 1}, 100, 80)
	assert.False(ok, "zero width")
}

func TestPlanDrawCallsCarriesOffsets(t *testing.T) {
	full := lin.Vec4{0, 0, 100, 50}
	d := quadData(
		quadList(
			Command{ElemCount: 3, ClipRect: full, TextureID: 1},
			Command{ElemCount: 3, IndexOffset: 3, VertexOffset: 1, ClipRect: full, TextureID: 1},
		),
		quadList(
			Command{ElemCount: 6, IndexOffset: 0, VertexOffset: 2, ClipRect: full, TextureID: 5},
		),
	)
	require.NoError(t, d.Validate())

	calls := planDrawCalls(d, 100, 50)
	require.Len(t, calls, 3)

	assert.EqualValues(t, 3, calls[0].indexCount)
	assert.EqualValues(t, 0, calls[0].firstIndex)
	assert.EqualValues(t, 0, calls[0].vertexOffset)

	assert.EqualValues(t, 3, calls[1].firstIndex)
	assert.EqualValues(t, 1, calls[1].vertexOffset)

	// The second list starts after the 6 indices and 4 vertices of the first.
	assert.EqualValues(t, 6, calls[2].firstIndex)
	assert.EqualValues(t, 6, calls[2].vertexOffset)
	assert.EqualValues(t, 5, calls[2].textureID)
}

func TestPlanDrawCallsResetAndSkips(t *testing.T) {
	full := lin.Vec4{0, 0, 100, 50}
	d := quadData(quadList(
		Command{ElemCount: 3, ClipRect: full},
		Command{ResetRenderState: true},
		Command{ElemCount: 0, ClipRect: full},
		Command{ElemCount: 3, IndexOffset: 3, ClipRect: lin.Vec4{200, 0, 300, 50}},
		Command{ElemCount: 3, IndexOffset: 3, ClipRect: full},
	))
	d.FramebufferScale = lin.Vec2{}

	calls := planDrawCalls(d, 100, 50)
	require.Len(t, calls, 3)
	assert.False(t, calls[0].reset)
	assert.True(t, calls[1].reset, "callback slot resets state")
	assert.Zero(t, calls[1].indexCount, "reset draws nothing")
	assert.EqualValues(t, 3, calls[2].firstIndex)
	assert.Equal(t, vk.Extent2D{Width: 100, Height: 50}, calls[2].scissor.Extent,
		"zero framebuffer scale is treated as 1")
}

func TestBufferCapacity(t *testing.T) {
	assert.Equal(t, minBufferSize, bufferCapacity(0))
	assert.Equal(t, minBufferSize, bufferCapacity(minBufferSize))
	assert.Equal(t, 2*minBufferSize, bufferCapacity(minBufferSize+1))
	assert.Equal(t, 1<<20, bufferCapacity(1<<20-5))
}

func TestIndexType(t *testing.T) {
	assert.Equal(t, vk.IndexTypeUint16, indexType(2))
	assert.Equal(t, vk.IndexTypeUint32, indexType(4))
}

func TestVertexAttributes(t *testing.T) {
	attrs := vertexAttributes(imguiLayout)
	require.Len(t, attrs, 3)
	for i, a := range attrs {
		assert.EqualValues(t, i, a.Location)
	}
	assert.EqualValues(t, 8, attrs[1].Offset)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, attrs[2].Format)
	assert.EqualValues(t, 16, attrs[2].Offset)
}

func TestSpirvBytes(t *testing.T) {
	for name, words := range map[string][]uint32{
		"vertex":   vertexShaderCode,
		"fragment": fragmentShaderCode,
	} {
		b := spirvBytes(words)
		assert.Len(t, b, 4*len(words), name)
		assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, b[:4], "%s: little endian SPIR-V magic", name)
	}
}
