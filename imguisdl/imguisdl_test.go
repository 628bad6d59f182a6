package imguisdl

import (
	"testing"

	"github.com/inkyblackness/imgui-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

func renderDemoFrame(t *testing.T) imgui.DrawData {
	t.Helper()
	io := imgui.CurrentIO()
	io.SetDisplaySize(imgui.Vec2{X: 800, Y: 600})
	io.Fonts().TextureDataRGBA32()

	for i := 0; i < 2; i++ {
		imgui.NewFrame()
		imgui.ShowDemoWindow(nil)
		imgui.Render()
	}
	drawData := imgui.RenderedDrawData()
	require.True(t, drawData.Valid())
	return drawData
}

func TestConvertDrawData(t *testing.T) {
	context := imgui.CreateContext(nil)
	defer context.Destroy()

	data := convertDrawData(renderDemoFrame(t), lin.Vec2{2, 2})
	assert := assert.New(t)

	require.NotEmpty(t, data.Lists)
	assert.Equal(lin.Vec2{2, 2}, data.FramebufferScale)
	assert.Equal(lin.Vec2{800, 600}, data.DisplaySize)
	assert.Contains([]int{2, 4}, data.IndexSize)
	assert.Equal(20, data.Layout.Size)
	assert.NoError(data.Validate())

	for i, list := range data.Lists {
		assert.Zero(len(list.VertexData)%data.Layout.Size, "list %d", i)
		indices := len(list.IndexData) / data.IndexSize

		sum, next := 0, 0
		for j, cmd := range list.Commands {
			assert.False(cmd.ResetRenderState, "list %d command %d", i, j)
			assert.Equal(next, cmd.IndexOffset, "list %d command %d starts where the previous ended", i, j)
			next = cmd.IndexOffset + cmd.ElemCount
			sum += cmd.ElemCount
		}
		assert.Equal(indices, sum, "list %d: commands cover every index", i)
	}
}

func TestConvertDrawDataInvalid(t *testing.T) {
	data := convertDrawData(imgui.DrawData(0), lin.Vec2{1, 1})
	assert.Empty(t, data.Lists)
	assert.True(t, data.Empty())
}
