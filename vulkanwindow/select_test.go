package vulkanwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

func surfaceFormat(f vk.Format) vk.SurfaceFormat {
	return vk.SurfaceFormat{Format: f, ColorSpace: colorSpaceSrgbNonlinear}
}

func TestSelectSurfaceFormat(t *testing.T) {
	assert := assert.New(t)

	got := selectSurfaceFormat([]vk.SurfaceFormat{
		surfaceFormat(vk.FormatR8g8b8a8Unorm),
		surfaceFormat(vk.FormatB8g8r8a8Unorm),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatB8g8r8a8Unorm, got.Format, "request order wins over availability order")

	got = selectSurfaceFormat([]vk.SurfaceFormat{
		surfaceFormat(vk.FormatUndefined),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatB8g8r8a8Unorm, got.Format)
	assert.Equal(colorSpaceSrgbNonlinear, got.ColorSpace)

	got = selectSurfaceFormat([]vk.SurfaceFormat{
		surfaceFormat(vk.FormatR8g8b8a8Srgb),
		surfaceFormat(vk.FormatB8g8r8a8Srgb),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatR8g8b8a8Srgb, got.Format, "no match falls back to the first available")

	got = selectSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpace(1000104001)},
		surfaceFormat(vk.FormatR8g8b8a8Unorm),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatR8g8b8a8Unorm, got.Format, "colour space must match too")
}

func TestSelectPresentMode(t *testing.T) {
	assert := assert.New(t)

	all := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo, vk.PresentModeMailbox}
	assert.Equal(vk.PresentModeFifo, selectPresentMode(all, presentModes(false)))
	assert.Equal(vk.PresentModeMailbox, selectPresentMode(all, presentModes(true)))

	noMailbox := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}
	assert.Equal(vk.PresentModeImmediate, selectPresentMode(noMailbox, presentModes(true)))

	assert.Equal(vk.PresentModeFifo, selectPresentMode(nil, presentModes(true)))
}

func TestMinImageCountForPresentMode(t *testing.T) {
	assert := assert.New(t)
	assert.EqualValues(3, minImageCountForPresentMode(vk.PresentModeMailbox))
	assert.EqualValues(2, minImageCountForPresentMode(vk.PresentModeFifo))
	assert.EqualValues(1, minImageCountForPresentMode(vk.PresentModeImmediate))
}

func TestClampImageCount(t *testing.T) {
	assert := assert.New(t)
	assert.EqualValues(2, clampImageCount(1, 2, 8))
	assert.EqualValues(3, clampImageCount(3, 2, 8))
	assert.EqualValues(8, clampImageCount(16, 2, 8))
	assert.EqualValues(16, clampImageCount(16, 2, 0), "zero max means unbounded")
}

func TestSwapchainExtent(t *testing.T) {
	assert := assert.New(t)

	e := swapchainExtent(vk.Extent2D{Width: 640, Height: 480}, 1200, 800)
	assert.EqualValues(640, e.Width)
	assert.EqualValues(480, e.Height)

	e = swapchainExtent(vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent}, 1200, 800)
	assert.EqualValues(1200, e.Width)
	assert.EqualValues(800, e.Height)
}

func TestSetClearColor(t *testing.T) {
	w := &Window{}
	w.SetClearColor(lin.Vec4{0.45, 0.55, 0.60, 0.5})
	assert.InDeltaSlice(t, []float32{0.225, 0.275, 0.30, 0.5}, w.ClearValue[:], 1e-6)

	w.SetClearColor(lin.Vec4{0.45, 0.55, 0.60, 1})
	assert.InDeltaSlice(t, []float32{0.45, 0.55, 0.60, 1}, w.ClearValue[:], 1e-6)
}

func TestSelectSurfaceFormatAvoidsSrgb(t *testing.T) {
	assert := assert.New(t)

	got := selectSurfaceFormat([]vk.SurfaceFormat{
		surfaceFormat(vk.FormatB8g8r8a8Srgb),
		surfaceFormat(vk.FormatA2b10g10r10UnormPack32),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatA2b10g10r10UnormPack32, got.Format, "a linear format beats the first sRGB one")

	got = selectSurfaceFormat([]vk.SurfaceFormat{
		surfaceFormat(vk.FormatB8g8r8a8Srgb),
		surfaceFormat(vk.FormatR8g8b8a8Srgb),
	}, requestedFormats, colorSpaceSrgbNonlinear)
	assert.Equal(vk.FormatB8g8r8a8Srgb, got.Format, "all sRGB falls back to the first available")

	assert.True(isSrgbFormat(vk.FormatR8g8b8a8Srgb))
	assert.True(isSrgbFormat(vk.FormatB8g8r8Srgb))
	assert.False(isSrgbFormat(vk.FormatB8g8r8a8Unorm))
}

func TestPreTransform(t *testing.T) {
	assert := assert.New(t)

	caps := vk.SurfaceCapabilities{
		SupportedTransforms: vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit | vk.SurfaceTransformRotate90Bit),
		CurrentTransform:    vk.SurfaceTransformRotate90Bit,
	}
	assert.Equal(vk.SurfaceTransformIdentityBit, preTransform(caps))

	caps.SupportedTransforms = vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit)
	assert.Equal(vk.SurfaceTransformRotate90Bit, preTransform(caps),
		"without identity support the current transform is used")
}
