package vulkanwindow

import (
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// colorSpaceSrgbNonlinear is VK_COLOR_SPACE_SRGB_NONLINEAR_KHR.
const colorSpaceSrgbNonlinear vk.ColorSpace = 0

// undefinedExtent marks a surface whose size is decided by the swapchain.
const undefinedExtent = 0xFFFFFFFF

var requestedFormats = []vk.Format{
	vk.FormatB8g8r8a8Unorm,
	vk.FormatR8g8b8a8Unorm,
	vk.FormatB8g8r8Unorm,
	vk.FormatR8g8b8Unorm,
}

// presentModes returns the present modes to try, most preferred first.
func presentModes(unlimitedFrameRate bool) []vk.PresentMode {
	if unlimitedFrameRate {
		return []vk.PresentMode{
			vk.PresentModeMailbox,
			vk.PresentModeImmediate,
			vk.PresentModeFifo,
		}
	}
	return []vk.PresentMode{vk.PresentModeFifo}
}

// selectSurfaceFormat picks the first requested format available in the
// requested colour space. A single UNDEFINED entry means the surface takes
// anything. With no match the first available non-sRGB format is used, and
// the first available format only when every one of them is sRGB.
func selectSurfaceFormat(available []vk.SurfaceFormat,
	requested []vk.Format, colorSpace vk.ColorSpace) vk.SurfaceFormat {

	if len(available) == 0 {
		return vk.SurfaceFormat{Format: requested[0], ColorSpace: colorSpace}
	}
	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: requested[0], ColorSpace: colorSpace}
	}
	for _, want := range requested {
		for _, have := range available {
			if have.Format == want && have.ColorSpace == colorSpace {
				return have
			}
		}
	}
	for _, have := range available {
		if !isSrgbFormat(have.Format) {
			return have
		}
	}
	log.WithField("format", available[0].Format).
		Warnln("[vulkan] only sRGB surface formats available, GUI colours will look washed out")
	return available[0]
}

// selectPresentMode returns the first requested mode the surface supports,
// FIFO otherwise. FIFO is always available.
func selectPresentMode(available, requested []vk.PresentMode) vk.PresentMode {
	for _, want := range requested {
		for _, have := range available {
			if have == want {
				return want
			}
		}
	}
	return vk.PresentModeFifo
}

func minImageCountForPresentMode(mode vk.PresentMode) uint32 {
	switch mode {
	case vk.PresentModeMailbox:
		return 3
	case vk.PresentModeFifo, vk.PresentModeFifoRelaxed:
		return 2
	case vk.PresentModeImmediate:
		return 1
	}
	return 1
}

// clampImageCount keeps want inside [min, max]; max == 0 means no upper limit.
func clampImageCount(want, min, max uint32) uint32 {
	if want < min {
		want = min
	}
	if max != 0 && want > max {
		want = max
	}
	return want
}

// swapchainExtent uses the surface's current extent unless it carries the
// undefined sentinel, in which case the window size is used.
func swapchainExtent(current vk.Extent2D, width, height uint32) vk.Extent2D {
	if current.Width == undefinedExtent {
		return vk.Extent2D{Width: width, Height: height}
	}
	return vk.Extent2D{Width: current.Width, Height: current.Height}
}

// premultiply returns the clear colour with rgb scaled by alpha.
func premultiply(c lin.Vec4) lin.Vec4 {
	return lin.Vec4{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

// isSrgbFormat reports whether format gamma-encodes on write. GUI colours
// are already in sRGB space, so such formats wash them out.
func isSrgbFormat(format vk.Format) bool {
	switch format {
	case vk.FormatR8Srgb, vk.FormatR8g8Srgb,
		vk.FormatR8g8b8Srgb, vk.FormatB8g8r8Srgb,
		vk.FormatR8g8b8a8Srgb, vk.FormatB8g8r8a8Srgb,
		vk.FormatA8b8g8r8SrgbPack32:
		return true
	}
	return false
}

// preTransform keeps the image unrotated when the surface allows it and
// otherwise follows the surface's current transform.
func preTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	identity := vk.SurfaceTransformIdentityBit
	if caps.SupportedTransforms&vk.SurfaceTransformFlags(identity) != 0 {
		return identity
	}
	return caps.CurrentTransform
}
