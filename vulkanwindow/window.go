// Package vulkanwindow owns the swapchain of one window together with the
// render pass, framebuffers and the per-image command and sync objects.
package vulkanwindow

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// Frame is everything recorded against one swapchain image.
type Frame struct {
	CommandPool    vk.CommandPool
	CommandBuffer  vk.CommandBuffer
	Fence          vk.Fence
	Backbuffer     vk.Image
	BackbufferView vk.ImageView
	Framebuffer    vk.Framebuffer
}

type FrameSemaphores struct {
	ImageAcquired  vk.Semaphore
	RenderComplete vk.Semaphore
}

type Options struct {
	MinImageCount      uint32
	UnlimitedFrameRate bool
}

type Window struct {
	Width          uint32
	Height         uint32
	Surface        vk.Surface
	SurfaceFormat  vk.SurfaceFormat
	PresentMode    vk.PresentMode
	PreTransform   vk.SurfaceTransformFlagBits
	Swapchain      vk.Swapchain
	RenderPass     vk.RenderPass
	ClearValue     lin.Vec4
	ImageCount     uint32
	FrameIndex     uint32
	SemaphoreIndex uint32

	Frames          []Frame
	FrameSemaphores []FrameSemaphores
}

// Setup checks that the graphics queue can present to surface, picks the
// surface format and present mode, and builds the swapchain. On success the
// window owns surface and releases it in Destroy.
func Setup(ctx *vulkanctx.Context, surface vk.Surface, width, height uint32, opts Options) (*Window, error) {
	w := &Window{
		Surface: surface,
	}

	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(ctx.PhysicalDevice, ctx.QueueFamily, surface, &supported)
	if err := vk.Error(ret); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceSupport failed with %s", err)
	}
	if !supported.B() {
		return nil, errors.New("vulkan error: no WSI support on physical device")
	}

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(ctx.PhysicalDevice, surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(ctx.PhysicalDevice, surface, &formatCount, formats)
	for i := range formats {
		formats[i].Deref()
	}
	w.SurfaceFormat = selectSurfaceFormat(formats, requestedFormats, colorSpaceSrgbNonlinear)

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(ctx.PhysicalDevice, surface, &modeCount, nil)
	modes := make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(ctx.PhysicalDevice, surface, &modeCount, modes)
	w.PresentMode = selectPresentMode(modes, presentModes(opts.UnlimitedFrameRate))
	log.WithFields(log.Fields{
		"presentMode": w.PresentMode,
		"format":      w.SurfaceFormat.Format,
	}).Infof("[vulkan] Selected PresentMode = %d", w.PresentMode)

	if err := w.CreateOrResize(ctx, width, height, opts.MinImageCount); err != nil {
		w.destroyResources(ctx.Device)
		return nil, err
	}
	return w, nil
}

// SetClearColor stores c premultiplied by its alpha.
func (w *Window) SetClearColor(c lin.Vec4) {
	w.ClearValue = premultiply(c)
}

// CreateOrResize rebuilds the swapchain and everything hanging off it for
// the given window size. The previous swapchain is handed to the driver as
// the old swapchain and released afterwards.
func (w *Window) CreateOrResize(ctx *vulkanctx.Context, width, height, minImageCount uint32) error {
	dev := ctx.Device
	ctx.WaitIdle()

	oldSwapchain := w.Swapchain
	w.Swapchain = vk.NullSwapchain
	w.destroyFrames(dev)
	w.destroyRenderPass(dev)

	if minImageCount == 0 {
		minImageCount = minImageCountForPresentMode(w.PresentMode)
	}

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(ctx.PhysicalDevice, w.Surface, &caps)
	if err := vk.Error(ret); err != nil {
		return fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities failed with %s", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()

	imageCount := clampImageCount(minImageCount, caps.MinImageCount, caps.MaxImageCount)
	extent := swapchainExtent(caps.CurrentExtent, width, height)
	w.Width, w.Height = extent.Width, extent.Height

	w.PreTransform = preTransform(caps)

	ret = vk.CreateSwapchain(dev, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          w.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      w.SurfaceFormat.Format,
		ImageColorSpace:  w.SurfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     w.PreTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      w.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}, nil, &w.Swapchain)
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, oldSwapchain, nil)
	}
	if err := vk.Error(ret); err != nil {
		w.Swapchain = vk.NullSwapchain
		return fmt.Errorf("vk.CreateSwapchain failed with %s", err)
	}

	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(dev, w.Swapchain, &count, nil)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages failed with %s", err)
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(dev, w.Swapchain, &count, images)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages failed with %s", err)
	}
	w.ImageCount = count
	w.Frames = make([]Frame, count)
	w.FrameSemaphores = make([]FrameSemaphores, count)
	for i := range w.Frames {
		w.Frames[i].Backbuffer = images[i]
	}
	w.FrameIndex = 0
	w.SemaphoreIndex = 0

	if err := w.createRenderPass(dev); err != nil {
		return err
	}
	if err := w.createViews(dev); err != nil {
		return err
	}
	if err := w.createFramebuffers(dev); err != nil {
		return err
	}
	if err := w.createCommandBuffers(ctx); err != nil {
		return err
	}
	if err := w.createSyncObjects(dev); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"width":  w.Width,
		"height": w.Height,
		"images": w.ImageCount,
	}).Infoln("[vulkan] swapchain ready")
	return nil
}

func (w *Window) createRenderPass(dev vk.Device) error {
	ret := vk.CreateRenderPass(dev, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.AttachmentDescription{{
			Format:         w.SurfaceFormat.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		}},
		SubpassCount: 1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: 1,
			PColorAttachments: []vk.AttachmentReference{{
				Attachment: 0,
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			}},
		}},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		}},
	}, nil, &w.RenderPass)
	if err := vk.Error(ret); err != nil {
		return fmt.Errorf("vk.CreateRenderPass failed with %s", err)
	}
	return nil
}

func (w *Window) createViews(dev vk.Device) error {
	for i := range w.Frames {
		ret := vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    w.Frames[i].Backbuffer,
			ViewType: vk.ImageViewType2d,
			Format:   w.SurfaceFormat.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleR,
				G: vk.ComponentSwizzleG,
				B: vk.ComponentSwizzleB,
				A: vk.ComponentSwizzleA,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &w.Frames[i].BackbufferView)
		if err := vk.Error(ret); err != nil {
			return fmt.Errorf("vk.CreateImageView failed with %s", err)
		}
	}
	return nil
}

func (w *Window) createFramebuffers(dev vk.Device) error {
	for i := range w.Frames {
		ret := vk.CreateFramebuffer(dev, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      w.RenderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{w.Frames[i].BackbufferView},
			Width:           w.Width,
			Height:          w.Height,
			Layers:          1,
		}, nil, &w.Frames[i].Framebuffer)
		if err := vk.Error(ret); err != nil {
			return fmt.Errorf("vk.CreateFramebuffer failed with %s", err)
		}
	}
	return nil
}

func (w *Window) createCommandBuffers(ctx *vulkanctx.Context) error {
	dev := ctx.Device
	for i := range w.Frames {
		fd := &w.Frames[i]
		ret := vk.CreateCommandPool(dev, &vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
			QueueFamilyIndex: ctx.QueueFamily,
		}, nil, &fd.CommandPool)
		if err := vk.Error(ret); err != nil {
			return fmt.Errorf("vk.CreateCommandPool failed with %s", err)
		}
		cmdBuffers := make([]vk.CommandBuffer, 1)
		ret = vk.AllocateCommandBuffers(dev, &vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        fd.CommandPool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}, cmdBuffers)
		if err := vk.Error(ret); err != nil {
			return fmt.Errorf("vk.AllocateCommandBuffers failed with %s", err)
		}
		fd.CommandBuffer = cmdBuffers[0]
		ret = vk.CreateFence(dev, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &fd.Fence)
		if err := vk.Error(ret); err != nil {
			return fmt.Errorf("vk.CreateFence failed with %s", err)
		}
	}
	return nil
}

func (w *Window) createSyncObjects(dev vk.Device) error {
	info := &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := range w.FrameSemaphores {
		fsd := &w.FrameSemaphores[i]
		if err := vk.Error(vk.CreateSemaphore(dev, info, nil, &fsd.ImageAcquired)); err != nil {
			return fmt.Errorf("vk.CreateSemaphore failed with %s", err)
		}
		if err := vk.Error(vk.CreateSemaphore(dev, info, nil, &fsd.RenderComplete)); err != nil {
			return fmt.Errorf("vk.CreateSemaphore failed with %s", err)
		}
	}
	return nil
}

func (w *Window) destroyFrames(dev vk.Device) {
	for i := range w.Frames {
		fd := &w.Frames[i]
		if fd.Fence != vk.NullFence {
			vk.DestroyFence(dev, fd.Fence, nil)
		}
		if fd.CommandBuffer != nil {
			vk.FreeCommandBuffers(dev, fd.CommandPool, 1, []vk.CommandBuffer{fd.CommandBuffer})
		}
		if fd.CommandPool != vk.NullCommandPool {
			vk.DestroyCommandPool(dev, fd.CommandPool, nil)
		}
		if fd.Framebuffer != vk.NullFramebuffer {
			vk.DestroyFramebuffer(dev, fd.Framebuffer, nil)
		}
		if fd.BackbufferView != vk.NullImageView {
			vk.DestroyImageView(dev, fd.BackbufferView, nil)
		}
	}
	for i := range w.FrameSemaphores {
		fsd := &w.FrameSemaphores[i]
		if fsd.ImageAcquired != vk.NullSemaphore {
			vk.DestroySemaphore(dev, fsd.ImageAcquired, nil)
		}
		if fsd.RenderComplete != vk.NullSemaphore {
			vk.DestroySemaphore(dev, fsd.RenderComplete, nil)
		}
	}
	w.Frames = nil
	w.FrameSemaphores = nil
	w.ImageCount = 0
}

func (w *Window) destroyRenderPass(dev vk.Device) {
	if w.RenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev, w.RenderPass, nil)
		w.RenderPass = vk.NullRenderPass
	}
}

func (w *Window) destroyResources(dev vk.Device) {
	w.destroyFrames(dev)
	w.destroyRenderPass(dev)
	if w.Swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, w.Swapchain, nil)
		w.Swapchain = vk.NullSwapchain
	}
}

// Destroy waits for the device to go idle and releases frames, semaphores,
// the render pass, the swapchain and finally the surface.
func (w *Window) Destroy(ctx *vulkanctx.Context) {
	if w == nil {
		return
	}
	ctx.WaitIdle()
	w.destroyResources(ctx.Device)
	if w.Surface != vk.NullSurface {
		vk.DestroySurface(ctx.Instance, w.Surface, nil)
		w.Surface = vk.NullSurface
	}
}
