package vulkanwindow

import (
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	vk "github.com/vulkan-go/vulkan"
)

func needsRebuild(ret vk.Result) bool {
	return ret == vk.ErrorOutOfDate || ret == vk.Suboptimal
}

// RecordFunc records draws into cmd while the window's render pass is
// active. frameIndex names the swapchain image being rendered.
type RecordFunc func(cmd vk.CommandBuffer, frameIndex uint32)

// FrameRender acquires the next swapchain image, begins the render pass with
// the clear colour and lets record add its draws before the pass ends. It
// returns true when the swapchain is out of date and must be rebuilt before
// the next frame.
func (w *Window) FrameRender(ctx *vulkanctx.Context, record RecordFunc) (rebuild bool) {
	dev := ctx.Device
	fsd := w.FrameSemaphores[w.SemaphoreIndex]

	ret := vk.AcquireNextImage(dev, w.Swapchain, vk.MaxUint64, fsd.ImageAcquired, vk.NullFence, &w.FrameIndex)
	if needsRebuild(ret) {
		return true
	}
	vulkanctx.CheckResult(ret)

	fd := &w.Frames[w.FrameIndex]
	vulkanctx.CheckResult(vk.WaitForFences(dev, 1, []vk.Fence{fd.Fence}, vk.True, vk.MaxUint64))
	vulkanctx.CheckResult(vk.ResetFences(dev, 1, []vk.Fence{fd.Fence}))

	vulkanctx.CheckResult(vk.ResetCommandPool(dev, fd.CommandPool, 0))
	vulkanctx.CheckResult(vk.BeginCommandBuffer(fd.CommandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))

	clearColor := w.ClearValue
	vk.CmdBeginRenderPass(fd.CommandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  w.RenderPass,
		Framebuffer: fd.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{
				Width:  w.Width,
				Height: w.Height,
			},
		},
		ClearValueCount: 1,
		PClearValues: []vk.ClearValue{
			vk.NewClearValue(clearColor[:]),
		},
	}, vk.SubpassContentsInline)
	if record != nil {
		record(fd.CommandBuffer, w.FrameIndex)
	}
	vk.CmdEndRenderPass(fd.CommandBuffer)

	vulkanctx.CheckResult(vk.EndCommandBuffer(fd.CommandBuffer))
	vulkanctx.CheckResult(vk.QueueSubmit(ctx.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{fsd.ImageAcquired},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{fd.CommandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{fsd.RenderComplete},
	}}, fd.Fence))
	return false
}

// FramePresent queues the rendered image for presentation. It does nothing
// when rebuild is already set.
func (w *Window) FramePresent(ctx *vulkanctx.Context, rebuild bool) bool {
	if rebuild {
		return true
	}
	fsd := w.FrameSemaphores[w.SemaphoreIndex]
	ret := vk.QueuePresent(ctx.Queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{fsd.RenderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{w.Swapchain},
		PImageIndices:      []uint32{w.FrameIndex},
	})
	if needsRebuild(ret) {
		return true
	}
	vulkanctx.CheckResult(ret)
	w.SemaphoreIndex = (w.SemaphoreIndex + 1) % w.ImageCount
	return false
}
