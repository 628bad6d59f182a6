package imguivk

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	as "github.com/vulkan-go/asche"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	vk "github.com/vulkan-go/vulkan"
)

const fontFormat = vk.FormatR8g8b8a8Unorm

type fontTexture struct {
	image   vk.Image
	memory  vk.DeviceMemory
	view    vk.ImageView
	sampler vk.Sampler
	width   uint32
	height  uint32
}

// uploadFonts creates a device-local RGBA image from pix, fills it through a
// staging buffer and leaves it in SHADER_READ_ONLY layout. It blocks until
// the copy has finished on the queue.
func uploadFonts(ctx *vulkanctx.Context, pix []byte, width, height int) (*fontTexture, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("imguivk: font atlas %dx%d with %d bytes", width, height, len(pix))
	}
	dev := ctx.Device
	memProps := ctx.MemoryProperties()
	tex := &fontTexture{
		width:  uint32(width),
		height: uint32(height),
	}
	var unwind vulkanctx.Unwind
	defer unwind.Unwind()

	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    fontFormat,
		Extent: vk.Extent3D{
			Width:  tex.width,
			Height: tex.height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &tex.image)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreateImage failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroyImage(dev, tex.image, nil)
	})

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, tex.image, &memReqs)
	memReqs.Deref()
	memTypeIndex, _ := as.FindRequiredMemoryTypeFallback(memProps,
		vk.MemoryPropertyFlagBits(memReqs.MemoryTypeBits), vk.MemoryPropertyDeviceLocalBit)
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memTypeIndex,
	}, nil, &tex.memory)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.AllocateMemory failed with %s", err)
	}
	unwind.Add(func() {
		vk.FreeMemory(dev, tex.memory, nil)
	})
	if err := as.NewError(vk.BindImageMemory(dev, tex.image, tex.memory, 0)); err != nil {
		return nil, fmt.Errorf("vk.BindImageMemory failed with %s", err)
	}

	ret = vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    tex.image,
		ViewType: vk.ImageViewType2d,
		Format:   fontFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &tex.view)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreateImageView failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroyImageView(dev, tex.view, nil)
	})

	ret = vk.CreateSampler(dev, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  -1000,
		MaxLod:                  1000,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &tex.sampler)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreateSampler failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroySampler(dev, tex.sampler, nil)
	})

	staging, err := newHostBuffer(dev, memProps, len(pix), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return nil, err
	}
	defer staging.destroy(dev)
	staging.write(0, pix)

	err = submitOnce(ctx, func(cmd vk.CommandBuffer) {
		imageBarrier(cmd, tex.image,
			vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
			0, vk.AccessTransferWriteBit,
			vk.PipelineStageHostBit, vk.PipelineStageTransferBit)
		vk.CmdCopyBufferToImage(cmd, staging.buffer, tex.image,
			vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{
					Width:  tex.width,
					Height: tex.height,
					Depth:  1,
				},
			}})
		imageBarrier(cmd, tex.image,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessTransferWriteBit, vk.AccessShaderReadBit,
			vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit)
	})
	if err != nil {
		return nil, err
	}

	unwind.Discard()
	log.WithFields(log.Fields{
		"width":  width,
		"height": height,
	}).Debugln("[vulkan] font texture uploaded")
	return tex, nil
}

func (t *fontTexture) destroy(dev vk.Device) {
	if t == nil {
		return
	}
	vk.DestroySampler(dev, t.sampler, nil)
	vk.DestroyImageView(dev, t.view, nil)
	vk.DestroyImage(dev, t.image, nil)
	vk.FreeMemory(dev, t.memory, nil)
}

func imageBarrier(cmd vk.CommandBuffer, image vk.Image,
	oldLayout, newLayout vk.ImageLayout,
	srcAccess, dstAccess vk.AccessFlagBits,
	srcStage, dstStage vk.PipelineStageFlagBits) {

	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(srcAccess),
			DstAccessMask:       vk.AccessFlags(dstAccess),
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
}

// submitOnce records into a throwaway command buffer, submits it to the
// context's queue and waits for the queue to drain.
func submitOnce(ctx *vulkanctx.Context, record func(cmd vk.CommandBuffer)) error {
	dev := ctx.Device
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(dev, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: ctx.QueueFamily,
	}, nil, &pool)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateCommandPool failed with %s", err)
	}
	defer vk.DestroyCommandPool(dev, pool, nil)

	cmds := make([]vk.CommandBuffer, 1)
	ret = vk.AllocateCommandBuffers(dev, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.AllocateCommandBuffers failed with %s", err)
	}
	cmd := cmds[0]

	ret = vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer failed with %s", err)
	}
	record(cmd)
	if err := as.NewError(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer failed with %s", err)
	}
	ret = vk.QueueSubmit(ctx.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}}, vk.NullFence)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.QueueSubmit failed with %s", err)
	}
	if err := as.NewError(vk.QueueWaitIdle(ctx.Queue)); err != nil {
		return fmt.Errorf("vk.QueueWaitIdle failed with %s", err)
	}
	return nil
}
