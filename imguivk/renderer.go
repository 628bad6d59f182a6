// Package imguivk draws Dear ImGui geometry with a Vulkan graphics pipeline
// inside an existing render pass.
package imguivk

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	as "github.com/vulkan-go/asche"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	vk "github.com/vulkan-go/vulkan"
)

// FontTextureID is the texture id the font atlas is registered under.
const FontTextureID uintptr = 1

const pushConstantSize = 4 * 4

type frameBuffers struct {
	vertex *hostBuffer
	index  *hostBuffer
}

type Renderer struct {
	dev      vk.Device
	memProps vk.PhysicalDeviceMemoryProperties
	pool     vk.DescriptorPool

	setLayout      vk.DescriptorSetLayout
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline

	font     *fontTexture
	fontSet  vk.DescriptorSet
	textures map[uintptr]vk.DescriptorSet

	// frames holds one vertex/index buffer pair per swapchain image.
	frames []frameBuffers
}

// New builds the GUI pipeline for subpass 0 of renderPass. Descriptor sets
// come from the context's descriptor pool.
func New(ctx *vulkanctx.Context, renderPass vk.RenderPass, layout VertexLayout) (*Renderer, error) {
	r := &Renderer{
		dev:      ctx.Device,
		memProps: ctx.MemoryProperties(),
		pool:     ctx.DescriptorPool,
		textures: make(map[uintptr]vk.DescriptorSet),
	}
	var unwind vulkanctx.Unwind
	defer unwind.Unwind()

	ret := vk.CreateDescriptorSetLayout(r.dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}, nil, &r.setLayout)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreateDescriptorSetLayout failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroyDescriptorSetLayout(r.dev, r.setLayout, nil)
	})

	ret = vk.CreatePipelineLayout(r.dev, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{r.setLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       pushConstantSize,
		}},
	}, nil, &r.pipelineLayout)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreatePipelineLayout failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroyPipelineLayout(r.dev, r.pipelineLayout, nil)
	})

	if err := r.createPipeline(renderPass, layout); err != nil {
		return nil, err
	}

	unwind.Discard()
	return r, nil
}

func (r *Renderer) createPipeline(renderPass vk.RenderPass, layout VertexLayout) error {
	vs, fs, err := loadShaders(r.dev)
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(r.dev, vs, nil)
	defer vk.DestroyShaderModule(r.dev, fs, nil)

	pipelineCreateInfos := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		Layout:     r.pipelineLayout,
		RenderPass: renderPass,
		Subpass:    0,

		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount: 1,
			PVertexBindingDescriptions: []vk.VertexInputBindingDescription{{
				Binding:   0,
				Stride:    uint32(layout.Size),
				InputRate: vk.VertexInputRateVertex,
			}},
			VertexAttributeDescriptionCount: 3,
			PVertexAttributeDescriptions:    vertexAttributes(layout),
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				BlendEnable:         vk.True,
				SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
				DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				ColorBlendOp:        vk.BlendOpAdd,
				SrcAlphaBlendFactor: vk.BlendFactorOne,
				DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				AlphaBlendOp:        vk.BlendOpAdd,
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
					vk.ColorComponentBBit | vk.ColorComponentABit),
			}},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType: vk.StructureTypePipelineDepthStencilStateCreateInfo,
		},
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vs,
			PName:  "main\x00",
		}, {
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fs,
			PName:  "main\x00",
		}},
	}}
	pipeline := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(r.dev, vk.NullPipelineCache, 1, pipelineCreateInfos, nil, pipeline)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateGraphicsPipelines failed with %s", err)
	}
	r.pipeline = pipeline[0]
	return nil
}

// vertexAttributes maps position, uv and colour to shader locations 0, 1
// and 2. Colour bytes are normalised to [0, 1].
func vertexAttributes(layout VertexLayout) []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{{
		Location: 0,
		Binding:  0,
		Format:   vk.FormatR32g32Sfloat,
		Offset:   uint32(layout.PosOffset),
	}, {
		Location: 1,
		Binding:  0,
		Format:   vk.FormatR32g32Sfloat,
		Offset:   uint32(layout.UVOffset),
	}, {
		Location: 2,
		Binding:  0,
		Format:   vk.FormatR8g8b8a8Unorm,
		Offset:   uint32(layout.ColOffset),
	}}
}

// CreateFontTexture uploads an RGBA font atlas and binds it to a
// descriptor set from the context's pool. It returns the texture id the
// GUI should tag the atlas with.
func (r *Renderer) CreateFontTexture(ctx *vulkanctx.Context, pix []byte, width, height int) (uintptr, error) {
	font, err := uploadFonts(ctx, pix, width, height)
	if err != nil {
		return 0, err
	}

	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(r.dev, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{r.setLayout},
	}, &set)
	if err := as.NewError(ret); err != nil {
		font.destroy(r.dev)
		return 0, fmt.Errorf("vk.AllocateDescriptorSets failed with %s", err)
	}
	vk.UpdateDescriptorSets(r.dev, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     font.sampler,
			ImageView:   font.view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}}, 0, nil)

	r.destroyFont()
	r.font = font
	r.fontSet = set
	r.textures[FontTextureID] = set
	return FontTextureID, nil
}

// Record uploads data into the buffers owned by frameIndex and records the
// draws into cmd, which must be inside the render pass the pipeline was
// built for. The caller guarantees the GPU is done with frameIndex.
func (r *Renderer) Record(cmd vk.CommandBuffer, frameIndex uint32, data *DrawData, fbWidth, fbHeight uint32) error {
	if data == nil || data.Empty() || fbWidth == 0 || fbHeight == 0 {
		return nil
	}
	if err := data.Validate(); err != nil {
		return err
	}
	for int(frameIndex) >= len(r.frames) {
		r.frames = append(r.frames, frameBuffers{})
	}
	fb := &r.frames[frameIndex]

	var err error
	fb.vertex, err = ensureBuffer(fb.vertex, r.dev, r.memProps,
		data.TotalVertexBytes(), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return err
	}
	fb.index, err = ensureBuffer(fb.index, r.dev, r.memProps,
		data.TotalIndexBytes(), vk.BufferUsageIndexBufferBit)
	if err != nil {
		return err
	}
	var vtx, idx int
	for _, list := range data.Lists {
		vtx = fb.vertex.write(vtx, list.VertexData)
		idx = fb.index.write(idx, list.IndexData)
	}

	r.setupRenderState(cmd, fb, data, fbWidth, fbHeight)
	bound := r.fontSet
	for _, call := range planDrawCalls(data, fbWidth, fbHeight) {
		if call.reset {
			r.setupRenderState(cmd, fb, data, fbWidth, fbHeight)
			bound = r.fontSet
			continue
		}
		set := r.textureSet(call.textureID)
		if set != bound {
			vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, r.pipelineLayout,
				0, 1, []vk.DescriptorSet{set}, 0, nil)
			bound = set
		}
		vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{call.scissor})
		vk.CmdDrawIndexed(cmd, call.indexCount, 1, call.firstIndex, call.vertexOffset, 0)
	}

	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: fbWidth, Height: fbHeight},
	}})
	return nil
}

func (r *Renderer) setupRenderState(cmd vk.CommandBuffer, fb *frameBuffers, data *DrawData, fbWidth, fbHeight uint32) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, r.pipeline)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, r.pipelineLayout,
		0, 1, []vk.DescriptorSet{r.fontSet}, 0, nil)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{fb.vertex.buffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, fb.index.buffer, 0, indexType(data.IndexSize))
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(fbWidth),
		Height:   float32(fbHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
	pc := pushConstants(data)
	vk.CmdPushConstants(cmd, r.pipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0, pushConstantSize, unsafe.Pointer(&pc[0]))
}

func (r *Renderer) textureSet(id uintptr) vk.DescriptorSet {
	if set, ok := r.textures[id]; ok {
		return set
	}
	log.Debugf("[vulkan] unknown GUI texture id %d, using the font atlas", id)
	return r.fontSet
}

func indexType(size int) vk.IndexType {
	if size == 4 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

func (r *Renderer) destroyFont() {
	if r.fontSet != vk.NullDescriptorSet {
		set := r.fontSet
		vk.FreeDescriptorSets(r.dev, r.pool, 1, &set)
		r.fontSet = vk.NullDescriptorSet
		delete(r.textures, FontTextureID)
	}
	r.font.destroy(r.dev)
	r.font = nil
}

// Destroy releases everything the renderer created. The device must be idle.
func (r *Renderer) Destroy() {
	if r == nil {
		return
	}
	for i := range r.frames {
		r.frames[i].vertex.destroy(r.dev)
		r.frames[i].index.destroy(r.dev)
	}
	r.frames = nil
	r.destroyFont()
	vk.DestroyPipeline(r.dev, r.pipeline, nil)
	vk.DestroyPipelineLayout(r.dev, r.pipelineLayout, nil)
	vk.DestroyDescriptorSetLayout(r.dev, r.setLayout, nil)
}
