package vulkanctx

import vk "github.com/vulkan-go/vulkan"

type deviceCandidate struct {
	Name           string
	Type           vk.PhysicalDeviceType
	GeometryShader bool
	VendorID       uint32
	APIVersion     uint32
	DriverVersion  uint32
}

// pickPhysicalDevice returns the first discrete GPU that supports geometry
// shaders, otherwise the first device in enumeration order. It returns -1
// for an empty list.
func pickPhysicalDevice(candidates []deviceCandidate) int {
	if len(candidates) == 0 {
		return -1
	}
	for i, d := range candidates {
		if d.Type == vk.PhysicalDeviceTypeDiscreteGpu && d.GeometryShader {
			return i
		}
	}
	return 0
}

func pickGraphicsQueueFamily(families []vk.QueueFlags) (uint32, bool) {
	for i, flags := range families {
		if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

var poolDescriptorTypes = []vk.DescriptorType{
	vk.DescriptorTypeSampler,
	vk.DescriptorTypeCombinedImageSampler,
	vk.DescriptorTypeSampledImage,
	vk.DescriptorTypeStorageImage,
	vk.DescriptorTypeUniformTexelBuffer,
	vk.DescriptorTypeStorageTexelBuffer,
	vk.DescriptorTypeUniformBuffer,
	vk.DescriptorTypeStorageBuffer,
	vk.DescriptorTypeUniformBufferDynamic,
	vk.DescriptorTypeStorageBufferDynamic,
	vk.DescriptorTypeInputAttachment,
}

func descriptorPoolSizes(perType uint32) []vk.DescriptorPoolSize {
	sizes := make([]vk.DescriptorPoolSize, 0, len(poolDescriptorTypes))
	for _, t := range poolDescriptorTypes {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: perType,
		})
	}
	return sizes
}

func physicalDeviceType(dev vk.PhysicalDeviceType) string {
	switch dev {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	case vk.PhysicalDeviceTypeOther:
		return "Other"
	default:
		return "Unknown"
	}
}
