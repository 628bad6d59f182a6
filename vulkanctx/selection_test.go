package vulkanctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestPickPhysicalDevicePrefersDiscreteWithGeometryShader(t *testing.T) {
	candidates := []deviceCandidate{
		{Name: "igpu", Type: vk.PhysicalDeviceTypeIntegratedGpu, GeometryShader: true},
		{Name: "dgpu-no-gs", Type: vk.PhysicalDeviceTypeDiscreteGpu},
		{Name: "dgpu", Type: vk.PhysicalDeviceTypeDiscreteGpu, GeometryShader: true},
		{Name: "dgpu-2", Type: vk.PhysicalDeviceTypeDiscreteGpu, GeometryShader: true},
	}
	assert.Equal(t, 2, pickPhysicalDevice(candidates))
}

func TestPickPhysicalDeviceFallsBackToFirst(t *testing.T) {
	candidates := []deviceCandidate{
		{Name: "cpu", Type: vk.PhysicalDeviceTypeCpu},
		{Name: "igpu", Type: vk.PhysicalDeviceTypeIntegratedGpu, GeometryShader: true},
	}
	assert.Equal(t, 0, pickPhysicalDevice(candidates))
	assert.Equal(t, -1, pickPhysicalDevice(nil))
}

func TestPickGraphicsQueueFamily(t *testing.T) {
	transfer := vk.QueueFlags(vk.QueueTransferBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)
	graphics := vk.QueueFlags(vk.QueueGraphicsBit) | compute

	idx, ok := pickGraphicsQueueFamily([]vk.QueueFlags{transfer, compute, graphics, graphics})
	assert.True(t, ok)
	assert.EqualValues(t, 2, idx)

	_, ok = pickGraphicsQueueFamily([]vk.QueueFlags{transfer, compute})
	assert.False(t, ok)
}

func TestDescriptorPoolSizes(t *testing.T) {
	sizes := descriptorPoolSizes(descriptorsPerType)
	assert.Len(t, sizes, 11)
	seen := make(map[vk.DescriptorType]bool)
	for _, s := range sizes {
		assert.EqualValues(t, 1000, s.DescriptorCount)
		assert.False(t, seen[s.Type], "duplicate descriptor type %d", s.Type)
		seen[s.Type] = true
	}
	assert.True(t, seen[vk.DescriptorTypeCombinedImageSampler])
	assert.True(t, seen[vk.DescriptorTypeInputAttachment])
}

func TestPhysicalDeviceType(t *testing.T) {
	assert.Equal(t, "Discrete GPU", physicalDeviceType(vk.PhysicalDeviceTypeDiscreteGpu))
	assert.Equal(t, "CPU", physicalDeviceType(vk.PhysicalDeviceTypeCpu))
	assert.Equal(t, "Unknown", physicalDeviceType(vk.PhysicalDeviceType(42)))
}
