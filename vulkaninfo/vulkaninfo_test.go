package vulkaninfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	vk "github.com/vulkan-go/vulkan"
)

func TestGPURows(t *testing.T) {
	rows := gpuRows([]vulkanctx.DeviceSummary{
		{Name: "llvmpipe", Type: "CPU"},
		{Name: "Radeon", Type: "Discrete GPU", GeometryShader: true, Selected: true},
	})
	assert.Equal(t, []string{
		"  llvmpipe (CPU, no geometry shader)",
		"* Radeon (Discrete GPU, geometry shader)",
	}, rows)
	assert.Empty(t, gpuRows(nil))
}

func TestPresentModeName(t *testing.T) {
	assert.Equal(t, "FIFO", presentModeName(vk.PresentModeFifo))
	assert.Equal(t, "MAILBOX", presentModeName(vk.PresentModeMailbox))
	assert.Equal(t, "IMMEDIATE", presentModeName(vk.PresentModeImmediate))
	assert.Equal(t, "42", presentModeName(vk.PresentMode(42)))
}
